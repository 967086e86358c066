package feeds

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// sharedTransport pools connections across all source downloaders; the four
// list hosts are hit together on every refresh.
var sharedTransport = &http.Transport{
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// maxListBytes caps a single list download. The largest published list is
// well under 100 MB; anything bigger is a broken upstream.
const maxListBytes = 256 << 20

// HTTPDownloader fetches a list file over HTTP with a per-request timeout.
type HTTPDownloader struct {
	url    string
	client *http.Client
}

// NewHTTPDownloader returns a downloader for the given list URL.
func NewHTTPDownloader(url string, timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: sharedTransport,
		},
	}
}

// Fetch downloads the list bytes. Non-2xx responses are errors.
func (d *HTTPDownloader) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", d.url, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", d.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", d.url, resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxListBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.url, err)
	}
	return data, nil
}
