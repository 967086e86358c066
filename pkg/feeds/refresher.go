package feeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/index"
)

// ErrRefreshInProgress rejects a refresh while one is already running; the
// HTTP layer maps it to 429.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// ErrNoSources reports a refresher configured with an empty registry.
var ErrNoSources = errors.New("no sources registered")

// fetchConcurrency bounds how many sources download in parallel.
const fetchConcurrency = 4

// RefreshState is the orchestrator-level state machine.
type RefreshState string

const (
	StateIdle       RefreshState = "IDLE"
	StateRefreshing RefreshState = "REFRESHING"
	StateError      RefreshState = "ERROR"
)

// SourceStatus reports one source's last refresh outcome.
type SourceStatus struct {
	Source      entity.Source `json:"source"`
	Name        string        `json:"name"`
	EntityCount int           `json:"entityCount"`
	LastUpdated time.Time     `json:"lastUpdated,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Status is the full orchestrator state for /v1/download/status.
type Status struct {
	State                RefreshState   `json:"status"`
	LastRefresh          time.Time      `json:"lastRefresh,omitempty"`
	NextScheduledRefresh time.Time      `json:"nextScheduledRefresh,omitempty"`
	Sources              []SourceStatus `json:"sources"`
}

// Refresher orchestrates per-source download and parse, then rebuilds the
// index. A source that fails keeps its records from the previous snapshot,
// so a flaky upstream degrades freshness, never coverage.
type Refresher struct {
	registry []SourceFeed
	idx      *index.Index
	logger   *slog.Logger
	interval time.Duration

	mu        sync.Mutex
	running   bool
	state     RefreshState
	last      time.Time
	nextRun   time.Time
	perSource map[entity.Source]SourceStatus
}

// NewRefresher returns an orchestrator over the given source registry. A
// non-zero interval enables periodic refresh via RunPeriodic.
func NewRefresher(registry []SourceFeed, idx *index.Index, interval time.Duration, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	perSource := make(map[entity.Source]SourceStatus, len(registry))
	for _, feed := range registry {
		perSource[feed.Source] = SourceStatus{Source: feed.Source, Name: feed.Source.Name()}
	}
	return &Refresher{
		registry:  registry,
		idx:       idx,
		logger:    logger,
		interval:  interval,
		state:     StateIdle,
		perSource: perSource,
	}
}

// DefaultRegistry binds every source to the embedded fixture feed, with HTTP
// downloaders substituted for sources that have a configured URL.
func DefaultRegistry(sourceURLs map[string]string, timeout time.Duration) []SourceFeed {
	registry := make([]SourceFeed, 0, len(entity.AllSources()))
	for _, src := range entity.AllSources() {
		fixture := NewFixtureFeed(src)
		feed := SourceFeed{Source: src, Downloader: fixture, Parser: fixture}
		for name, url := range sourceURLs {
			if parsed, ok := entity.ParseSource(name); ok && parsed == src && url != "" {
				feed.Downloader = NewHTTPDownloader(url, timeout)
			}
		}
		registry = append(registry, feed)
	}
	return registry
}

// Refresh downloads and parses every source, tolerating per-source failure,
// and swaps the rebuilt corpus into the index. Only one refresh runs at a
// time; a second caller gets ErrRefreshInProgress and the running refresh is
// unaffected.
func (r *Refresher) Refresh(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	return r.run(ctx)
}

// StartAsync begins a refresh in the background. The in-progress check is
// synchronous so callers can report 429 immediately; the download itself
// outlives the triggering request.
func (r *Refresher) StartAsync(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	go func() {
		if err := r.run(context.WithoutCancel(ctx)); err != nil {
			r.logger.Error("background refresh failed", "error", err)
		}
	}()
	return nil
}

// begin claims the single refresh slot.
func (r *Refresher) begin() error {
	if len(r.registry) == 0 {
		return ErrNoSources
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRefreshInProgress
	}
	r.running = true
	r.state = StateRefreshing
	return nil
}

// run executes a claimed refresh. Callers hold the slot via begin.
func (r *Refresher) run(ctx context.Context) error {
	start := time.Now()
	results := make([][]*entity.Entity, len(r.registry))
	fetchErrs := make([]error, len(r.registry))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, feed := range r.registry {
		g.Go(func() error {
			entities, err := fetchSource(gctx, feed)
			if err != nil {
				// Per-source failure is recorded, never propagated: one dead
				// upstream must not abort the other three.
				fetchErrs[i] = err
				r.logger.Warn("source refresh failed", "source", feed.Source, "error", err)
				return nil
			}
			results[i] = entities
			return nil
		})
	}
	g.Wait()

	prev := r.idx.Snapshot()
	var all []*entity.Entity
	failures := 0
	now := time.Now()

	r.mu.Lock()
	for i, feed := range r.registry {
		status := r.perSource[feed.Source]
		if fetchErrs[i] != nil {
			failures++
			status.Error = fetchErrs[i].Error()
			// Carry the previous snapshot's records for this source forward.
			kept := 0
			for _, e := range prev.Entities() {
				if e.Source == feed.Source {
					all = append(all, e)
					kept++
				}
			}
			status.EntityCount = kept
		} else {
			all = append(all, results[i]...)
			status.EntityCount = len(results[i])
			status.LastUpdated = now
			status.Error = ""
		}
		r.perSource[feed.Source] = status
	}
	r.mu.Unlock()

	r.idx.Replace(all)

	r.mu.Lock()
	r.running = false
	r.last = now
	if failures > 0 {
		r.state = StateError
	} else {
		r.state = StateIdle
	}
	r.mu.Unlock()

	r.logger.Info("refresh finished",
		"entities", r.idx.Len(),
		"sources", len(r.registry),
		"failed", failures,
		"elapsed", time.Since(start))

	if failures == len(r.registry) {
		return fmt.Errorf("all %d sources failed", failures)
	}
	return nil
}

// fetchSource downloads and parses one source.
func fetchSource(ctx context.Context, feed SourceFeed) ([]*entity.Entity, error) {
	data, err := feed.Downloader.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", feed.Source, err)
	}
	entities, err := feed.Parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", feed.Source, err)
	}
	return entities, nil
}

// Status returns a snapshot of the orchestrator state with sources in
// registry order.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{
		State:                r.state,
		LastRefresh:          r.last,
		NextScheduledRefresh: r.nextRun,
		Sources:              make([]SourceStatus, 0, len(r.registry)),
	}
	for _, feed := range r.registry {
		st.Sources = append(st.Sources, r.perSource[feed.Source])
	}
	return st
}

// RunPeriodic refreshes on the configured interval until the context is
// cancelled. No-op when the interval is zero.
func (r *Refresher) RunPeriodic(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.mu.Lock()
	r.nextRun = time.Now().Add(r.interval)
	r.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
				r.logger.Error("scheduled refresh failed", "error", err)
			}
			r.mu.Lock()
			r.nextRun = time.Now().Add(r.interval)
			r.mu.Unlock()
		}
	}
}
