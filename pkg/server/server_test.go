package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/sentriq/screend/pkg/batch"
	"github.com/sentriq/screend/pkg/config"
	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/feeds"
	"github.com/sentriq/screend/pkg/index"
	"github.com/sentriq/screend/pkg/search"
	"github.com/sentriq/screend/pkg/trace"
)

func newTestApp(t *testing.T, entities ...*entity.Entity) *fiber.App {
	t.Helper()
	store, err := config.NewStore(config.DefaultScoreConfig())
	if err != nil {
		t.Fatal(err)
	}
	idx := index.New(store, nil)
	if len(entities) > 0 {
		idx.Replace(entities)
	}
	svc := search.New(idx, store, nil)
	exec := batch.NewExecutor(svc, 4, 1000, nil)
	jobs := batch.NewJobStore(exec, time.Hour, 0)
	refresher := feeds.NewRefresher(feeds.DefaultRegistry(nil, time.Second), idx, 0, nil)

	_, app := New(Deps{
		Store:     store,
		Index:     idx,
		Search:    svc,
		Executor:  exec,
		Jobs:      jobs,
		Refresher: refresher,
		Traces:    trace.NewStore(time.Hour, 100),
	})
	return app
}

func testCorpus() []*entity.Entity {
	return []*entity.Entity{
		{
			ID: "sdn-22790", SourceID: "22790",
			PrimaryName: "MADURO MOROS, Nicolas",
			Type:        entity.TypePerson, Source: entity.SourceOFACSDN,
			SanctionsInfo: entity.SanctionsInfo{Programs: []string{"VENEZUELA"}},
		},
		{
			ID:          "sdn-30518",
			PrimaryName: "LAZARUS GROUP", AltNames: []string{"HIDDEN COBRA"},
			Type: entity.TypeOrganization, Source: entity.SourceOFACSDN,
		},
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %T from %s: %v", out, data, err)
	}
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, testCorpus()...)
	resp, body := doRequest(t, app, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	health := decode[HealthDTO](t, body)
	if health.Status != "healthy" || health.EntityCount != 2 {
		t.Errorf("health = %+v", health)
	}

	empty := newTestApp(t)
	_, body = doRequest(t, empty, http.MethodGet, "/health", nil)
	if got := decode[HealthDTO](t, body); got.Status != "starting" {
		t.Errorf("empty index health = %+v, want starting", got)
	}
}

func TestSearchEndpoint(t *testing.T) {
	app := newTestApp(t, testCorpus()...)
	resp, body := doRequest(t, app, http.MethodGet, "/v1/search?name=Nicolas+Maduro&minMatch=0.85", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	out := decode[SearchResponse](t, body)
	if out.TotalResults == 0 || len(out.Entities) == 0 {
		t.Fatalf("no results: %s", body)
	}
	top := out.Entities[0]
	if top.ID != "sdn-22790" || top.Score < 0.85 {
		t.Errorf("top = %+v", top)
	}
	if top.SourceID != "22790" || len(top.Programs) == 0 {
		t.Errorf("wire fields missing: %+v", top)
	}
	if out.RequestID == "" {
		t.Error("requestID missing")
	}
	if top.Breakdown != nil {
		t.Error("breakdown should be absent without trace=true")
	}
}

func TestSearchValidation(t *testing.T) {
	app := newTestApp(t, testCorpus()...)
	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing name", "/v1/search", http.StatusBadRequest},
		{"bad minMatch", "/v1/search?name=x&minMatch=2", http.StatusBadRequest},
		{"bad limit", "/v1/search?name=x&limit=0", http.StatusBadRequest},
		{"unknown source", "/v1/search?name=x&source=NOPE", http.StatusBadRequest},
		{"unknown type", "/v1/search?name=x&type=NOPE", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, app, http.MethodGet, tt.target, nil)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			env := decode[ErrorEnvelope](t, body)
			if env.Error == "" || env.Message == "" || env.Path == "" || env.RequestID == "" || env.Timestamp == "" {
				t.Errorf("incomplete envelope: %+v", env)
			}
			if env.Status != tt.status {
				t.Errorf("envelope status = %d, want %d", env.Status, tt.status)
			}
		})
	}
}

func TestSearchStillLoading(t *testing.T) {
	app := newTestApp(t)
	resp, body := doRequest(t, app, http.MethodGet, "/v1/search?name=maduro", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503: %s", resp.StatusCode, body)
	}
}

func TestSearchTraceRoundTrip(t *testing.T) {
	app := newTestApp(t, testCorpus()...)
	resp, body := doRequest(t, app, http.MethodGet, "/v1/search?name=Nicolas+Maduro&trace=true", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	out := decode[SearchResponse](t, body)
	if len(out.Trace) == 0 {
		t.Fatal("trace requested but empty")
	}
	if len(out.Entities) > 0 && out.Entities[0].Breakdown == nil {
		t.Error("trace=true should include breakdowns")
	}

	resp, body = doRequest(t, app, http.MethodGet, "/v1/trace/"+out.RequestID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stored trace status = %d: %s", resp.StatusCode, body)
	}
	report := decode[trace.Report](t, body)
	if report.RequestID != out.RequestID || len(report.Events) == 0 {
		t.Errorf("stored report = %+v", report)
	}

	resp, _ = doRequest(t, app, http.MethodGet, "/v1/trace/unknown-id", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown trace status = %d, want 404", resp.StatusCode)
	}
}

func TestBatchEndpoint(t *testing.T) {
	app := newTestApp(t, testCorpus()...)
	resp, body := doRequest(t, app, http.MethodPost, "/v1/search/batch", batch.Request{
		Items: []batch.Item{
			{RequestID: "r1", Name: "Nicolas Maduro"},
			{RequestID: "r2", Name: ""},
			{RequestID: "r3", Name: "Lazarus Group"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	out := decode[BatchResponseDTO](t, body)
	if len(out.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(out.Results))
	}
	if out.Results[1].Status != batch.ItemFailed || out.Results[1].ErrorMessage == "" {
		t.Errorf("middle item = %+v, want FAILED with message", out.Results[1])
	}
	if out.Results[0].Status != batch.ItemSuccess || out.Results[2].Status != batch.ItemSuccess {
		t.Errorf("outer items failed: %+v", out.Results)
	}
	if out.Statistics.TotalItems != 3 || out.Statistics.ItemsWithErrors != 1 {
		t.Errorf("statistics = %+v", out.Statistics)
	}
}

func TestBatchTooLarge(t *testing.T) {
	app := newTestApp(t, testCorpus()...)
	items := make([]batch.Item, 1001)
	for i := range items {
		items[i] = batch.Item{RequestID: fmt.Sprintf("r%d", i), Name: "x"}
	}
	resp, body := doRequest(t, app, http.MethodPost, "/v1/search/batch", batch.Request{Items: items})
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413: %s", resp.StatusCode, body)
	}
}

func TestBatchConfigEndpoint(t *testing.T) {
	app := newTestApp(t, testCorpus()...)
	resp, body := doRequest(t, app, http.MethodGet, "/v1/search/batch/config", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode[BatchConfigDTO](t, body)
	if out.MaxBatchSize != 1000 || out.DefaultMinMatch != 0.88 || out.DefaultLimit != 10 {
		t.Errorf("config = %+v", out)
	}
	if len(out.SupportedSources) != 4 || len(out.SupportedTypes) != 5 {
		t.Errorf("enums = %+v", out)
	}
}

func TestBatchAsyncLifecycle(t *testing.T) {
	app := newTestApp(t, testCorpus()...)
	resp, body := doRequest(t, app, http.MethodPost, "/v1/search/batch/async", batch.Request{
		Items: []batch.Item{{RequestID: "r1", Name: "Nicolas Maduro"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d: %s", resp.StatusCode, body)
	}
	submitted := decode[JobSubmittedDTO](t, body)
	if submitted.JobID == "" || submitted.Status != batch.JobPending || submitted.ItemCount != 1 {
		t.Fatalf("submitted = %+v", submitted)
	}

	deadline := time.After(5 * time.Second)
	for {
		resp, body = doRequest(t, app, http.MethodGet, "/v1/search/batch/async/"+submitted.JobID, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status poll = %d: %s", resp.StatusCode, body)
		}
		job := decode[JobStatusDTO](t, body)
		if job.Status == batch.JobCompleted {
			if job.Response == nil || len(job.Response.Results) != 1 {
				t.Fatalf("completed without results: %+v", job)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job stuck in %s", job.Status)
		case <-time.After(20 * time.Millisecond):
		}
	}

	resp, _ = doRequest(t, app, http.MethodGet, "/v1/search/batch/async/not-a-job", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown job status = %d, want 404", resp.StatusCode)
	}
}

func TestListInfo(t *testing.T) {
	app := newTestApp(t, testCorpus()...)
	resp, body := doRequest(t, app, http.MethodGet, "/v1/listinfo", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode[ListInfoDTO](t, body)
	if len(out.Sources) != 4 {
		t.Fatalf("got %d sources, want 4", len(out.Sources))
	}
	for _, src := range out.Sources {
		if src.Source == entity.SourceOFACSDN.String() && src.EntityCount != 2 {
			t.Errorf("OFAC count = %d, want 2", src.EntityCount)
		}
		if src.Name == "" {
			t.Errorf("source %s has no display name", src.Source)
		}
	}
}

func TestRefreshEndpoints(t *testing.T) {
	app := newTestApp(t)
	resp, body := doRequest(t, app, http.MethodPost, "/v1/download/refresh", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", resp.StatusCode, body)
	}
	ack := decode[map[string]string](t, body)
	if ack["status"] != "REFRESHING" || ack["startedAt"] == "" {
		t.Errorf("ack = %v", ack)
	}

	deadline := time.After(5 * time.Second)
	for {
		resp, body = doRequest(t, app, http.MethodGet, "/v1/download/status", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status endpoint = %d", resp.StatusCode)
		}
		st := decode[feeds.Status](t, body)
		if st.State != feeds.StateRefreshing {
			if st.State != feeds.StateIdle {
				t.Errorf("terminal state = %s, want IDLE", st.State)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("refresh never finished")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestAdminConfigRoundTrip(t *testing.T) {
	app := newTestApp(t, testCorpus()...)

	resp, body := doRequest(t, app, http.MethodGet, "/admin/config", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	cfg := decode[config.ScoreConfig](t, body)
	if cfg.Weights.NameWeight != 35 {
		t.Errorf("default nameWeight = %v", cfg.Weights.NameWeight)
	}

	cfg.Weights.NameWeight = 40
	resp, body = doRequest(t, app, http.MethodPut, "/admin/config/weights", cfg.Weights)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d: %s", resp.StatusCode, body)
	}

	_, body = doRequest(t, app, http.MethodGet, "/admin/config", nil)
	if got := decode[config.ScoreConfig](t, body); got.Weights.NameWeight != 40 {
		t.Errorf("updated nameWeight = %v, want 40", got.Weights.NameWeight)
	}

	// Out-of-bounds updates are rejected and leave the live config alone.
	bad := cfg.Weights
	bad.MinimumScore = 1.5
	resp, _ = doRequest(t, app, http.MethodPut, "/admin/config/weights", bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid weights status = %d, want 400", resp.StatusCode)
	}

	resp, body = doRequest(t, app, http.MethodPost, "/admin/config/reset", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}
	if got := decode[config.ScoreConfig](t, body); got.Weights.NameWeight != 35 {
		t.Errorf("reset nameWeight = %v, want 35", got.Weights.NameWeight)
	}
}

func TestContentNegotiation(t *testing.T) {
	app := newTestApp(t, testCorpus()...)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?name=x", nil)
	req.Header.Set("Accept", "text/xml")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotAcceptable {
		t.Errorf("xml Accept status = %d, want 406", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/search/batch", bytes.NewReader([]byte("name=x")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("form body status = %d, want 415", resp.StatusCode)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	app := newTestApp(t, testCorpus()...)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?name=Nicolas+Maduro", nil)
	req.Header.Set("X-Request-ID", "caller-supplied-id")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "caller-supplied-id" {
		t.Errorf("response header id = %q", got)
	}
	if out := decode[SearchResponse](t, data); out.RequestID != "caller-supplied-id" {
		t.Errorf("body requestID = %q", out.RequestID)
	}
}
