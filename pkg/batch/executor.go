// Package batch screens many names in one call. A fixed worker pool runs
// item-level searches in parallel with per-item isolation: one bad item is
// marked FAILED and the rest of the batch proceeds. An async variant parks
// jobs in an in-memory store with a TTL.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/search"
	"github.com/sentriq/screend/pkg/trace"
)

// ErrBatchTooLarge rejects batches over the configured item cap.
var ErrBatchTooLarge = errors.New("batch exceeds maximum size")

// ErrEmptyBatch rejects batches with no items.
var ErrEmptyBatch = errors.New("batch contains no items")

// ItemStatus is the per-item state machine. Terminal states are immutable.
type ItemStatus string

const (
	ItemQueued  ItemStatus = "QUEUED"
	ItemRunning ItemStatus = "RUNNING"
	ItemSuccess ItemStatus = "SUCCESS"
	ItemFailed  ItemStatus = "FAILED"
)

// Item is one name to screen within a batch.
type Item struct {
	RequestID  string `json:"requestId"`
	Name       string `json:"name"`
	EntityType string `json:"entityType,omitempty"`
	Source     string `json:"source,omitempty"`
}

// Request is a full batch submission. Unset MinMatch and Limit fall back to
// the configured defaults; filters apply to every item unless the item
// narrows further.
type Request struct {
	Items        []Item   `json:"items"`
	MinMatch     *float64 `json:"minMatch,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	SourceFilter string   `json:"sourceFilter,omitempty"`
	TypeFilter   string   `json:"typeFilter,omitempty"`
}

// ItemResult reports one item's outcome. Matches is empty unless the status
// is SUCCESS.
type ItemResult struct {
	RequestID     string          `json:"requestId"`
	OriginalQuery string          `json:"originalQuery"`
	Status        ItemStatus      `json:"status"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	Matches       []search.Result `json:"matches,omitempty"`
}

// Statistics aggregates a finished batch. Confidence bands: high >= 0.95,
// medium >= 0.85, low below.
type Statistics struct {
	TotalItems            int     `json:"totalItems"`
	ItemsWithMatches      int     `json:"itemsWithMatches"`
	ItemsWithoutMatches   int     `json:"itemsWithoutMatches"`
	ItemsWithErrors       int     `json:"itemsWithErrors"`
	TotalMatchesFound     int     `json:"totalMatchesFound"`
	AverageMatchScore     float64 `json:"averageMatchScore"`
	HighConfidenceCount   int     `json:"highConfidenceCount"`
	MediumConfidenceCount int     `json:"mediumConfidenceCount"`
	LowConfidenceCount    int     `json:"lowConfidenceCount"`
	SuccessRate           float64 `json:"successRate"`
	MatchRate             float64 `json:"matchRate"`
	ProcessingTimeMs      int64   `json:"processingTimeMs"`
}

// Response is a completed batch: per-item results in input order plus the
// aggregate statistics.
type Response struct {
	Results    []ItemResult `json:"results"`
	Statistics Statistics   `json:"statistics"`
}

// Executor dispatches batch items onto a fixed worker pool.
type Executor struct {
	svc     *search.Service
	workers int
	maxSize int
	logger  *slog.Logger
}

// NewExecutor returns an executor with the given pool size and batch cap.
func NewExecutor(svc *search.Service, workers, maxSize int, logger *slog.Logger) *Executor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{svc: svc, workers: workers, maxSize: maxSize, logger: logger}
}

// MaxBatchSize reports the item cap the executor enforces.
func (e *Executor) MaxBatchSize() int {
	return e.maxSize
}

// Screen runs every item of the batch and blocks until all finish or the
// context is cancelled. Cancellation is cooperative: in-flight items finish,
// queued items are failed as cancelled. Results come back in input order
// regardless of completion order.
func (e *Executor) Screen(ctx context.Context, req Request, rec *trace.Recorder) (*Response, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyBatch
	}
	if e.maxSize > 0 && len(req.Items) > e.maxSize {
		return nil, fmt.Errorf("%w: %d items, maximum %d", ErrBatchTooLarge, len(req.Items), e.maxSize)
	}

	start := time.Now()
	results := make([]ItemResult, len(req.Items))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.runItem(req, req.Items[i], rec)
			}
		}()
	}

dispatch:
	for i := range req.Items {
		select {
		case <-ctx.Done():
			// Items never dispatched fail with the cancellation cause.
			for j := i; j < len(req.Items); j++ {
				results[j] = ItemResult{
					RequestID:     req.Items[j].RequestID,
					OriginalQuery: req.Items[j].Name,
					Status:        ItemFailed,
					ErrorMessage:  ctx.Err().Error(),
				}
			}
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	resp := &Response{Results: results}
	resp.Statistics = summarize(results, time.Since(start))
	rec.Recordf("batch", "%d items in %dms, %d failed",
		resp.Statistics.TotalItems, resp.Statistics.ProcessingTimeMs, resp.Statistics.ItemsWithErrors)
	return resp, nil
}

// runItem executes one item, converting panics and errors into a FAILED
// result so a single bad item never takes the batch down.
func (e *Executor) runItem(req Request, item Item, rec *trace.Recorder) (res ItemResult) {
	res = ItemResult{
		RequestID:     item.RequestID,
		OriginalQuery: item.Name,
		Status:        ItemRunning,
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("batch item panicked", "requestId", item.RequestID, "panic", r, "stack", string(debug.Stack()))
			res.Status = ItemFailed
			res.ErrorMessage = fmt.Sprintf("internal error: %v", r)
			res.Matches = nil
		}
	}()

	opts, err := e.itemOptions(req, item)
	if err != nil {
		res.Status = ItemFailed
		res.ErrorMessage = err.Error()
		return res
	}

	matches, err := e.svc.Search(&entity.Query{Name: item.Name, Type: opts.Type, Source: opts.Source}, opts, rec)
	if err != nil {
		res.Status = ItemFailed
		res.ErrorMessage = err.Error()
		return res
	}
	res.Status = ItemSuccess
	res.Matches = matches
	return res
}

// itemOptions resolves the effective filters for one item: the item's own
// source and type win over the batch-level filters.
func (e *Executor) itemOptions(req Request, item Item) (search.Options, error) {
	opts := search.Options{Limit: req.Limit}
	if req.MinMatch != nil {
		opts.MinMatch = *req.MinMatch
		opts.MinMatchSet = true
	}

	srcRaw := item.Source
	if srcRaw == "" {
		srcRaw = req.SourceFilter
	}
	src, ok := entity.ParseSource(srcRaw)
	if !ok {
		return opts, fmt.Errorf("unknown source %q", srcRaw)
	}
	opts.Source = src

	typRaw := item.EntityType
	if typRaw == "" {
		typRaw = req.TypeFilter
	}
	typ, ok := entity.ParseType(typRaw)
	if !ok {
		return opts, fmt.Errorf("unknown entity type %q", typRaw)
	}
	opts.Type = typ
	return opts, nil
}

// summarize computes batch statistics from the finished item results.
func summarize(results []ItemResult, elapsed time.Duration) Statistics {
	stats := Statistics{
		TotalItems:       len(results),
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
	scoreSum := 0.0
	for _, r := range results {
		switch r.Status {
		case ItemFailed:
			stats.ItemsWithErrors++
			continue
		case ItemSuccess:
			if len(r.Matches) == 0 {
				stats.ItemsWithoutMatches++
				continue
			}
		}
		stats.ItemsWithMatches++
		for _, m := range r.Matches {
			stats.TotalMatchesFound++
			scoreSum += m.Score
			switch {
			case m.Score >= 0.95:
				stats.HighConfidenceCount++
			case m.Score >= 0.85:
				stats.MediumConfidenceCount++
			default:
				stats.LowConfidenceCount++
			}
		}
	}
	if stats.TotalMatchesFound > 0 {
		stats.AverageMatchScore = scoreSum / float64(stats.TotalMatchesFound)
	}
	if stats.TotalItems > 0 {
		stats.SuccessRate = float64(stats.TotalItems-stats.ItemsWithErrors) / float64(stats.TotalItems)
		stats.MatchRate = float64(stats.ItemsWithMatches) / float64(stats.TotalItems)
	}
	return stats
}
