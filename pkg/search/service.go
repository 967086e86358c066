// Package search runs the query pipeline: enumerate the index snapshot,
// filter by source and type, score every candidate, drop below the match
// floor, sort, truncate. A search is purely functional over one snapshot;
// concurrent refreshes never change an in-flight call's candidates.
package search

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sentriq/screend/pkg/config"
	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/index"
	"github.com/sentriq/screend/pkg/prepare"
	"github.com/sentriq/screend/pkg/scoring"
	"github.com/sentriq/screend/pkg/trace"
)

// DefaultLimit is the result cap applied when the caller does not set one.
const DefaultLimit = 10

// ErrEmptyName rejects queries with no name to match on.
var ErrEmptyName = errors.New("query name must not be empty")

// ErrStillLoading signals that the index has no data yet; callers map it to
// a 503 rather than returning a misleading empty result set.
var ErrStillLoading = errors.New("screening data still loading")

// ErrInvalidOption marks out-of-range search options.
var ErrInvalidOption = errors.New("invalid search option")

// Result pairs a matched entity with its score and factor breakdown.
type Result struct {
	Entity    *entity.Entity
	Score     float64
	Breakdown scoring.Breakdown
}

// Options narrows and bounds a search. Zero values mean no source filter, no
// type filter, DefaultLimit results, and the configured minimum score.
type Options struct {
	Source   entity.Source
	Type     entity.Type
	Limit    int
	MinMatch float64

	// MinMatchSet distinguishes an explicit 0.0 floor from an unset one.
	MinMatchSet bool
}

// Service executes searches against the live index under the live scoring
// config. Stateless between calls.
type Service struct {
	idx    *index.Index
	cfg    *config.Store
	logger *slog.Logger
}

// New returns a search service over the given index and config store.
func New(idx *index.Index, cfg *config.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{idx: idx, cfg: cfg, logger: logger}
}

// Search scores the query against every candidate passing the filters and
// returns matches at or above the floor, best first. The recorder may be
// nil; tracing then costs nothing.
func (s *Service) Search(q *entity.Query, opts Options, rec *trace.Recorder) ([]Result, error) {
	if q == nil || strings.TrimSpace(q.Name) == "" {
		return nil, ErrEmptyName
	}
	if opts.MinMatchSet && (opts.MinMatch < 0 || opts.MinMatch > 1) {
		return nil, fmt.Errorf("minMatch must be in [0,1], got %v: %w", opts.MinMatch, ErrInvalidOption)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0, got %d: %w", opts.Limit, ErrInvalidOption)
	}

	snap := s.idx.Snapshot()
	if snap.Len() == 0 {
		return nil, ErrStillLoading
	}

	cfg := s.cfg.Snapshot()
	minMatch := cfg.Weights.MinimumScore
	if opts.MinMatchSet {
		minMatch = opts.MinMatch
	}
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	pipe := prepare.NewPipeline(cfg.Similarity.KeepStopwords)
	pq := scoring.PrepareQuery(q, pipe)
	scorer := scoring.NewScorer(cfg)

	rec.Recordf("search", "query %q over %d candidates, minMatch %.2f", pq.Name, snap.Len(), minMatch)

	results := make([]Result, 0, limit)
	scored := 0
	for _, cand := range snap.Entities() {
		if opts.Source != "" && cand.Source != opts.Source {
			continue
		}
		if opts.Type != "" && cand.Type != opts.Type {
			continue
		}
		scored++
		b := scorer.Score(pq, cand, rec)
		if b.TotalWeightedScore < minMatch {
			continue
		}
		results = append(results, Result{Entity: cand, Score: b.TotalWeightedScore, Breakdown: b})
	}

	// Total order: score descending, then entity id ascending, so equal
	// scores come back in a reproducible order.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entity.ID < results[j].Entity.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}

	rec.Recordf("search", "scored %d candidates, %d at or above floor", scored, len(results))
	return results, nil
}
