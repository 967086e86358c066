package index

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sentriq/screend/pkg/config"
	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/prepare"
)

// Index is the read-many / write-once-per-refresh entity store. Readers call
// Snapshot and keep the returned pointer for the duration of one search;
// Replace publishes a fully prepared new generation.
type Index struct {
	cfg    *config.Store
	logger *slog.Logger
	live   atomic.Pointer[Snapshot]
}

// New returns an index starting from an empty snapshot. The config store
// supplies the stop-word toggle the prepare pipeline runs under.
func New(cfg *config.Store, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	idx := &Index{cfg: cfg, logger: logger}
	idx.live.Store(&Snapshot{sourceCounts: map[entity.Source]int{}})
	return idx
}

// Snapshot returns the live generation. The result is immutable; a
// concurrent Replace never alters it.
func (x *Index) Snapshot() *Snapshot {
	return x.live.Load()
}

// Len reports the live snapshot's size.
func (x *Index) Len() int {
	return x.Snapshot().Len()
}

// Replace prepares every entity and atomically swaps the new generation in.
// Parsers deliver raw records; preparation is owned here so they never need
// to know normalization rules. Entities without an id or a primary name are
// dropped with a warning rather than indexed unmatchable.
//
// Replace never writes to its input: callers may pass records that are still
// referenced by the previous live snapshot (the refresher carries a failed
// source's records forward), so each indexed entity is a fresh copy.
func (x *Index) Replace(entities []*entity.Entity) {
	pipe := prepare.NewPipeline(x.cfg.Snapshot().Similarity.KeepStopwords)

	next := &Snapshot{
		entities:     make([]*entity.Entity, 0, len(entities)),
		sourceCounts: make(map[entity.Source]int, 4),
		builtAt:      time.Now(),
	}
	dropped := 0
	for _, e := range entities {
		if e == nil || e.ID == "" || e.PrimaryName == "" {
			dropped++
			continue
		}
		clone := *e
		clone.Prepared = pipe.Prepare(&clone)
		next.entities = append(next.entities, &clone)
		next.sourceCounts[clone.Source]++
	}

	x.live.Store(next)
	x.logger.Info("index replaced",
		"entities", len(next.entities),
		"dropped", dropped,
		"sources", len(next.sourceCounts))
}
