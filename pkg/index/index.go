// Package index holds the in-memory corpus of prepared entities. The live
// corpus is a single immutable snapshot behind an atomic pointer: refreshes
// build a complete replacement and swap it in one store, so a search that
// grabbed the old snapshot keeps iterating it undisturbed.
package index

import (
	"time"

	"github.com/sentriq/screend/pkg/entity"
)

// Snapshot is one immutable generation of the corpus. All fields are written
// before publication and never after.
type Snapshot struct {
	entities     []*entity.Entity
	sourceCounts map[entity.Source]int
	builtAt      time.Time
}

// Entities returns the snapshot's records. Callers must not mutate them.
func (s *Snapshot) Entities() []*entity.Entity {
	if s == nil {
		return nil
	}
	return s.entities
}

// Len reports the number of entities in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entities)
}

// SourceCount reports how many entities the snapshot holds for one source.
func (s *Snapshot) SourceCount(src entity.Source) int {
	if s == nil {
		return 0
	}
	return s.sourceCounts[src]
}

// BuiltAt reports when the snapshot was assembled; zero for the empty
// initial snapshot.
func (s *Snapshot) BuiltAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.builtAt
}
