package config

import "sync/atomic"

// Store holds the live scoring config behind an atomic pointer. Readers get
// a consistent value snapshot; writers validate and swap whole objects, so a
// scorer can never observe weights from two different generations.
type Store struct {
	current  atomic.Pointer[ScoreConfig]
	defaults ScoreConfig
}

// NewStore creates a store seeded with cfg; cfg also becomes the reset
// target.
func NewStore(cfg ScoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Store{defaults: cfg}
	s.current.Store(&cfg)
	return s, nil
}

// Snapshot returns a copy of the live config. ScoreConfig is all value
// fields, so the copy is immutable from the store's point of view.
func (s *Store) Snapshot() ScoreConfig {
	return *s.current.Load()
}

// Replace validates cfg and makes it live.
func (s *Store) Replace(cfg ScoreConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.current.Store(&cfg)
	return nil
}

// UpdateSimilarity swaps in new similarity knobs, keeping the live weights.
func (s *Store) UpdateSimilarity(sim SimilarityConfig) error {
	for {
		old := s.current.Load()
		next := *old
		next.Similarity = sim
		if err := next.Validate(); err != nil {
			return err
		}
		if s.current.CompareAndSwap(old, &next) {
			return nil
		}
	}
}

// UpdateWeights swaps in new scorer weights, keeping the live similarity
// knobs.
func (s *Store) UpdateWeights(w WeightConfig) error {
	for {
		old := s.current.Load()
		next := *old
		next.Weights = w
		if err := next.Validate(); err != nil {
			return err
		}
		if s.current.CompareAndSwap(old, &next) {
			return nil
		}
	}
}

// Reset restores the config the store was created with.
func (s *Store) Reset() {
	cfg := s.defaults
	s.current.Store(&cfg)
}
