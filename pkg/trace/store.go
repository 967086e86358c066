package trace

import (
	"context"
	"sync"
	"time"
)

// Report is a finished trace retained for later retrieval.
type Report struct {
	RequestID string    `json:"requestId"`
	CreatedAt time.Time `json:"createdAt"`
	Events    []Event   `json:"events"`
}

// Store holds recent reports keyed by request id. Capacity is bounded two
// ways: reports expire after the TTL, and when the record cap is hit the
// oldest report is evicted first.
type Store struct {
	ttl        time.Duration
	maxRecords int

	mu      sync.Mutex
	reports map[string]*Report
	order   []string
}

// NewStore returns a store keeping reports for ttl, at most maxRecords at a
// time. A non-positive maxRecords disables the cap.
func NewStore(ttl time.Duration, maxRecords int) *Store {
	return &Store{
		ttl:        ttl,
		maxRecords: maxRecords,
		reports:    make(map[string]*Report),
	}
}

// Save materializes the recorder into a report. Nil recorders are ignored.
func (s *Store) Save(r *Recorder) {
	if s == nil || r == nil {
		return
	}
	report := &Report{
		RequestID: r.RequestID(),
		CreatedAt: time.Now(),
		Events:    r.Events(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[report.RequestID]; !exists {
		s.order = append(s.order, report.RequestID)
	}
	s.reports[report.RequestID] = report
	s.evictLocked(time.Now())
}

// Get returns the report for a request id if it exists and has not expired.
func (s *Store) Get(requestID string) (*Report, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[requestID]
	if !ok {
		return nil, false
	}
	if time.Since(report.CreatedAt) > s.ttl {
		return nil, false
	}
	return report, true
}

// Len reports the number of retained reports, expired ones included until
// the next sweep.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// RunSweeper evicts expired reports on the given interval until the context
// is cancelled. Call it in a goroutine at startup.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			s.evictLocked(now)
			s.mu.Unlock()
		}
	}
}

// evictLocked drops expired reports from the head of the FIFO, then enforces
// the record cap. Callers hold s.mu.
func (s *Store) evictLocked(now time.Time) {
	cutoff := now.Add(-s.ttl)
	keep := 0
	for _, id := range s.order {
		report, ok := s.reports[id]
		if !ok {
			continue
		}
		if report.CreatedAt.Before(cutoff) {
			delete(s.reports, id)
			continue
		}
		s.order[keep] = id
		keep++
	}
	s.order = s.order[:keep]

	if s.maxRecords <= 0 {
		return
	}
	for len(s.order) > s.maxRecords {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
}
