// Package trace captures per-request scoring diagnostics. A nil *Recorder is
// the disabled mode: every method is a nil-safe no-op, so callers pass
// recorders through unconditionally and pay one pointer check when tracing
// is off. Captured reports live in a bounded in-memory store with a TTL.
package trace

import (
	"fmt"
	"sync"
	"time"
)

// Event is one recorded phase step with its offset from request start.
type Event struct {
	Phase     string `json:"phase"`
	Detail    string `json:"detail"`
	ElapsedUs int64  `json:"elapsedUs"`
}

// Recorder buffers events for a single request. Safe for concurrent use;
// batch workers may share one recorder across items.
type Recorder struct {
	requestID string
	start     time.Time

	mu     sync.Mutex
	events []Event
}

// New returns an enabled recorder for the given request id.
func New(requestID string) *Recorder {
	return &Recorder{requestID: requestID, start: time.Now()}
}

// Enabled reports whether events are being captured.
func (r *Recorder) Enabled() bool {
	return r != nil
}

// Recordf appends a formatted event. No-op on a nil recorder; the format
// arguments are not evaluated into a string in that case.
func (r *Recorder) Recordf(phase, format string, args ...any) {
	if r == nil {
		return
	}
	detail := fmt.Sprintf(format, args...)
	elapsed := time.Since(r.start).Microseconds()
	r.mu.Lock()
	r.events = append(r.events, Event{Phase: phase, Detail: detail, ElapsedUs: elapsed})
	r.mu.Unlock()
}

// RequestID returns the id the recorder was created with, or "" when nil.
func (r *Recorder) RequestID() string {
	if r == nil {
		return ""
	}
	return r.requestID
}

// Events returns a copy of the captured events in record order.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
