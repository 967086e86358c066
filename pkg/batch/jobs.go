package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound reports an unknown or expired async job id.
var ErrJobNotFound = errors.New("batch job not found")

// JobStatus is the async job state machine.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// Job is the queryable state of one async batch. Response is set only once
// the job reaches a terminal state.
type Job struct {
	ID          string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	ItemCount   int        `json:"itemCount"`
	SubmittedAt time.Time  `json:"submittedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
	Response    *Response  `json:"response,omitempty"`
}

// jobEntry pairs the published job state with its cancel hook.
type jobEntry struct {
	job    Job
	cancel context.CancelFunc
}

// JobStore runs async batches and keeps finished jobs queryable until the
// TTL expires. All state is in-memory; a restart forgets every job.
type JobStore struct {
	exec    *Executor
	ttl     time.Duration
	timeout time.Duration

	mu   sync.Mutex
	jobs map[string]*jobEntry
}

// NewJobStore returns a store executing jobs on exec. Finished jobs stay
// queryable for ttl; a non-zero timeout bounds each job's wall clock.
func NewJobStore(exec *Executor, ttl, timeout time.Duration) *JobStore {
	return &JobStore{
		exec:    exec,
		ttl:     ttl,
		timeout: timeout,
		jobs:    make(map[string]*jobEntry),
	}
}

// Submit validates the batch, registers a PENDING job, and starts it in the
// background. The returned job snapshot carries the id callers poll with.
func (s *JobStore) Submit(ctx context.Context, req Request) (Job, error) {
	if len(req.Items) == 0 {
		return Job{}, ErrEmptyBatch
	}
	if s.exec.maxSize > 0 && len(req.Items) > s.exec.maxSize {
		return Job{}, ErrBatchTooLarge
	}

	// The job outlives the submitting request, so it detaches from the
	// request context and carries its own cancel.
	base := context.WithoutCancel(ctx)
	var jobCtx context.Context
	var cancel context.CancelFunc
	if s.timeout > 0 {
		jobCtx, cancel = context.WithTimeout(base, s.timeout)
	} else {
		jobCtx, cancel = context.WithCancel(base)
	}

	entry := &jobEntry{
		job: Job{
			ID:          uuid.NewString(),
			Status:      JobPending,
			ItemCount:   len(req.Items),
			SubmittedAt: time.Now(),
		},
		cancel: cancel,
	}

	s.mu.Lock()
	s.jobs[entry.job.ID] = entry
	s.mu.Unlock()

	go s.run(jobCtx, cancel, entry.job.ID, req)
	return entry.job, nil
}

// run executes the batch and publishes the terminal state.
func (s *JobStore) run(ctx context.Context, cancel context.CancelFunc, id string, req Request) {
	defer cancel()

	s.transition(id, func(j *Job) {
		if j.Status == JobPending {
			j.Status = JobRunning
		}
	})

	resp, err := s.exec.Screen(ctx, req, nil)
	now := time.Now()
	s.transition(id, func(j *Job) {
		j.CompletedAt = &now
		switch {
		case j.Status == JobCancelled:
			// Cancel won the race; keep the partial response for inspection.
			j.Response = resp
		case err != nil:
			j.Status = JobFailed
			j.Error = err.Error()
		case ctx.Err() != nil:
			j.Status = JobCancelled
			j.Response = resp
		default:
			j.Status = JobCompleted
			j.Response = resp
		}
	})
}

// transition mutates the job under the lock; no-op for unknown ids.
func (s *JobStore) transition(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.jobs[id]; ok {
		fn(&entry.job)
	}
}

// Get returns a snapshot of the job's current state.
func (s *JobStore) Get(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return entry.job, nil
}

// Cancel requests cooperative cancellation: in-flight items finish, no new
// items start. Terminal jobs are left untouched.
func (s *JobStore) Cancel(id string) (Job, error) {
	s.mu.Lock()
	entry, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return Job{}, ErrJobNotFound
	}
	if entry.job.Status == JobPending || entry.job.Status == JobRunning {
		entry.job.Status = JobCancelled
	}
	job := entry.job
	cancel := entry.cancel
	s.mu.Unlock()

	cancel()
	return job, nil
}

// Len reports the number of retained jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// RunSweeper drops expired terminal jobs on the given interval until the
// context is cancelled.
func (s *JobStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep removes terminal jobs whose completion is older than the TTL.
func (s *JobStore) sweep(now time.Time) {
	cutoff := now.Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.jobs {
		if entry.job.CompletedAt != nil && entry.job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}
