// Package download runs single-flight video downloads: one job at a time,
// with progress tracking and cleanup of intermediate files on every exit.
package download

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	fileutil "vidbrief/internal/file"
	"vidbrief/internal/guard"
	"vidbrief/internal/metrics"
	"vidbrief/internal/progress"
)

// Service orchestrates downloads. It is safe for concurrent use; concurrent
// calls to Run beyond the first are rejected with ErrBusy.
type Service struct {
	mu      sync.RWMutex
	opts    Options
	baseCtx context.Context
	active  *Job
	last    *Finished

	// inflight counts running jobs; idle is closed when it drops to zero.
	inflight int
	idle     chan struct{}
}

// NewService creates a service, filling unset options with defaults.
func NewService(opts Options) *Service {
	if opts.Tracker == nil {
		opts.Tracker = progress.NewTracker()
	}
	if opts.Guard == nil {
		opts.Guard = guard.New(0)
	}
	if opts.Janitor == nil {
		opts.Janitor = fileutil.NewJanitor()
	}
	if opts.Grace < 0 {
		opts.Grace = 0
	}
	idle := make(chan struct{})
	close(idle)
	return &Service{opts: opts, baseCtx: context.Background(), idle: idle}
}

// Tracker returns the progress tracker updated by running jobs.
func (s *Service) Tracker() *progress.Tracker {
	return s.opts.Tracker
}

// Busy reports whether a download currently holds the guard.
func (s *Service) Busy() bool {
	return s.opts.Guard.Busy()
}

// SetBaseContext sets the context that bounds extractor fetches. Intended to
// be set at startup and cancelled during shutdown.
func (s *Service) SetBaseContext(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
}

// WaitIdle blocks until the in-flight job finishes or ctx is done. Returns
// true if the service went idle.
func (s *Service) WaitIdle(ctx context.Context) bool {
	s.mu.RLock()
	idle := s.idle
	s.mu.RUnlock()
	select {
	case <-idle:
		return true
	default:
	}
	select {
	case <-idle:
		return true
	case <-ctx.Done():
		return false
	}
}

// Status returns the active job, current progress and last finished job.
func (s *Service) Status() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Progress: s.opts.Tracker.Read()}
	if s.active != nil {
		job := *s.active
		snap.Active = true
		snap.Job = &job
	}
	if s.last != nil {
		last := *s.last
		snap.Last = &last
	}
	return snap
}

func (s *Service) baseContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.baseCtx == nil {
		return context.Background()
	}
	return s.baseCtx
}

func (s *Service) begin(url, dir string) Job {
	job := Job{ID: uuid.NewString(), URL: url, Dir: dir, StartedAt: time.Now()}
	s.mu.Lock()
	s.active = &job
	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++
	s.mu.Unlock()
	return job
}

// finish records the result. A job that lost the guard to a stale reclaim
// passes record=false so it does not overwrite the current job's state.
func (s *Service) finish(job Job, result Result, record bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record {
		if s.active != nil && s.active.ID == job.ID {
			s.active = nil
		}
		s.last = &Finished{Job: job, Result: result, FinishedAt: time.Now()}
	}
	s.inflight--
	if s.inflight == 0 {
		close(s.idle)
	}
}

func (s *Service) cleanup(dir string) {
	if n := s.opts.Janitor.Cleanup(dir); n > 0 {
		metrics.TempFilesRemovedTotal.Add(float64(n))
	}
}
