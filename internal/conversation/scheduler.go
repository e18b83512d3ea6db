package conversation

import (
	"context"
	"sync"
	"time"
)

// Timer is a pending deferred call
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through
// RealAfterFunc; tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc runs f on a runtime timer
func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Scheduler runs deferred tasks until it is torn down. After Teardown no
// scheduled task runs, including ones whose timer already fired.
type Scheduler struct {
	mu      sync.Mutex
	after   AfterFunc
	ctx     context.Context
	cancel  context.CancelFunc
	pending map[Timer]struct{}
}

// NewScheduler returns a live scheduler; nil after means RealAfterFunc
func NewScheduler(after AfterFunc) *Scheduler {
	if after == nil {
		after = RealAfterFunc
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		after:   after,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[Timer]struct{}),
	}
}

// After schedules fn. It is a no-op once the scheduler is torn down.
func (s *Scheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}

	var t Timer
	fired := make(chan struct{})
	t = s.after(d, func() {
		<-fired
		s.mu.Lock()
		delete(s.pending, t)
		live := s.ctx.Err() == nil
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	s.pending[t] = struct{}{}
	close(fired)
}

// Pending returns the number of tasks not yet run
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Done is closed on teardown
func (s *Scheduler) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Teardown stops every pending task and rejects new ones
func (s *Scheduler) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	for t := range s.pending {
		t.Stop()
	}
	s.pending = make(map[Timer]struct{})
}
