package inmem

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edenforge/bazaar/internal/host"
)

// Scheduler is a single-goroutine main loop. All scheduled callbacks run on
// the loop goroutine, one at a time, matching the host threading model the
// core is written for.
type Scheduler struct {
	queue  chan func()
	stopCh chan struct{}
	once   sync.Once
}

// NewScheduler creates a scheduler. Start must be called before any
// callback runs.
func NewScheduler() *Scheduler {
	return &Scheduler{
		queue:  make(chan func(), 256),
		stopCh: make(chan struct{}),
	}
}

// Start runs the main loop until the context is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case fn := <-s.queue:
			s.invoke(fn)
		}
	}
}

// Stop stops the main loop.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

// invoke runs one callback, recovering panics at the loop boundary.
func (s *Scheduler) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in scheduled task", "panic", r)
		}
	}()
	fn()
}

// Run executes fn on the main loop as soon as possible.
func (s *Scheduler) Run(fn func()) {
	select {
	case s.queue <- fn:
	case <-s.stopCh:
	}
}

// RunLater executes fn once after d.
func (s *Scheduler) RunLater(d time.Duration, fn func()) host.Task {
	t := &task{}
	t.timer = time.AfterFunc(d, func() {
		if t.Cancelled() {
			return
		}
		s.Run(func() {
			if !t.Cancelled() {
				fn()
			}
		})
	})
	return t
}

// RunTimer executes fn every period, first after initial.
func (s *Scheduler) RunTimer(initial, period time.Duration, fn func()) host.Task {
	t := &task{}
	var arm func(d time.Duration)
	arm = func(d time.Duration) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.Cancelled() {
			return
		}
		t.timer = time.AfterFunc(d, func() {
			if t.Cancelled() {
				return
			}
			s.Run(func() {
				if t.Cancelled() {
					return
				}
				fn()
			})
			arm(period)
		})
	}
	arm(initial)
	return t
}

// task is a cancellable timer handle.
type task struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled atomic.Bool
}

func (t *task) Cancel() {
	if t.cancelled.Swap(true) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *task) Cancelled() bool {
	return t.cancelled.Load()
}
