// Package schedule realises delayed character events: read receipts and
// replies whose latency depends on trust.
package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Timer interface {
	Stop() bool
}

// Clock abstracts timer creation so tests can drive time by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock is the wall clock backed by time.AfterFunc.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*Scheduler)

func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.log = logger
		}
	}
}

type pending struct {
	thread string
	timer  Timer
}

// Scheduler owns every outstanding timer of one play session. Timers are
// grouped by thread so a conversation can be cancelled as a unit.
type Scheduler struct {
	clock Clock
	log   *zap.Logger

	mu      sync.Mutex
	timers  map[uint64]pending
	nextID  uint64
	closed  bool
	active  int
	running sync.WaitGroup

	// settled is closed whenever the scheduler is idle and replaced when
	// work arrives.
	settled chan struct{}
	idle    bool
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:   realClock{},
		log:     zap.NewNop(),
		timers:  make(map[uint64]pending),
		settled: make(chan struct{}),
		idle:    true,
	}
	close(s.settled)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// After runs fn once d has elapsed unless the thread is cancelled first.
// It reports false when the scheduler is already closed.
func (s *Scheduler) After(thread string, d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	s.markBusyLocked()
	s.nextID++
	id := s.nextID
	s.timers[id] = pending{
		thread: thread,
		timer: s.clock.AfterFunc(d, func() {
			if !s.claim(id) {
				return
			}
			defer s.release()
			fn()
		}),
	}
	s.log.Debug("scheduled event", zap.String("thread", thread), zap.Duration("delay", d))
	return true
}

// claim removes a fired timer and marks its callback as running. A timer
// that was cancelled concurrently is not run.
func (s *Scheduler) claim(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[id]; !ok || s.closed {
		return false
	}
	delete(s.timers, id)
	s.active++
	s.running.Add(1)
	return true
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.active--
	s.markIdleLocked()
	s.mu.Unlock()
	s.running.Done()
}

// Cancel stops every pending event of a thread and returns how many were
// stopped.
func (s *Scheduler) Cancel(thread string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	stopped := 0
	for id, p := range s.timers {
		if p.thread != thread {
			continue
		}
		p.timer.Stop()
		delete(s.timers, id)
		stopped++
	}
	s.markIdleLocked()
	if stopped > 0 {
		s.log.Debug("cancelled events", zap.String("thread", thread), zap.Int("count", stopped))
	}
	return stopped
}

// Pending reports how many events are waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Idle reports whether nothing is waiting to fire or running. Events
// scheduled from inside a callback keep the scheduler busy.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

// WaitIdle blocks until the scheduler is idle or ctx is done.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	settled := s.settled
	s.mu.Unlock()

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) markBusyLocked() {
	if s.idle {
		s.idle = false
		s.settled = make(chan struct{})
	}
}

func (s *Scheduler) markIdleLocked() {
	if !s.idle && len(s.timers) == 0 && s.active == 0 {
		s.idle = true
		close(s.settled)
	}
}

// Close stops every pending event, rejects new ones and waits for callbacks
// that are already running.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, id)
	}
	s.markIdleLocked()
	s.mu.Unlock()

	s.running.Wait()
	s.log.Debug("scheduler closed")
}
