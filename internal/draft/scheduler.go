package draft

import (
	"sync"
	"time"
)

// Scheduler is a single-owner, cancelable delay primitive.
//
// Arm schedules exactly one future fire, canceling any fire still
// pending from a previous Arm. Cancel guarantees a previously armed
// fire never runs, even when cancellation and firing race: every
// Arm/Cancel bumps a generation counter, and a fire whose generation
// is stale is dropped.
//
// The callback receives the generation it was armed with so the owner
// can re-check Valid under its own lock before acting; the check inside
// dispatch alone is not enough, because the owner may re-arm or cancel
// between that check and the callback acquiring the owner's lock.
type Scheduler struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
	fn    func(gen uint64)
}

// NewScheduler creates a scheduler that calls fn when an armed delay elapses.
func NewScheduler(fn func(gen uint64)) *Scheduler {
	return &Scheduler{fn: fn}
}

// Arm schedules fn to run after d, replacing any pending fire.
func (s *Scheduler) Arm(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(d, func() {
		s.dispatch(gen)
	})
}

// Cancel drops any pending fire. Safe to call when nothing is armed.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Valid reports whether gen is still the live generation.
func (s *Scheduler) Valid(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

func (s *Scheduler) dispatch(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.fn(gen)
}
