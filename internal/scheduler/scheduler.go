// Package scheduler owns the in-process order timeout registry. A timer is
// lost on crash; the persisted order_timeout column is the durable schedule
// and is replayed through the order service on startup.
package scheduler

import (
	"sync"
	"time"
)

// Timer is the cancellable handle returned by a Clock.
type Timer interface {
	Stop() bool
}

// Clock abstracts timer creation so tests can fire timeouts deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewRealClock returns a Clock backed by the time package.
func NewRealClock() Clock { return realClock{} }

// TimeoutHandler is invoked when an order's timer fires. The handler is
// responsible for re-checking current order state; a late fire against an
// already-resolved order must be a no-op at that level.
type TimeoutHandler func(orderID int64)

// OrderTimeoutScheduler keeps at most one pending timer per order id.
type OrderTimeoutScheduler struct {
	mu      sync.Mutex
	timers  map[int64]Timer
	clock   Clock
	handler TimeoutHandler
	closed  bool
}

// New creates a scheduler using the given clock. Bind must be called before
// the first Arm.
func New(clock Clock) *OrderTimeoutScheduler {
	return &OrderTimeoutScheduler{
		timers: make(map[int64]Timer),
		clock:  clock,
	}
}

// Bind sets the fire handler. Wiring calls this once after the order service
// is constructed, breaking the scheduler/service construction cycle.
func (s *OrderTimeoutScheduler) Bind(handler TimeoutHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Arm schedules an auto-cancel for the order after d, replacing any timer
// already pending for the same id.
func (s *OrderTimeoutScheduler) Arm(orderID int64, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if existing, ok := s.timers[orderID]; ok {
		existing.Stop()
	}
	s.timers[orderID] = s.clock.AfterFunc(d, func() {
		s.fire(orderID)
	})
}

// Disarm cancels the order's pending timer. Calling it for an id with no
// timer is a no-op.
func (s *OrderTimeoutScheduler) Disarm(orderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[orderID]; ok {
		existing.Stop()
		delete(s.timers, orderID)
	}
}

func (s *OrderTimeoutScheduler) fire(orderID int64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, orderID)
	handler := s.handler
	s.mu.Unlock()

	if handler != nil {
		handler(orderID)
	}
}

// Active returns the order ids with a pending timer, for monitoring.
func (s *OrderTimeoutScheduler) Active() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown cancels all pending timers without firing them. Persisted state is
// untouched; the next boot reconciles it from the stored deadlines.
func (s *OrderTimeoutScheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
