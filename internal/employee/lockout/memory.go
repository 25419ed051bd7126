package lockout

import (
	"context"
	"sync"
	"time"
)

type failureWindow struct {
	count     int64
	expiresAt time.Time
}

// InMemory is the lockout Store used when Redis is not configured. Suitable
// for a single instance only.
type InMemory struct {
	mu       sync.Mutex
	failures map[string]*failureWindow
	locks    map[string]time.Time
	now      func() time.Time
}

type InMemoryOption func(*InMemory)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemory) { s.now = now }
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		failures: make(map[string]*failureWindow),
		locks:    make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) RecordFailure(_ context.Context, employeeID string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	fw, ok := s.failures[employeeID]
	if !ok || now.After(fw.expiresAt) {
		fw = &failureWindow{expiresAt: now.Add(window)}
		s.failures[employeeID] = fw
	}
	fw.count++
	return fw.count, nil
}

func (s *InMemory) Lock(_ context.Context, employeeID string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locks[employeeID] = s.now().Add(duration)
	return nil
}

func (s *InMemory) IsLocked(_ context.Context, employeeID string) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.locks[employeeID]
	if !ok {
		return false, 0, nil
	}
	remaining := until.Sub(s.now())
	if remaining <= 0 {
		delete(s.locks, employeeID)
		return false, 0, nil
	}
	return true, remaining, nil
}

func (s *InMemory) Clear(_ context.Context, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.failures, employeeID)
	delete(s.locks, employeeID)
	return nil
}
