package data

import (
	"sync"
	"time"
)

// TimeProvider supplies the timestamps repositories write. Tests swap in a fixed clock.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reports the system time in UTC.
type RealTimeProvider struct{}

// Now returns the current UTC time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// FixedTimeProvider is a manually advanced clock.
type FixedTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedTimeProvider creates a FixedTimeProvider starting at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{now: t}
}

// Now returns the current fixed time.
func (f *FixedTimeProvider) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AddTime advances the clock by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
