// Package clock provides the wall clock used to time crawl runs, plus a manual clock for tests.
package clock

import (
	"sync"
	"time"
)

// System reads the real UTC time.
type System struct{}

// Now returns the current time in UTC.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a clock that only moves when told to. Each call to Now advances it by Step.
type Manual struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time, step time.Duration) *Manual {
	return &Manual{now: start, Step: step}
}

// Now returns the current reading and then advances by Step.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.now
	m.now = m.now.Add(m.Step)
	return t
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
