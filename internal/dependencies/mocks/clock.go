package mocks

import (
	"time"

	"github.com/acrofts/digitduel/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing
type MockClock struct {
	CurrentTime time.Time

	tickers []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

// NewTicker returns a ticker that only fires when Tick is called
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	t := &MockTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.CurrentTime = t
}

// Tick fires every ticker created by this clock once
func (c *MockClock) Tick() {
	for _, t := range c.tickers {
		t.Tick(c.CurrentTime)
	}
}

// MockTicker is a manually-driven ticker
type MockTicker struct {
	ch      chan time.Time
	stopped bool
}

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time {
	return t.ch
}

// Stop marks the ticker stopped; subsequent Tick calls are dropped
func (t *MockTicker) Stop() {
	t.stopped = true
}

// Tick delivers one tick at the given time unless the ticker is stopped
func (t *MockTicker) Tick(at time.Time) {
	if t.stopped {
		return
	}
	select {
	case t.ch <- at:
	default:
	}
}
