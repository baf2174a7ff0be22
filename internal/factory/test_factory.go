package factory

import (
	"log/slog"
	"time"

	"github.com/acrofts/digitduel/internal/dependencies/mocks"
	"github.com/acrofts/digitduel/internal/realtime"
	rtmemory "github.com/acrofts/digitduel/internal/realtime/memory"
	"github.com/acrofts/digitduel/internal/services/auth"
	"github.com/acrofts/digitduel/internal/storage/memory"
	"github.com/acrofts/digitduel/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Broker is the in-process realtime transport, exposed so tests can
	// build per-client registries over it
	Broker *rtmemory.Broker

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	broker := rtmemory.NewBroker()
	mockClock := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, broker, mockClock, mockRandom, auth.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		Broker:     broker,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// NewClientRegistry returns a fresh channel registry over the shared
// transport. Each simulated client process needs its own registry so
// handlers are wired per client rather than per topic.
func (t *TestApp) NewClientRegistry(logger *slog.Logger) *realtime.Registry {
	if logger == nil {
		logger = testutil.NopLogger()
	}
	return realtime.NewRegistry(t.Transport, logger)
}
