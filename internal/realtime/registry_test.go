package realtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/realtime"
	"github.com/acrofts/digitduel/internal/realtime/memory"
	"github.com/acrofts/digitduel/internal/testutil"
)

type RegistryTestSuite struct {
	suite.Suite
	registry *realtime.Registry
}

func (s *RegistryTestSuite) SetupTest() {
	s.registry = realtime.NewRegistry(memory.NewBroker(), testutil.NopLogger())
}

func (s *RegistryTestSuite) TestAcquireSharesInstance() {
	first, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)

	second, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal(2, s.registry.RefCount("match:abc"))
}

func (s *RegistryTestSuite) TestDistinctTopicsGetDistinctChannels() {
	first, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)

	second, err := s.registry.Acquire("match:def")
	s.Require().NoError(err)

	s.NotSame(first, second)
	s.Equal(1, s.registry.RefCount("match:abc"))
	s.Equal(1, s.registry.RefCount("match:def"))
}

func (s *RegistryTestSuite) TestReleaseDestroysAtZero() {
	_, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)
	first, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)

	s.registry.Release("match:abc")
	s.Equal(1, s.registry.RefCount("match:abc"))

	s.registry.Release("match:abc")
	s.Equal(0, s.registry.RefCount("match:abc"))

	// A fresh acquire creates a new instance
	second, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)
	s.NotSame(first, second)
}

func (s *RegistryTestSuite) TestReleaseNeverGoesNegative() {
	s.registry.Release("match:abc")
	s.Equal(0, s.registry.RefCount("match:abc"))

	_, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)
	s.registry.Release("match:abc")
	s.registry.Release("match:abc")
	s.Equal(0, s.registry.RefCount("match:abc"))

	_, err = s.registry.Acquire("match:abc")
	s.Require().NoError(err)
	s.Equal(1, s.registry.RefCount("match:abc"))
}

func (s *RegistryTestSuite) TestWireOnceRunsOncePerInstance() {
	_, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)

	wired := 0
	wire := func(realtime.Channel) { wired++ }

	s.registry.WireOnce("match:abc", wire)
	s.registry.WireOnce("match:abc", wire)
	s.Equal(1, wired)

	// Destroying and recreating the channel wires it afresh
	s.registry.Release("match:abc")
	_, err = s.registry.Acquire("match:abc")
	s.Require().NoError(err)
	s.registry.WireOnce("match:abc", wire)
	s.Equal(2, wired)
}

func (s *RegistryTestSuite) TestWireOnceUnknownTopicIsNoop() {
	wired := 0
	s.registry.WireOnce("match:missing", func(realtime.Channel) { wired++ })
	s.Equal(0, wired)
}

func (s *RegistryTestSuite) TestForceDestroyIgnoresRefCount() {
	ch, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)
	_, err = s.registry.Acquire("match:abc")
	s.Require().NoError(err)

	s.registry.ForceDestroy("match:abc")
	s.Equal(0, s.registry.RefCount("match:abc"))

	fresh, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)
	s.NotSame(ch, fresh)
}

func (s *RegistryTestSuite) TestHandlersSurviveSecondAcquire() {
	ch, err := s.registry.Acquire("match:abc")
	s.Require().NoError(err)

	received := 0
	s.registry.WireOnce("match:abc", func(c realtime.Channel) {
		c.Bind(model.EventGuessMade, func([]byte) { received++ })
	})

	// A second consumer acquiring and wiring must not double the handler
	_, err = s.registry.Acquire("match:abc")
	s.Require().NoError(err)
	s.registry.WireOnce("match:abc", func(c realtime.Channel) {
		c.Bind(model.EventGuessMade, func([]byte) { received++ })
	})

	err = ch.Publish(context.Background(), model.EventGuessMade, model.Notification{MatchID: "abc"})
	s.Require().NoError(err)
	s.Equal(1, received)
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}
