package memory_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/realtime"
	"github.com/acrofts/digitduel/internal/realtime/memory"
)

type BrokerTestSuite struct {
	suite.Suite
	broker *memory.Broker
	ctx    context.Context
}

func (s *BrokerTestSuite) SetupTest() {
	s.broker = memory.NewBroker()
	s.ctx = context.Background()
}

func (s *BrokerTestSuite) open(topic string) realtime.Channel {
	ch, err := s.broker.Channel(topic)
	s.Require().NoError(err)
	return ch
}

func (s *BrokerTestSuite) TestPublishReachesAllSubscribersIncludingSender() {
	a := s.open("match:m1")
	b := s.open("match:m1")

	var got []model.MatchID
	handler := func(payload []byte) {
		var n model.Notification
		s.Require().NoError(json.Unmarshal(payload, &n))
		got = append(got, n.MatchID)
	}
	a.Bind(model.EventGuessMade, handler)
	b.Bind(model.EventGuessMade, handler)

	err := a.Publish(s.ctx, model.EventGuessMade, model.Notification{MatchID: "m1"})
	s.Require().NoError(err)

	s.Equal([]model.MatchID{"m1", "m1"}, got)
}

func (s *BrokerTestSuite) TestPublishDoesNotCrossTopics() {
	a := s.open("match:m1")
	b := s.open("match:m2")

	received := 0
	b.Bind(model.EventGuessMade, func([]byte) { received++ })

	err := a.Publish(s.ctx, model.EventGuessMade, model.Notification{MatchID: "m1"})
	s.Require().NoError(err)
	s.Equal(0, received)
}

func (s *BrokerTestSuite) TestUnboundEventIsDropped() {
	a := s.open("match:m1")
	a.Bind(model.EventPlayerReady, func([]byte) { s.Fail("wrong handler invoked") })

	err := a.Publish(s.ctx, model.EventGuessMade, model.Notification{MatchID: "m1"})
	s.Require().NoError(err)
}

func (s *BrokerTestSuite) TestClosedChannelStopsReceiving() {
	a := s.open("match:m1")
	b := s.open("match:m1")

	received := 0
	b.Bind(model.EventGuessMade, func([]byte) { received++ })
	s.Require().NoError(b.Close())

	err := a.Publish(s.ctx, model.EventGuessMade, model.Notification{MatchID: "m1"})
	s.Require().NoError(err)
	s.Equal(0, received)
}

func (s *BrokerTestSuite) TestPresenceTrackAndState() {
	a := s.open(realtime.LobbyTopic)
	b := s.open(realtime.LobbyTopic)

	s.Require().NoError(a.Track(s.ctx, model.PresenceRecord{PlayerID: "p1", DisplayName: "Alice"}))
	s.Require().NoError(b.Track(s.ctx, model.PresenceRecord{PlayerID: "p2", DisplayName: "Bob"}))

	state, err := a.PresenceState(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(state, 2)
	s.Equal(model.PlayerID("p1"), state[0].PlayerID)
	s.Equal(model.PlayerID("p2"), state[1].PlayerID)
}

func (s *BrokerTestSuite) TestPresenceSyncFiresOnTrackAndClose() {
	a := s.open(realtime.LobbyTopic)
	b := s.open(realtime.LobbyTopic)

	syncs := 0
	a.OnPresenceSync(func() { syncs++ })

	s.Require().NoError(b.Track(s.ctx, model.PresenceRecord{PlayerID: "p2"}))
	s.Equal(1, syncs)

	s.Require().NoError(b.Close())
	s.Equal(2, syncs)

	state, err := a.PresenceState(s.ctx)
	s.Require().NoError(err)
	s.Empty(state)
}

func (s *BrokerTestSuite) TestCloseWithoutTrackDoesNotSync() {
	a := s.open(realtime.LobbyTopic)
	b := s.open(realtime.LobbyTopic)

	syncs := 0
	a.OnPresenceSync(func() { syncs++ })

	s.Require().NoError(b.Close())
	s.Equal(0, syncs)
}

func TestBrokerTestSuite(t *testing.T) {
	suite.Run(t, new(BrokerTestSuite))
}
