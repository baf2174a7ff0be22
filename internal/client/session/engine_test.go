package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/acrofts/digitduel/internal/client"
	"github.com/acrofts/digitduel/internal/client/session"
	"github.com/acrofts/digitduel/internal/dependencies/mocks"
	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/realtime"
	rtmemory "github.com/acrofts/digitduel/internal/realtime/memory"
	"github.com/acrofts/digitduel/internal/services/match"
	"github.com/acrofts/digitduel/internal/storage/memory"
	"github.com/acrofts/digitduel/internal/testutil"
)

const (
	playerOne = model.PlayerID("p1")
	playerTwo = model.PlayerID("p2")
)

// instrumentedBackend wraps a backend to count and gate reads
type instrumentedBackend struct {
	session.Backend

	mu              sync.Mutex
	fetchMatchCalls int
	submitCalls     int
	failReads       bool
	beforeFetch     func()
}

func (b *instrumentedBackend) FetchMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	b.mu.Lock()
	b.fetchMatchCalls++
	fail := b.failReads
	hook := b.beforeFetch
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if fail {
		return nil, context.DeadlineExceeded
	}
	return b.Backend.FetchMatch(ctx, id)
}

func (b *instrumentedBackend) SubmitGuess(ctx context.Context, id model.MatchID, value string) (*client.GuessResult, error) {
	b.mu.Lock()
	b.submitCalls++
	b.mu.Unlock()
	return b.Backend.SubmitGuess(ctx, id, value)
}

func (b *instrumentedBackend) matchCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetchMatchCalls
}

type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *mocks.MockClock
	random *mocks.MockRandom
	ctrl   *match.Controller
	broker *rtmemory.Broker

	backendOne *instrumentedBackend
	backendTwo *instrumentedBackend
	engineOne  *session.Engine
	engineTwo  *session.Engine

	matchID model.MatchID
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.random.QueueString("ABCD12")

	logger := testutil.NopLogger()
	store := memory.New()
	s.ctrl = match.NewController(store, s.clock, s.random, logger)
	s.broker = rtmemory.NewBroker()

	s.backendOne = &instrumentedBackend{Backend: client.NewLocalBackend(s.ctrl, playerOne)}
	s.backendTwo = &instrumentedBackend{Backend: client.NewLocalBackend(s.ctrl, playerTwo)}

	// Each player is a separate client process with its own registry
	s.engineOne = session.NewEngine(
		s.backendOne,
		realtime.NewRegistry(s.broker, logger),
		s.clock,
		model.PresenceRecord{PlayerID: playerOne, DisplayName: "Alice"},
		session.Config{},
		logger,
	)
	s.engineTwo = session.NewEngine(
		s.backendTwo,
		realtime.NewRegistry(s.broker, logger),
		s.clock,
		model.PresenceRecord{PlayerID: playerTwo, DisplayName: "Bob"},
		session.Config{},
		logger,
	)

	m, _, err := s.ctrl.CreateMatch(s.ctx, playerOne, "")
	s.Require().NoError(err)
	s.matchID = m.ID
}

// joinAndOpen brings both players into the match with open engines
func (s *EngineTestSuite) joinAndOpen() {
	_, err := s.ctrl.JoinMatch(s.ctx, s.matchID, playerTwo)
	s.Require().NoError(err)
	s.Require().NoError(s.engineOne.Open(s.ctx, s.matchID))
	s.Require().NoError(s.engineTwo.Open(s.ctx, s.matchID))
}

// startPlaying walks both players through secrets and ready, then starts.
// Player one always takes the first turn.
func (s *EngineTestSuite) startPlaying() {
	s.joinAndOpen()

	s.Require().NoError(s.engineOne.SetSecret(s.ctx, "1234"))
	s.Require().NoError(s.engineTwo.SetSecret(s.ctx, "5678"))
	s.Require().NoError(s.engineOne.SetReady(s.ctx))
	s.Require().NoError(s.engineTwo.SetReady(s.ctx))

	s.random.QueueIntn(0)
	s.Require().NoError(s.engineOne.Start(s.ctx))
}

func (s *EngineTestSuite) TestOpenLoadsInitialSnapshot() {
	s.Require().NoError(s.engineOne.Open(s.ctx, s.matchID))

	snap := s.engineOne.Snapshot()
	s.Require().NotNil(snap.Match)
	s.Equal(s.matchID, snap.Match.ID)
	s.Equal(model.MatchStatusWaiting, snap.Match.Status)
	s.Len(snap.Participants, 1)
	s.Empty(snap.Guesses)
}

func (s *EngineTestSuite) TestOpenDifferentMatchReleasesOldChannel() {
	registry := realtime.NewRegistry(s.broker, testutil.NopLogger())
	engine := session.NewEngine(
		s.backendOne,
		registry,
		s.clock,
		model.PresenceRecord{PlayerID: playerOne, DisplayName: "Alice"},
		session.Config{},
		testutil.NopLogger(),
	)

	s.Require().NoError(engine.Open(s.ctx, s.matchID))
	s.Equal(1, registry.RefCount(realtime.MatchTopic(s.matchID)))

	s.random.QueueString("EFGH34")
	second, _, err := s.ctrl.CreateMatch(s.ctx, playerOne, "")
	s.Require().NoError(err)
	s.Require().NoError(engine.Open(s.ctx, second.ID))

	// Moving on must not leave the first match's channel pinned
	s.Equal(0, registry.RefCount(realtime.MatchTopic(s.matchID)))
	s.Equal(1, registry.RefCount(realtime.MatchTopic(second.ID)))

	engine.Close()
	s.Equal(0, registry.RefCount(realtime.MatchTopic(second.ID)))
}

func (s *EngineTestSuite) TestPeerActionsPropagate() {
	s.joinAndOpen()

	// Player two readies up; player one's view converges through the
	// published notification alone
	s.Require().NoError(s.engineTwo.SetSecret(s.ctx, "5678"))
	s.Require().NoError(s.engineTwo.SetReady(s.ctx))

	snap := s.engineOne.Snapshot()
	s.Require().Len(snap.Participants, 2)
	for _, p := range snap.Participants {
		if p.PlayerID == playerTwo {
			s.True(p.Ready)
		}
	}
}

func (s *EngineTestSuite) TestRefreshIsAllOrNothing() {
	s.joinAndOpen()
	before := s.engineOne.Snapshot()

	s.backendOne.mu.Lock()
	s.backendOne.failReads = true
	s.backendOne.mu.Unlock()

	err := s.engineOne.Refresh(s.ctx)
	s.Require().Error(err)

	after := s.engineOne.Snapshot()
	s.Equal(before.Match, after.Match)
	s.Equal(before.Participants, after.Participants)
}

func (s *EngineTestSuite) TestLateRefreshDiscardedAfterClose() {
	s.Require().NoError(s.engineOne.Open(s.ctx, s.matchID))

	gate := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	s.backendOne.mu.Lock()
	s.backendOne.beforeFetch = func() {
		once.Do(func() {
			close(entered)
			<-gate
		})
	}
	s.backendOne.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = s.engineOne.Refresh(s.ctx)
		close(done)
	}()

	<-entered
	s.engineOne.Close()
	close(gate)
	<-done

	// The in-flight refresh must not resurrect the closed view
	s.Nil(s.engineOne.Snapshot().Match)
}

func (s *EngineTestSuite) TestStartRequiresCreator() {
	s.joinAndOpen()
	s.Require().NoError(s.engineOne.SetSecret(s.ctx, "1234"))
	s.Require().NoError(s.engineTwo.SetSecret(s.ctx, "5678"))
	s.Require().NoError(s.engineOne.SetReady(s.ctx))
	s.Require().NoError(s.engineTwo.SetReady(s.ctx))

	err := s.engineTwo.Start(s.ctx)
	s.Require().ErrorIs(err, model.ErrNotCreator)
}

func (s *EngineTestSuite) TestStartToleratesLosingTheRace() {
	s.joinAndOpen()
	s.Require().NoError(s.engineOne.SetSecret(s.ctx, "1234"))
	s.Require().NoError(s.engineTwo.SetSecret(s.ctx, "5678"))
	s.Require().NoError(s.engineOne.SetReady(s.ctx))
	s.Require().NoError(s.engineTwo.SetReady(s.ctx))

	// Someone else wins the start transition first
	s.random.QueueIntn(0)
	_, err := s.ctrl.StartMatch(s.ctx, s.matchID)
	s.Require().NoError(err)

	s.Require().NoError(s.engineOne.Start(s.ctx))
	s.Equal(model.MatchStatusPlaying, s.engineOne.Snapshot().Status())
}

func (s *EngineTestSuite) TestSubmitGuessGatedLocally() {
	s.startPlaying()

	// Player two does not hold the turn; the backend is never consulted
	_, err := s.engineTwo.SubmitGuess(s.ctx, "1234")
	s.Require().ErrorIs(err, model.ErrNotPlayerTurn)
	s.Equal(0, s.backendTwo.submitCalls)

	_, err = s.engineOne.SubmitGuess(s.ctx, "1123")
	s.Require().ErrorIs(err, model.ErrInvalidDigits)
	s.Equal(0, s.backendOne.submitCalls)
}

func (s *EngineTestSuite) TestGuessExchangeConverges() {
	s.startPlaying()

	// Player one guesses against player two's secret 5678
	result, err := s.engineOne.SubmitGuess(s.ctx, "5687")
	s.Require().NoError(err)
	s.Equal(2, result.Guess.Exact)
	s.Equal(2, result.Guess.Partial)
	s.Equal(playerTwo, result.CurrentTurn)

	// Both views agree on the guess log and the turn
	for _, engine := range []*session.Engine{s.engineOne, s.engineTwo} {
		snap := engine.Snapshot()
		s.Require().Len(snap.Guesses, 1)
		s.Equal("5687", snap.Guesses[0].Value)
		s.Equal(playerTwo, snap.Match.CurrentTurn)
	}

	// Player two wins outright
	result, err = s.engineTwo.SubmitGuess(s.ctx, "1234")
	s.Require().NoError(err)
	s.Equal(4, result.Guess.Exact)
	s.Equal(model.MatchStatusFinished, result.Status)
	s.Equal(playerTwo, result.Winner)

	for _, engine := range []*session.Engine{s.engineOne, s.engineTwo} {
		snap := engine.Snapshot()
		s.Equal(model.MatchStatusFinished, snap.Match.Status)
		s.Equal(playerTwo, snap.Match.Winner)
	}
}

func (s *EngineTestSuite) TestPollRefreshesOnlyWhilePlaying() {
	s.joinAndOpen()

	calls := s.backendOne.matchCalls()
	s.clock.Tick()
	// Not playing yet; the tick must not trigger a refetch
	time.Sleep(50 * time.Millisecond)
	s.Equal(calls, s.backendOne.matchCalls())

	s.Require().NoError(s.engineOne.SetSecret(s.ctx, "1234"))
	s.Require().NoError(s.engineTwo.SetSecret(s.ctx, "5678"))
	s.Require().NoError(s.engineOne.SetReady(s.ctx))
	s.Require().NoError(s.engineTwo.SetReady(s.ctx))
	s.random.QueueIntn(0)
	s.Require().NoError(s.engineOne.Start(s.ctx))

	// Change state behind the engine's back, without any notification
	_, _, err := s.ctrl.SubmitGuess(s.ctx, s.matchID, playerOne, "5678")
	s.Require().NoError(err)

	calls = s.backendOne.matchCalls()
	s.clock.Tick()
	s.Require().Eventually(func() bool {
		return s.backendOne.matchCalls() > calls
	}, time.Second, 5*time.Millisecond)

	s.Require().Eventually(func() bool {
		snap := s.engineOne.Snapshot()
		return snap.Match != nil && snap.Match.Status == model.MatchStatusFinished
	}, time.Second, 5*time.Millisecond)
}

func (s *EngineTestSuite) TestAbandonDeclaresOpponentWinner() {
	s.startPlaying()

	s.Require().NoError(s.engineTwo.Abandon(s.ctx))

	// The leaver's view is torn down entirely
	s.Nil(s.engineTwo.Snapshot().Match)

	// The opponent's view converges on the abandoned outcome
	snap := s.engineOne.Snapshot()
	s.Equal(model.MatchStatusAbandoned, snap.Match.Status)
	s.Equal(playerOne, snap.Match.Winner)
}

func (s *EngineTestSuite) TestOnChangeFiresOnEverySwap() {
	var mu sync.Mutex
	changes := 0
	s.engineOne.OnChange(func(session.Snapshot) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	s.Require().NoError(s.engineOne.Open(s.ctx, s.matchID))
	s.Require().NoError(s.engineOne.Refresh(s.ctx))

	mu.Lock()
	defer mu.Unlock()
	s.Equal(2, changes)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
