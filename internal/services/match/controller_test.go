package match_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/acrofts/digitduel/internal/dependencies/mocks"
	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/services/match"
	"github.com/acrofts/digitduel/internal/storage/memory"
	"github.com/acrofts/digitduel/internal/testutil"
)

const (
	creator = model.PlayerID("creator")
	joiner  = model.PlayerID("joiner")
	outcast = model.PlayerID("outcast")
)

type ControllerTestSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *mocks.MockClock
	random *mocks.MockRandom
	ctrl   *match.Controller
}

func (s *ControllerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.random.QueueString("ABCD12")
	s.ctrl = match.NewController(memory.New(), s.clock, s.random, testutil.NopLogger())
}

// create makes a waiting match as the creator
func (s *ControllerTestSuite) create() *model.Match {
	m, p, err := s.ctrl.CreateMatch(s.ctx, creator, "")
	s.Require().NoError(err)
	s.Require().Equal(1, p.Seat)
	return m
}

// ready walks both players to the brink of starting
func (s *ControllerTestSuite) ready() *model.Match {
	m := s.create()
	_, err := s.ctrl.JoinMatch(s.ctx, m.ID, joiner)
	s.Require().NoError(err)
	s.Require().NoError(s.ctrl.SetSecret(s.ctx, m.ID, creator, "1234"))
	s.Require().NoError(s.ctrl.SetSecret(s.ctx, m.ID, joiner, "5678"))
	s.Require().NoError(s.ctrl.SetReady(s.ctx, m.ID, creator))
	s.Require().NoError(s.ctrl.SetReady(s.ctx, m.ID, joiner))
	return m
}

// playing starts the match with the creator holding the first turn
func (s *ControllerTestSuite) playing() *model.Match {
	m := s.ready()
	s.random.QueueIntn(0)
	started, err := s.ctrl.StartMatch(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Require().Equal(creator, started.CurrentTurn)
	return started
}

func (s *ControllerTestSuite) TestCreateMatch() {
	m := s.create()

	s.Equal(model.MatchCode("ABCD12"), m.Code)
	s.Equal(model.MatchStatusWaiting, m.Status)
	s.Equal(creator, m.CreatedBy)
	s.Empty(m.CurrentTurn)

	participants, err := s.ctrl.GetParticipants(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Require().Len(participants, 1)
	s.Equal(creator, participants[0].PlayerID)
}

func (s *ControllerTestSuite) TestCreateMatchRetriesCollidingCode() {
	s.create()

	// First candidate collides with the existing match's code
	s.random.QueueString("ABCD12", "WXYZ89")
	m, _, err := s.ctrl.CreateMatch(s.ctx, joiner, "")
	s.Require().NoError(err)
	s.Equal(model.MatchCode("WXYZ89"), m.Code)
}

func (s *ControllerTestSuite) TestJoinMovesToReady() {
	m := s.create()

	p, err := s.ctrl.JoinMatch(s.ctx, m.ID, joiner)
	s.Require().NoError(err)
	s.Equal(2, p.Seat)

	stored, err := s.ctrl.GetMatch(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusReady, stored.Status)
}

func (s *ControllerTestSuite) TestJoinRules() {
	m := s.create()

	_, err := s.ctrl.JoinMatch(s.ctx, m.ID, creator)
	s.ErrorIs(err, model.ErrAlreadyJoined)

	_, err = s.ctrl.JoinMatch(s.ctx, m.ID, joiner)
	s.Require().NoError(err)

	// Third player finds the match no longer waiting
	_, err = s.ctrl.JoinMatch(s.ctx, m.ID, outcast)
	s.ErrorIs(err, model.ErrMatchNotAvailable)
}

func (s *ControllerTestSuite) TestJoinByCodeNormalizesCase() {
	m := s.create()

	joined, p, err := s.ctrl.JoinMatchByCode(s.ctx, "abcd12", joiner)
	s.Require().NoError(err)
	s.Equal(m.ID, joined.ID)
	s.Equal(model.MatchStatusReady, joined.Status)
	s.Equal(2, p.Seat)
}

func (s *ControllerTestSuite) TestJoinByCodeUnknown() {
	s.create()

	_, _, err := s.ctrl.JoinMatchByCode(s.ctx, "NOPE99", joiner)
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *ControllerTestSuite) TestSetSecretValidates() {
	m := s.create()

	s.ErrorIs(s.ctrl.SetSecret(s.ctx, m.ID, creator, "1123"), model.ErrInvalidDigits)
	s.ErrorIs(s.ctrl.SetSecret(s.ctx, m.ID, creator, "0123"), model.ErrInvalidDigits)
	s.ErrorIs(s.ctrl.SetSecret(s.ctx, m.ID, outcast, "1234"), model.ErrNotInMatch)
	s.NoError(s.ctrl.SetSecret(s.ctx, m.ID, creator, "1234"))

	// Re-locking before start is an idempotent upsert
	s.NoError(s.ctrl.SetSecret(s.ctx, m.ID, creator, "9876"))
}

func (s *ControllerTestSuite) TestSetSecretRejectedOncePlaying() {
	m := s.playing()
	s.ErrorIs(s.ctrl.SetSecret(s.ctx, m.ID, creator, "9876"), model.ErrAlreadyStarted)
}

func (s *ControllerTestSuite) TestSetReadyRequiresSecret() {
	m := s.create()
	_, err := s.ctrl.JoinMatch(s.ctx, m.ID, joiner)
	s.Require().NoError(err)

	s.ErrorIs(s.ctrl.SetReady(s.ctx, m.ID, creator), model.ErrSecretNotSet)

	s.Require().NoError(s.ctrl.SetSecret(s.ctx, m.ID, creator, "1234"))
	s.NoError(s.ctrl.SetReady(s.ctx, m.ID, creator))
}

func (s *ControllerTestSuite) TestStartRequiresEveryoneReady() {
	m := s.create()

	// Single waiting participant
	_, err := s.ctrl.StartMatch(s.ctx, m.ID)
	s.ErrorIs(err, model.ErrNotStartable)

	_, err = s.ctrl.JoinMatch(s.ctx, m.ID, joiner)
	s.Require().NoError(err)
	s.Require().NoError(s.ctrl.SetSecret(s.ctx, m.ID, creator, "1234"))
	s.Require().NoError(s.ctrl.SetReady(s.ctx, m.ID, creator))

	// Joiner not ready yet
	_, err = s.ctrl.StartMatch(s.ctx, m.ID)
	s.ErrorIs(err, model.ErrNotStartable)
}

func (s *ControllerTestSuite) TestStartIsSingleWinner() {
	m := s.ready()

	s.random.QueueIntn(1)
	started, err := s.ctrl.StartMatch(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusPlaying, started.Status)
	s.Equal(joiner, started.CurrentTurn)

	_, err = s.ctrl.StartMatch(s.ctx, m.ID)
	s.ErrorIs(err, model.ErrAlreadyStarted)
}

func (s *ControllerTestSuite) TestGuessFlowAndFeedback() {
	m := s.playing()

	// Creator guesses against the joiner's secret 5678
	guess, updated, err := s.ctrl.SubmitGuess(s.ctx, m.ID, creator, "5687")
	s.Require().NoError(err)
	s.Equal(2, guess.Exact)
	s.Equal(2, guess.Partial)
	s.Equal(model.MatchStatusPlaying, updated.Status)
	s.Equal(joiner, updated.CurrentTurn)

	// Out of turn attempts are rejected
	_, _, err = s.ctrl.SubmitGuess(s.ctx, m.ID, creator, "5678")
	s.ErrorIs(err, model.ErrNotPlayerTurn)

	// Joiner wins by matching the creator's secret exactly
	guess, updated, err = s.ctrl.SubmitGuess(s.ctx, m.ID, joiner, "1234")
	s.Require().NoError(err)
	s.Equal(4, guess.Exact)
	s.Equal(model.MatchStatusFinished, updated.Status)
	s.Equal(joiner, updated.Winner)
	s.Empty(updated.CurrentTurn)

	// Terminal matches accept no more guesses
	_, _, err = s.ctrl.SubmitGuess(s.ctx, m.ID, creator, "5678")
	s.ErrorIs(err, model.ErrMatchTerminal)

	guesses, err := s.ctrl.GetGuesses(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Require().Len(guesses, 2)
	s.Equal("5687", guesses[0].Value)
	s.Equal("1234", guesses[1].Value)
}

func (s *ControllerTestSuite) TestGuessBeforePlaying() {
	m := s.ready()
	_, _, err := s.ctrl.SubmitGuess(s.ctx, m.ID, creator, "5678")
	s.ErrorIs(err, model.ErrNotPlaying)
}

func (s *ControllerTestSuite) TestAbandonDeclaresOpponentWinner() {
	m := s.playing()

	s.clock.Advance(3 * time.Minute)
	abandoned, err := s.ctrl.AbandonMatch(s.ctx, m.ID, creator)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusAbandoned, abandoned.Status)
	s.Equal(joiner, abandoned.Winner)
	s.Empty(abandoned.CurrentTurn)

	_, err = s.ctrl.AbandonMatch(s.ctx, m.ID, joiner)
	s.ErrorIs(err, model.ErrMatchTerminal)
}

func (s *ControllerTestSuite) TestAbandonWaitingMatchHasNoWinner() {
	m := s.create()

	abandoned, err := s.ctrl.AbandonMatch(s.ctx, m.ID, creator)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusAbandoned, abandoned.Status)
	s.Empty(abandoned.Winner)
}

func (s *ControllerTestSuite) TestHistoryRecordsOutcome() {
	m := s.playing()

	s.clock.Advance(2 * time.Minute)
	_, _, err := s.ctrl.SubmitGuess(s.ctx, m.ID, creator, "5678")
	s.Require().NoError(err)

	for _, player := range []model.PlayerID{creator, joiner} {
		results, err := s.ctrl.GetHistory(s.ctx, player, 10)
		s.Require().NoError(err)
		s.Require().Len(results, 1)
		s.Equal(m.ID, results[0].MatchID)
		s.Equal(creator, results[0].WinnerID)
		s.Equal(model.MatchStatusFinished, results[0].Status)
		s.Equal(1, results[0].Turns)
		s.Equal(2*time.Minute, results[0].Duration)
	}
}

func (s *ControllerTestSuite) TestPendingInvitesListsWaitingOnly() {
	m, _, err := s.ctrl.CreateMatch(s.ctx, creator, joiner)
	s.Require().NoError(err)

	invites, err := s.ctrl.GetPendingInvites(s.ctx, joiner)
	s.Require().NoError(err)
	s.Require().Len(invites, 1)
	s.Equal(m.ID, invites[0].ID)

	// Once joined the invite is no longer pending
	_, err = s.ctrl.JoinMatch(s.ctx, m.ID, joiner)
	s.Require().NoError(err)

	invites, err = s.ctrl.GetPendingInvites(s.ctx, joiner)
	s.Require().NoError(err)
	s.Empty(invites)
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}
