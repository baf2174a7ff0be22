// Package storagetest holds a conformance suite run against every
// storage implementation.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/storage"
)

// Suite exercises the storage interface contract. Implementations embed
// it and provide NewStorage.
type Suite struct {
	suite.Suite

	// NewStorage returns a fresh empty store for each test
	NewStorage func() storage.Storage

	ctx   context.Context
	store storage.Storage
	now   time.Time
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStorage()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TestPlayerRoundTrip() {
	player := &model.Player{
		ID:          "p1",
		DisplayName: "Alice",
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
	s.Require().NoError(s.store.SavePlayer(s.ctx, player))

	got, err := s.store.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)

	_, err = s.store.GetPlayer(s.ctx, "missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestSavePlayerOverwrites() {
	player := &model.Player{ID: "p1", DisplayName: "Alice"}
	s.Require().NoError(s.store.SavePlayer(s.ctx, player))

	player.DisplayName = "Allie"
	s.Require().NoError(s.store.SavePlayer(s.ctx, player))

	got, err := s.store.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Allie", got.DisplayName)
}

func (s *Suite) TestAccountLookupByUsername() {
	account := &model.Account{
		PlayerID:     "p1",
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    s.now,
	}
	s.Require().NoError(s.store.SaveAccount(s.ctx, account))

	got, err := s.store.GetAccountByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), got.PlayerID)

	got, err = s.store.GetAccount(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)

	_, err = s.store.GetAccountByUsername(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) match(id model.MatchID, code model.MatchCode) *model.Match {
	return &model.Match{
		ID:        id,
		Code:      code,
		Status:    model.MatchStatusWaiting,
		CreatedBy: "p1",
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *Suite) TestMatchRoundTrip() {
	m := s.match("m1", "ABCD12")
	s.Require().NoError(s.store.SaveMatch(s.ctx, m))

	got, err := s.store.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.MatchCode("ABCD12"), got.Code)

	_, err = s.store.GetMatch(s.ctx, "missing")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *Suite) TestMatchCodeIndex() {
	m := s.match("m1", "ABCD12")
	s.Require().NoError(s.store.SaveMatch(s.ctx, m))

	got, err := s.store.GetMatchByCode(s.ctx, "ABCD12")
	s.Require().NoError(err)
	s.Equal(model.MatchID("m1"), got.ID)

	exists, err := s.store.MatchCodeExists(s.ctx, "ABCD12")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.MatchCodeExists(s.ctx, "WXYZ89")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.store.GetMatchByCode(s.ctx, "WXYZ89")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *Suite) TestListMatchesByInvitee() {
	first := s.match("m1", "ABCD12")
	first.InvitedID = "p2"
	s.Require().NoError(s.store.SaveMatch(s.ctx, first))

	second := s.match("m2", "EFGH34")
	second.InvitedID = "p2"
	second.Status = model.MatchStatusReady
	s.Require().NoError(s.store.SaveMatch(s.ctx, second))

	third := s.match("m3", "JKLM56")
	s.Require().NoError(s.store.SaveMatch(s.ctx, third))

	waiting, err := s.store.ListMatchesByInvitee(s.ctx, "p2", model.MatchStatusWaiting)
	s.Require().NoError(err)
	s.Require().Len(waiting, 1)
	s.Equal(model.MatchID("m1"), waiting[0].ID)

	none, err := s.store.ListMatchesByInvitee(s.ctx, "p3", model.MatchStatusWaiting)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestParticipantsUpsertAndOrder() {
	m := s.match("m1", "ABCD12")
	s.Require().NoError(s.store.SaveMatch(s.ctx, m))

	first := &model.Participant{MatchID: "m1", PlayerID: "p1", Seat: 1, JoinedAt: s.now}
	second := &model.Participant{MatchID: "m1", PlayerID: "p2", Seat: 2, JoinedAt: s.now}
	s.Require().NoError(s.store.SaveParticipant(s.ctx, first))
	s.Require().NoError(s.store.SaveParticipant(s.ctx, second))

	got, err := s.store.GetParticipants(s.ctx, "m1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(model.PlayerID("p1"), got[0].PlayerID)
	s.Equal(model.PlayerID("p2"), got[1].PlayerID)
	s.False(got[0].Ready)

	// Saving an existing participant replaces it in place
	first.Ready = true
	s.Require().NoError(s.store.SaveParticipant(s.ctx, first))

	got, err = s.store.GetParticipants(s.ctx, "m1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.True(got[0].Ready)
}

func (s *Suite) TestParticipantsEmptyMatch() {
	got, err := s.store.GetParticipants(s.ctx, "missing")
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *Suite) TestSecrets() {
	_, err := s.store.GetSecret(s.ctx, "m1", "p1")
	s.ErrorIs(err, model.ErrSecretNotSet)

	s.Require().NoError(s.store.SaveSecret(s.ctx, "m1", "p1", "1234"))
	s.Require().NoError(s.store.SaveSecret(s.ctx, "m1", "p2", "5678"))

	secret, err := s.store.GetSecret(s.ctx, "m1", "p1")
	s.Require().NoError(err)
	s.Equal("1234", secret)

	// Upsert replaces
	s.Require().NoError(s.store.SaveSecret(s.ctx, "m1", "p1", "9876"))
	secret, err = s.store.GetSecret(s.ctx, "m1", "p1")
	s.Require().NoError(err)
	s.Equal("9876", secret)

	s.Require().NoError(s.store.DeleteSecrets(s.ctx, "m1"))
	_, err = s.store.GetSecret(s.ctx, "m1", "p1")
	s.ErrorIs(err, model.ErrSecretNotSet)
	_, err = s.store.GetSecret(s.ctx, "m1", "p2")
	s.ErrorIs(err, model.ErrSecretNotSet)
}

func (s *Suite) TestGuessesAppendOnly() {
	for i, value := range []string{"1234", "5678", "2468"} {
		guess := &model.Guess{
			ID:        model.GuessID(rune('a' + i)),
			MatchID:   "m1",
			GuesserID: "p1",
			Value:     value,
			CreatedAt: s.now.Add(time.Duration(i) * time.Minute),
		}
		s.Require().NoError(s.store.AppendGuess(s.ctx, guess))
	}

	got, err := s.store.GetGuesses(s.ctx, "m1")
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("1234", got[0].Value)
	s.Equal("5678", got[1].Value)
	s.Equal("2468", got[2].Value)

	empty, err := s.store.GetGuesses(s.ctx, "other")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *Suite) TestResultsNewestFirstWithLimit() {
	for i := 0; i < 3; i++ {
		result := &model.MatchResult{
			MatchID:   model.MatchID(rune('a' + i)),
			Player1ID: "p1",
			Player2ID: "p2",
			WinnerID:  "p1",
			Status:    model.MatchStatusFinished,
			CreatedAt: s.now.Add(time.Duration(i) * time.Hour),
		}
		s.Require().NoError(s.store.SaveResult(s.ctx, result))
	}

	results, err := s.store.GetResultsForPlayer(s.ctx, "p1", 0)
	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.Equal(model.MatchID("c"), results[0].MatchID)
	s.Equal(model.MatchID("a"), results[2].MatchID)

	// Both participants see the result
	results, err = s.store.GetResultsForPlayer(s.ctx, "p2", 0)
	s.Require().NoError(err)
	s.Len(results, 3)

	limited, err := s.store.GetResultsForPlayer(s.ctx, "p1", 2)
	s.Require().NoError(err)
	s.Require().Len(limited, 2)
	s.Equal(model.MatchID("c"), limited[0].MatchID)

	none, err := s.store.GetResultsForPlayer(s.ctx, "p3", 0)
	s.Require().NoError(err)
	s.Empty(none)
}
