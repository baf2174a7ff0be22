package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/acrofts/digitduel/internal/client"
	"github.com/acrofts/digitduel/internal/client/lobby"
	"github.com/acrofts/digitduel/internal/client/session"
	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/services/auth"
	"github.com/acrofts/digitduel/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// registerPlayer goes through the real auth service so players exist in
// storage the same way they would in production.
func (s *IntegrationSuite) registerPlayer(username, displayName string) *auth.Session {
	sess, err := s.app.AuthService.Register(s.ctx, username, "hunter22", displayName)
	s.Require().NoError(err)
	return sess
}

func (s *IntegrationSuite) presence(sess *auth.Session) model.PresenceRecord {
	return model.PresenceRecord{
		PlayerID:    sess.PlayerID,
		DisplayName: sess.Player.DisplayName,
		At:          s.app.MockClock.Now(),
	}
}

// newEngine builds a session engine the way a client process would: its
// own registry over the shared transport, backed directly by the match
// controller.
func (s *IntegrationSuite) newEngine(sess *auth.Session) *session.Engine {
	backend := client.NewLocalBackend(s.app.MatchController, sess.PlayerID)
	registry := s.app.NewClientRegistry(nil)
	return session.NewEngine(backend, registry, s.app.MockClock, s.presence(sess), session.Config{}, testutil.NopLogger())
}

func (s *IntegrationSuite) newLobbyClient(sess *auth.Session) *lobby.Client {
	backend := client.NewLocalBackend(s.app.MatchController, sess.PlayerID)
	registry := s.app.NewClientRegistry(nil)
	return lobby.NewClient(backend, registry, s.presence(sess), testutil.NopLogger())
}

// Test: full flow from registration through lobby invite to a finished
// match with recorded history.
func (s *IntegrationSuite) TestCompleteMatchLifecycle() {
	alice := s.registerPlayer("alice", "Alice")
	bob := s.registerPlayer("bob", "Bob")

	// Step 1: both players join the lobby and see each other
	aliceLobby := s.newLobbyClient(alice)
	bobLobby := s.newLobbyClient(bob)
	s.Require().NoError(aliceLobby.Join(s.ctx))
	s.Require().NoError(bobLobby.Join(s.ctx))

	online := aliceLobby.Online()
	s.Require().Len(online, 1)
	s.Equal(bob.PlayerID, online[0].PlayerID)

	// Step 2: Alice invites Bob, Bob accepts
	s.app.MockRandom.QueueString("ABCD12")
	created, err := aliceLobby.SendInvite(s.ctx, bob.PlayerID)
	s.Require().NoError(err)

	s.Require().NotNil(bobLobby.PendingInvite())
	joined, err := bobLobby.AcceptInvite(s.ctx)
	s.Require().NoError(err)
	s.Equal(created.ID, joined.ID)
	s.Equal(model.MatchStatusReady, joined.Status)

	// Step 3: both open session engines on the match
	aliceEngine := s.newEngine(alice)
	bobEngine := s.newEngine(bob)
	s.Require().NoError(aliceEngine.Open(s.ctx, created.ID))
	s.Require().NoError(bobEngine.Open(s.ctx, created.ID))
	s.Require().Len(aliceEngine.Snapshot().Participants, 2)

	// Step 4: lock secrets and ready up
	s.Require().NoError(aliceEngine.SetSecret(s.ctx, "1234"))
	s.Require().NoError(bobEngine.SetSecret(s.ctx, "5678"))
	s.Require().NoError(aliceEngine.SetReady(s.ctx))
	s.Require().NoError(bobEngine.SetReady(s.ctx))

	// Step 5: Alice (the creator) starts; she gets the first turn
	s.app.MockRandom.QueueIntn(0)
	s.Require().NoError(aliceEngine.Start(s.ctx))
	s.Equal(model.MatchStatusPlaying, bobEngine.Snapshot().Status())
	s.True(aliceEngine.Snapshot().IsTurn(alice.PlayerID))

	// Step 6: Alice probes, Bob wins
	result, err := aliceEngine.SubmitGuess(s.ctx, "5687")
	s.Require().NoError(err)
	s.Equal(2, result.Guess.Exact)
	s.Equal(2, result.Guess.Partial)
	s.True(bobEngine.Snapshot().IsTurn(bob.PlayerID))

	result, err = bobEngine.SubmitGuess(s.ctx, "1234")
	s.Require().NoError(err)
	s.Equal(4, result.Guess.Exact)
	s.Equal(model.MatchStatusFinished, result.Status)
	s.Equal(bob.PlayerID, result.Winner)

	// Both clients converge on the finished state
	for _, snap := range []session.Snapshot{aliceEngine.Snapshot(), bobEngine.Snapshot()} {
		s.Equal(model.MatchStatusFinished, snap.Status())
		s.Equal(bob.PlayerID, snap.Match.Winner)
		s.Len(snap.Guesses, 2)
	}

	// Step 7: the result lands in both players' history
	history, err := s.app.MatchController.GetHistory(s.ctx, alice.PlayerID, 0)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(bob.PlayerID, history[0].WinnerID)
}

// Test: abandoning mid-match awards the win to the opponent on both clients
func (s *IntegrationSuite) TestAbandonMidMatch() {
	alice := s.registerPlayer("alice", "Alice")
	bob := s.registerPlayer("bob", "Bob")

	s.app.MockRandom.QueueString("ABCD12")
	created, _, err := s.app.MatchController.CreateMatch(s.ctx, alice.PlayerID, "")
	s.Require().NoError(err)
	_, err = s.app.MatchController.JoinMatch(s.ctx, created.ID, bob.PlayerID)
	s.Require().NoError(err)

	aliceEngine := s.newEngine(alice)
	bobEngine := s.newEngine(bob)
	s.Require().NoError(aliceEngine.Open(s.ctx, created.ID))
	s.Require().NoError(bobEngine.Open(s.ctx, created.ID))

	s.Require().NoError(aliceEngine.SetSecret(s.ctx, "1234"))
	s.Require().NoError(bobEngine.SetSecret(s.ctx, "5678"))
	s.Require().NoError(aliceEngine.SetReady(s.ctx))
	s.Require().NoError(bobEngine.SetReady(s.ctx))
	s.app.MockRandom.QueueIntn(0)
	s.Require().NoError(aliceEngine.Start(s.ctx))

	s.Require().NoError(aliceEngine.Abandon(s.ctx))

	// The abandoning client resets its session entirely
	s.Nil(aliceEngine.Snapshot().Match)

	snap := bobEngine.Snapshot()
	s.Equal(model.MatchStatusAbandoned, snap.Status())
	s.Equal(bob.PlayerID, snap.Match.Winner)
}

// Test: factory validates backend selection
func (s *IntegrationSuite) TestFactoryBackendSelection() {
	app, err := New(Config{})
	s.Require().NoError(err)
	s.NotNil(app.Storage)
	s.NotNil(app.Transport)
	s.NotNil(app.AuthService)
	s.NotNil(app.MatchController)

	_, err = New(Config{StorageType: BackendTypeRedis})
	s.Error(err)

	_, err = New(Config{RealtimeType: BackendTypeRedis})
	s.Error(err)

	_, err = New(Config{StorageType: "bogus"})
	s.Error(err)
}
