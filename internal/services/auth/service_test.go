package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/acrofts/digitduel/internal/dependencies/mocks"
	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/services/auth"
	"github.com/acrofts/digitduel/internal/storage/memory"
	"github.com/acrofts/digitduel/internal/testutil"
)

type AuthTestSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *mocks.MockClock
	service *auth.Service
}

func (s *AuthTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.service = auth.New(
		memory.New(),
		s.clock,
		mocks.NewMockRandom(),
		auth.Config{SessionDuration: time.Hour},
		testutil.NopLogger(),
	)
}

func (s *AuthTestSuite) TestRegisterAndValidate() {
	session, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)
	s.NotEmpty(session.Token)
	s.Equal("Alice", session.Player.DisplayName)

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.PlayerID, validated.PlayerID)
}

func (s *AuthTestSuite) TestRegisterDuplicateUsername() {
	_, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice", "other", "Alice Again")
	s.ErrorIs(err, auth.ErrUsernameExists)
}

func (s *AuthTestSuite) TestLogin() {
	registered, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)

	session, err := s.service.Login(s.ctx, "alice", "hunter22")
	s.Require().NoError(err)
	s.Equal(registered.PlayerID, session.PlayerID)
	s.NotEqual(registered.Token, session.Token)

	_, err = s.service.Login(s.ctx, "alice", "wrong")
	s.ErrorIs(err, auth.ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, "nobody", "hunter22")
	s.ErrorIs(err, auth.ErrInvalidCredentials)
}

func (s *AuthTestSuite) TestSessionExpiry() {
	session, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Hour)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, auth.ErrInvalidSession)
}

func (s *AuthTestSuite) TestInvalidateSession() {
	session, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)

	s.service.InvalidateSession(session.Token)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, auth.ErrInvalidSession)
}

func (s *AuthTestSuite) TestValidateUnknownToken() {
	_, err := s.service.ValidateSession("sess_bogus")
	s.ErrorIs(err, auth.ErrInvalidSession)
}

func (s *AuthTestSuite) TestUpdateProfileSyncsLiveSessions() {
	session, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)

	updated, err := s.service.UpdateProfile(s.ctx, session.PlayerID, "Allie", "https://example.com/a.png")
	s.Require().NoError(err)
	s.Equal("Allie", updated.DisplayName)
	s.Equal("https://example.com/a.png", updated.AvatarURL)

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal("Allie", validated.Player.DisplayName)
}

func (s *AuthTestSuite) TestUpdateProfileUnknownPlayer() {
	_, err := s.service.UpdateProfile(s.ctx, model.PlayerID("ghost"), "Name", "")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *AuthTestSuite) TestCleanExpiredSessions() {
	first, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)

	s.clock.Advance(30 * time.Minute)
	second, err := s.service.Register(s.ctx, "bob", "hunter22", "Bob")
	s.Require().NoError(err)

	s.clock.Advance(45 * time.Minute)
	s.service.CleanExpiredSessions()

	_, err = s.service.ValidateSession(first.Token)
	s.ErrorIs(err, auth.ErrInvalidSession)

	_, err = s.service.ValidateSession(second.Token)
	s.NoError(err)
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
