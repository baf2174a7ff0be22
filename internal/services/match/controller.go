package match

import (
	"context"
	"log/slog"
	"strings"

	"github.com/acrofts/digitduel/internal/dependencies/clock"
	"github.com/acrofts/digitduel/internal/dependencies/random"
	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/storage"
)

const (
	// CodeLength is the length of generated match codes
	CodeLength = 6
	// CodeAlphabet is the characters used in match codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Controller owns the authoritative match state machine: seating, secret
// locking, turn flow, scoring and termination. Clients only ever observe
// its decisions through reads.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new match Controller
func NewController(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "match")),
	}
}

// CreateMatch creates a waiting match with the creator seated at 1
func (c *Controller) CreateMatch(ctx context.Context, creator model.PlayerID, invited model.PlayerID) (*model.Match, *model.Participant, error) {
	now := c.clock.Now()

	// Generate unique match code
	var code model.MatchCode
	for {
		code = model.MatchCode(c.random.String(CodeLength, CodeAlphabet))
		exists, err := c.storage.MatchCodeExists(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			break
		}
	}

	m := &model.Match{
		ID:        model.MatchID(c.random.UUID()),
		Code:      code,
		Status:    model.MatchStatusWaiting,
		CreatedBy: creator,
		InvitedID: invited,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, nil, err
	}

	p := &model.Participant{
		MatchID:  m.ID,
		PlayerID: creator,
		Seat:     1,
		JoinedAt: now,
	}
	if err := c.storage.SaveParticipant(ctx, p); err != nil {
		return nil, nil, err
	}

	c.logger.Info("match created",
		slog.String("match_id", string(m.ID)),
		slog.String("code", string(code)),
		slog.String("created_by", string(creator)),
	)

	return m, p, nil
}

// GetMatch retrieves a match by id
func (c *Controller) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return c.storage.GetMatch(ctx, id)
}

// GetParticipants retrieves a match's seats ordered by seat number
func (c *Controller) GetParticipants(ctx context.Context, id model.MatchID) ([]*model.Participant, error) {
	return c.storage.GetParticipants(ctx, id)
}

// GetGuesses retrieves a match's guess log in creation order
func (c *Controller) GetGuesses(ctx context.Context, id model.MatchID) ([]*model.Guess, error) {
	return c.storage.GetGuesses(ctx, id)
}

// JoinMatch seats a second participant and moves the match to ready
func (c *Controller) JoinMatch(ctx context.Context, matchID model.MatchID, joiner model.PlayerID) (*model.Participant, error) {
	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if m.Status != model.MatchStatusWaiting {
		return nil, model.ErrMatchNotAvailable
	}

	participants, err := c.storage.GetParticipants(ctx, matchID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if p.PlayerID == joiner {
			return nil, model.ErrAlreadyJoined
		}
	}
	if len(participants) >= 2 {
		return nil, model.ErrMatchFull
	}

	now := c.clock.Now()
	p := &model.Participant{
		MatchID:  matchID,
		PlayerID: joiner,
		Seat:     2,
		JoinedAt: now,
	}
	if err := c.storage.SaveParticipant(ctx, p); err != nil {
		return nil, err
	}

	m.Status = model.MatchStatusReady
	m.UpdatedAt = now
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	c.logger.Info("participant joined",
		slog.String("match_id", string(matchID)),
		slog.String("player_id", string(joiner)),
	)

	return p, nil
}

// JoinMatchByCode is the join-by-code entry path. It only matches a
// waiting match; anything else is reported as not available rather than
// partially joined.
func (c *Controller) JoinMatchByCode(ctx context.Context, code model.MatchCode, joiner model.PlayerID) (*model.Match, *model.Participant, error) {
	normalized := model.MatchCode(strings.ToUpper(string(code)))

	m, err := c.storage.GetMatchByCode(ctx, normalized)
	if err != nil {
		return nil, nil, err
	}
	if m.Status != model.MatchStatusWaiting {
		return nil, nil, model.ErrMatchNotAvailable
	}

	p, err := c.JoinMatch(ctx, m.ID, joiner)
	if err != nil {
		return nil, nil, err
	}

	m, err = c.storage.GetMatch(ctx, m.ID)
	if err != nil {
		return nil, nil, err
	}
	return m, p, nil
}

// SetSecret locks a participant's secret. Idempotent upsert keyed by
// (match, participant); rejected once the match is beyond secret locking.
func (c *Controller) SetSecret(ctx context.Context, matchID model.MatchID, playerID model.PlayerID, secret string) error {
	if err := model.ValidateDigits(secret); err != nil {
		return err
	}

	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status.IsTerminal() {
		return model.ErrMatchTerminal
	}
	if m.Status == model.MatchStatusPlaying {
		return model.ErrAlreadyStarted
	}

	if _, err := c.participant(ctx, matchID, playerID); err != nil {
		return err
	}

	return c.storage.SaveSecret(ctx, matchID, playerID, secret)
}

// SetReady marks a participant ready. A secret must be locked first.
func (c *Controller) SetReady(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) error {
	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status.IsTerminal() {
		return model.ErrMatchTerminal
	}
	if m.Status == model.MatchStatusPlaying {
		return model.ErrAlreadyStarted
	}

	p, err := c.participant(ctx, matchID, playerID)
	if err != nil {
		return err
	}

	if _, err := c.storage.GetSecret(ctx, matchID, playerID); err != nil {
		return err
	}

	p.Ready = true
	if err := c.storage.SaveParticipant(ctx, p); err != nil {
		return err
	}

	m.UpdatedAt = c.clock.Now()
	return c.storage.SaveMatch(ctx, m)
}

// StartMatch transitions ready -> playing and assigns the first turn.
// Only one caller can win; a second attempt observes ErrAlreadyStarted,
// which clients treat as "someone else started it".
func (c *Controller) StartMatch(ctx context.Context, matchID model.MatchID) (*model.Match, error) {
	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status == model.MatchStatusPlaying {
		return nil, model.ErrAlreadyStarted
	}
	if m.Status != model.MatchStatusReady {
		return nil, model.ErrNotStartable
	}

	participants, err := c.storage.GetParticipants(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if len(participants) != 2 {
		return nil, model.ErrNotStartable
	}
	for _, p := range participants {
		if !p.Ready {
			return nil, model.ErrNotStartable
		}
		if _, err := c.storage.GetSecret(ctx, matchID, p.PlayerID); err != nil {
			return nil, err
		}
	}

	m.Status = model.MatchStatusPlaying
	m.CurrentTurn = participants[c.random.Intn(2)].PlayerID
	m.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	c.logger.Info("match started",
		slog.String("match_id", string(matchID)),
		slog.String("first_turn", string(m.CurrentTurn)),
	)

	return m, nil
}

// SubmitGuess scores a guess against the opponent's secret, advances the
// turn, and terminates the match on a full match of all four digits.
func (c *Controller) SubmitGuess(ctx context.Context, matchID model.MatchID, guesser model.PlayerID, value string) (*model.Guess, *model.Match, error) {
	if err := model.ValidateDigits(value); err != nil {
		return nil, nil, err
	}

	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if m.Status.IsTerminal() {
		return nil, nil, model.ErrMatchTerminal
	}
	if m.Status != model.MatchStatusPlaying {
		return nil, nil, model.ErrNotPlaying
	}
	if m.CurrentTurn != guesser {
		return nil, nil, model.ErrNotPlayerTurn
	}

	opponent, err := c.opponent(ctx, matchID, guesser)
	if err != nil {
		return nil, nil, err
	}

	secret, err := c.storage.GetSecret(ctx, matchID, opponent.PlayerID)
	if err != nil {
		return nil, nil, err
	}

	exact, partial := Score(secret, value)
	now := c.clock.Now()

	guess := &model.Guess{
		ID:        model.GuessID(c.random.UUID()),
		MatchID:   matchID,
		GuesserID: guesser,
		Value:     value,
		Exact:     exact,
		Partial:   partial,
		CreatedAt: now,
	}
	if err := c.storage.AppendGuess(ctx, guess); err != nil {
		return nil, nil, err
	}

	if exact == model.DigitsLength {
		m.Status = model.MatchStatusFinished
		m.Winner = guesser
		m.CurrentTurn = ""
	} else {
		m.CurrentTurn = opponent.PlayerID
	}
	m.UpdatedAt = now

	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, nil, err
	}

	if m.Status == model.MatchStatusFinished {
		if err := c.recordResult(ctx, m); err != nil {
			c.logger.Error("failed to record result",
				slog.String("match_id", string(matchID)),
				slog.String("error", err.Error()),
			)
		}
		c.logger.Info("match finished",
			slog.String("match_id", string(matchID)),
			slog.String("winner", string(guesser)),
		)
	}

	return guess, m, nil
}

// AbandonMatch terminates a match on behalf of a leaving participant.
// The remaining participant, if any, is declared winner.
func (c *Controller) AbandonMatch(ctx context.Context, matchID model.MatchID, leaver model.PlayerID) (*model.Match, error) {
	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status.IsTerminal() {
		return nil, model.ErrMatchTerminal
	}

	if _, err := c.participant(ctx, matchID, leaver); err != nil {
		return nil, err
	}

	m.Status = model.MatchStatusAbandoned
	m.CurrentTurn = ""
	if opponent, err := c.opponent(ctx, matchID, leaver); err == nil {
		m.Winner = opponent.PlayerID
	}
	m.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	if err := c.recordResult(ctx, m); err != nil {
		c.logger.Error("failed to record result",
			slog.String("match_id", string(matchID)),
			slog.String("error", err.Error()),
		)
	}

	c.logger.Info("match abandoned",
		slog.String("match_id", string(matchID)),
		slog.String("left_by", string(leaver)),
		slog.String("winner", string(m.Winner)),
	)

	return m, nil
}

// GetHistory lists a player's concluded matches, newest first
func (c *Controller) GetHistory(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchResult, error) {
	return c.storage.GetResultsForPlayer(ctx, playerID, limit)
}

// GetPendingInvites lists waiting matches that invited the given player,
// so a client that missed the lobby broadcast can still discover them
func (c *Controller) GetPendingInvites(ctx context.Context, playerID model.PlayerID) ([]*model.Match, error) {
	return c.storage.ListMatchesByInvitee(ctx, playerID, model.MatchStatusWaiting)
}

func (c *Controller) participant(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) (*model.Participant, error) {
	participants, err := c.storage.GetParticipants(ctx, matchID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if p.PlayerID == playerID {
			return p, nil
		}
	}
	return nil, model.ErrNotInMatch
}

func (c *Controller) opponent(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) (*model.Participant, error) {
	participants, err := c.storage.GetParticipants(ctx, matchID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if p.PlayerID != playerID {
			return p, nil
		}
	}
	return nil, model.ErrNotInMatch
}

func (c *Controller) recordResult(ctx context.Context, m *model.Match) error {
	participants, err := c.storage.GetParticipants(ctx, m.ID)
	if err != nil {
		return err
	}

	result := &model.MatchResult{
		MatchID:   m.ID,
		WinnerID:  m.Winner,
		Status:    m.Status,
		Duration:  m.UpdatedAt.Sub(m.CreatedAt),
		CreatedAt: m.UpdatedAt,
	}
	for _, p := range participants {
		switch p.Seat {
		case 1:
			result.Player1ID = p.PlayerID
		case 2:
			result.Player2ID = p.PlayerID
		}
	}

	guesses, err := c.storage.GetGuesses(ctx, m.ID)
	if err != nil {
		return err
	}
	result.Turns = len(guesses)

	return c.storage.SaveResult(ctx, result)
}
