package client

import (
	"context"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/services/match"
)

// LocalBackend implements Facade directly against a match controller,
// bound to one player. It serves single-process setups where client and
// backend live in the same binary, and tests that want real state
// transitions without HTTP in the way.
type LocalBackend struct {
	ctrl   *match.Controller
	player model.PlayerID
}

// Ensure LocalBackend implements Facade
var _ Facade = (*LocalBackend)(nil)

// NewLocalBackend creates a facade acting as the given player
func NewLocalBackend(ctrl *match.Controller, player model.PlayerID) *LocalBackend {
	return &LocalBackend{
		ctrl:   ctrl,
		player: player,
	}
}

func (b *LocalBackend) CreateMatch(ctx context.Context, invited model.PlayerID) (*model.Match, *model.Participant, error) {
	return b.ctrl.CreateMatch(ctx, b.player, invited)
}

func (b *LocalBackend) JoinMatch(ctx context.Context, id model.MatchID) (*model.Participant, error) {
	return b.ctrl.JoinMatch(ctx, id, b.player)
}

func (b *LocalBackend) JoinMatchByCode(ctx context.Context, code model.MatchCode) (*model.Match, *model.Participant, error) {
	return b.ctrl.JoinMatchByCode(ctx, code, b.player)
}

func (b *LocalBackend) FetchMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return b.ctrl.GetMatch(ctx, id)
}

func (b *LocalBackend) FetchParticipants(ctx context.Context, id model.MatchID) ([]*model.Participant, error) {
	return b.ctrl.GetParticipants(ctx, id)
}

func (b *LocalBackend) FetchGuesses(ctx context.Context, id model.MatchID) ([]*model.Guess, error) {
	return b.ctrl.GetGuesses(ctx, id)
}

func (b *LocalBackend) SetSecret(ctx context.Context, id model.MatchID, secret string) error {
	return b.ctrl.SetSecret(ctx, id, b.player, secret)
}

func (b *LocalBackend) SetReady(ctx context.Context, id model.MatchID) error {
	return b.ctrl.SetReady(ctx, id, b.player)
}

func (b *LocalBackend) StartMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return b.ctrl.StartMatch(ctx, id)
}

func (b *LocalBackend) SubmitGuess(ctx context.Context, id model.MatchID, value string) (*GuessResult, error) {
	guess, m, err := b.ctrl.SubmitGuess(ctx, id, b.player, value)
	if err != nil {
		return nil, err
	}
	return &GuessResult{
		Guess:       *guess,
		Status:      m.Status,
		CurrentTurn: m.CurrentTurn,
		Winner:      m.Winner,
	}, nil
}

func (b *LocalBackend) AbandonMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return b.ctrl.AbandonMatch(ctx, id, b.player)
}

func (b *LocalBackend) FetchHistory(ctx context.Context, limit int) ([]*model.MatchResult, error) {
	return b.ctrl.GetHistory(ctx, b.player, limit)
}

func (b *LocalBackend) FetchPendingInvites(ctx context.Context) ([]*model.Match, error) {
	return b.ctrl.GetPendingInvites(ctx, b.player)
}
