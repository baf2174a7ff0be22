package storage

import (
	"context"

	"github.com/acrofts/digitduel/internal/model"
)

// Storage defines the interface for the backend of record
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, playerID model.PlayerID) (*model.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)

	// Match operations
	SaveMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	GetMatchByCode(ctx context.Context, code model.MatchCode) (*model.Match, error)
	MatchCodeExists(ctx context.Context, code model.MatchCode) (bool, error)
	ListMatchesByInvitee(ctx context.Context, playerID model.PlayerID, status model.MatchStatus) ([]*model.Match, error)

	// Participant operations
	SaveParticipant(ctx context.Context, p *model.Participant) error
	GetParticipants(ctx context.Context, matchID model.MatchID) ([]*model.Participant, error)

	// Secret operations; SaveSecret is an idempotent upsert keyed by (match, player)
	SaveSecret(ctx context.Context, matchID model.MatchID, playerID model.PlayerID, secret string) error
	GetSecret(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) (string, error)
	DeleteSecrets(ctx context.Context, matchID model.MatchID) error

	// Guess operations; the guess log is append-only
	AppendGuess(ctx context.Context, guess *model.Guess) error
	GetGuesses(ctx context.Context, matchID model.MatchID) ([]*model.Guess, error)

	// Result operations
	SaveResult(ctx context.Context, result *model.MatchResult) error
	GetResultsForPlayer(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchResult, error)
}
