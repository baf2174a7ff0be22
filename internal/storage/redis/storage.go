package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, playerKey(player.ID), data, 0).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, accountKey(account.PlayerID), data, 0)
	pipe.Set(ctx, usernameIndexKey(account.Username), string(account.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAccount(ctx context.Context, playerID model.PlayerID) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetAccount(ctx, model.PlayerID(playerIDStr))
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, matchKey(match.ID), data, s.cfg.MatchTTL)
	pipe.Set(ctx, codeIndexKey(match.Code), string(match.ID), s.cfg.MatchTTL)
	if match.InvitedID != "" {
		pipe.SAdd(ctx, inviteeIndexKey(match.InvitedID), string(match.ID))
		pipe.Expire(ctx, inviteeIndexKey(match.InvitedID), s.cfg.MatchTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	data, err := s.client.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	var match model.Match
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *Storage) GetMatchByCode(ctx context.Context, code model.MatchCode) (*model.Match, error) {
	matchIDStr, err := s.client.Get(ctx, codeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	return s.GetMatch(ctx, model.MatchID(matchIDStr))
}

func (s *Storage) MatchCodeExists(ctx context.Context, code model.MatchCode) (bool, error) {
	exists, err := s.client.Exists(ctx, codeIndexKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) ListMatchesByInvitee(ctx context.Context, playerID model.PlayerID, status model.MatchStatus) ([]*model.Match, error) {
	ids, err := s.client.SMembers(ctx, inviteeIndexKey(playerID)).Result()
	if err != nil {
		return nil, err
	}

	var matches []*model.Match
	for _, id := range ids {
		match, err := s.GetMatch(ctx, model.MatchID(id))
		if err != nil {
			if errors.Is(err, model.ErrMatchNotFound) {
				// Expired match still in the index
				_ = s.client.SRem(ctx, inviteeIndexKey(playerID), id).Err()
				continue
			}
			return nil, err
		}
		if match.Status == status {
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// Participant operations

func (s *Storage) SaveParticipant(ctx context.Context, p *model.Participant) error {
	participants, err := s.GetParticipants(ctx, p.MatchID)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range participants {
		if existing.PlayerID == p.PlayerID {
			participants[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		participants = append(participants, p)
	}

	data, err := json.Marshal(participants)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, participantsKey(p.MatchID), data, s.cfg.MatchTTL).Err()
}

func (s *Storage) GetParticipants(ctx context.Context, matchID model.MatchID) ([]*model.Participant, error) {
	data, err := s.client.Get(ctx, participantsKey(matchID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*model.Participant{}, nil
		}
		return nil, err
	}

	var participants []*model.Participant
	if err := json.Unmarshal(data, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// Secret operations

func (s *Storage) SaveSecret(ctx context.Context, matchID model.MatchID, playerID model.PlayerID, secret string) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, secretKey(matchID, playerID), secret, s.cfg.SecretTTL)
	pipe.SAdd(ctx, secretsIndexKey(matchID), string(playerID))
	pipe.Expire(ctx, secretsIndexKey(matchID), s.cfg.SecretTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSecret(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) (string, error) {
	secret, err := s.client.Get(ctx, secretKey(matchID, playerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrSecretNotSet
		}
		return "", err
	}
	return secret, nil
}

func (s *Storage) DeleteSecrets(ctx context.Context, matchID model.MatchID) error {
	playerIDs, err := s.client.SMembers(ctx, secretsIndexKey(matchID)).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, playerID := range playerIDs {
		pipe.Del(ctx, secretKey(matchID, model.PlayerID(playerID)))
	}
	pipe.Del(ctx, secretsIndexKey(matchID))
	_, err = pipe.Exec(ctx)
	return err
}

// Guess operations

func (s *Storage) AppendGuess(ctx context.Context, guess *model.Guess) error {
	data, err := json.Marshal(guess)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, guessesKey(guess.MatchID), data)
	pipe.Expire(ctx, guessesKey(guess.MatchID), s.cfg.MatchTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGuesses(ctx context.Context, matchID model.MatchID) ([]*model.Guess, error) {
	entries, err := s.client.LRange(ctx, guessesKey(matchID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	guesses := make([]*model.Guess, 0, len(entries))
	for _, entry := range entries {
		var guess model.Guess
		if err := json.Unmarshal([]byte(entry), &guess); err != nil {
			return nil, err
		}
		guesses = append(guesses, &guess)
	}
	return guesses, nil
}

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.MatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, playerID := range []model.PlayerID{result.Player1ID, result.Player2ID} {
		if playerID == "" {
			continue
		}
		pipe.LPush(ctx, resultsKey(playerID), data)
		pipe.Expire(ctx, resultsKey(playerID), s.cfg.ResultTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetResultsForPlayer(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchResult, error) {
	end := int64(-1)
	if limit > 0 {
		end = int64(limit) - 1
	}

	entries, err := s.client.LRange(ctx, resultsKey(playerID), 0, end).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.MatchResult, 0, len(entries))
	for _, entry := range entries {
		var result model.MatchResult
		if err := json.Unmarshal([]byte(entry), &result); err != nil {
			return nil, err
		}
		results = append(results, &result)
	}
	return results, nil
}
