package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players       map[model.PlayerID]*model.Player
	accounts      map[model.PlayerID]*model.Account
	usernameIndex map[string]model.PlayerID
	matches       map[model.MatchID]*model.Match
	codeIndex     map[model.MatchCode]model.MatchID
	participants  map[model.MatchID][]*model.Participant
	secrets       map[secretKey]string
	guesses       map[model.MatchID][]*model.Guess
	results       map[model.PlayerID][]*model.MatchResult
}

type secretKey struct {
	matchID  model.MatchID
	playerID model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:       make(map[model.PlayerID]*model.Player),
		accounts:      make(map[model.PlayerID]*model.Account),
		usernameIndex: make(map[string]model.PlayerID),
		matches:       make(map[model.MatchID]*model.Match),
		codeIndex:     make(map[model.MatchCode]model.MatchID),
		participants:  make(map[model.MatchID][]*model.Participant),
		secrets:       make(map[secretKey]string),
		guesses:       make(map[model.MatchID][]*model.Guess),
		results:       make(map[model.PlayerID][]*model.MatchResult),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *player
	s.players[player.ID] = &cp
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *player
	return &cp, nil
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *account
	s.accounts[account.PlayerID] = &cp
	s.usernameIndex[account.Username] = account.PlayerID
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, playerID model.PlayerID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	account, ok := s.accounts[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *account
	return &cp, nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *match
	s.matches[match.ID] = &cp
	s.codeIndex[match.Code] = match.ID
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	cp := *match
	return &cp, nil
}

func (s *Storage) GetMatchByCode(ctx context.Context, code model.MatchCode) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	cp := *match
	return &cp, nil
}

func (s *Storage) MatchCodeExists(ctx context.Context, code model.MatchCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codeIndex[code]
	return ok, nil
}

func (s *Storage) ListMatchesByInvitee(ctx context.Context, playerID model.PlayerID, status model.MatchStatus) ([]*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []*model.Match
	for _, m := range s.matches {
		if m.InvitedID == playerID && m.Status == status {
			cp := *m
			matches = append(matches, &cp)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

// Participant operations

func (s *Storage) SaveParticipant(ctx context.Context, p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	existing := s.participants[p.MatchID]
	for i, e := range existing {
		if e.PlayerID == p.PlayerID {
			existing[i] = &cp
			return nil
		}
	}
	s.participants[p.MatchID] = append(existing, &cp)
	return nil
}

func (s *Storage) GetParticipants(ctx context.Context, matchID model.MatchID) ([]*model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participants := make([]*model.Participant, 0, len(s.participants[matchID]))
	for _, p := range s.participants[matchID] {
		cp := *p
		participants = append(participants, &cp)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Seat < participants[j].Seat
	})
	return participants, nil
}

// Secret operations

func (s *Storage) SaveSecret(ctx context.Context, matchID model.MatchID, playerID model.PlayerID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[secretKey{matchID, playerID}] = secret
	return nil
}

func (s *Storage) GetSecret(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[secretKey{matchID, playerID}]
	if !ok {
		return "", model.ErrSecretNotSet
	}
	return secret, nil
}

func (s *Storage) DeleteSecrets(ctx context.Context, matchID model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.secrets {
		if key.matchID == matchID {
			delete(s.secrets, key)
		}
	}
	return nil
}

// Guess operations

func (s *Storage) AppendGuess(ctx context.Context, guess *model.Guess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *guess
	s.guesses[guess.MatchID] = append(s.guesses[guess.MatchID], &cp)
	return nil
}

func (s *Storage) GetGuesses(ctx context.Context, matchID model.MatchID) ([]*model.Guess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	guesses := make([]*model.Guess, 0, len(s.guesses[matchID]))
	for _, g := range s.guesses[matchID] {
		cp := *g
		guesses = append(guesses, &cp)
	}
	return guesses, nil
}

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, playerID := range []model.PlayerID{result.Player1ID, result.Player2ID} {
		if playerID == "" {
			continue
		}
		cp := *result
		// Newest first
		s.results[playerID] = append([]*model.MatchResult{&cp}, s.results[playerID]...)
	}
	return nil
}

func (s *Storage) GetResultsForPlayer(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.results[playerID]
	if limit <= 0 || limit > len(stored) {
		limit = len(stored)
	}
	results := make([]*model.MatchResult, 0, limit)
	for _, r := range stored[:limit] {
		cp := *r
		results = append(results, &cp)
	}
	return results, nil
}
