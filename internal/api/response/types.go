package response

import (
	"time"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/services/auth"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Match represents a match in API responses
type Match struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by"`
	InvitedID   string    `json:"invited_id,omitempty"`
	CurrentTurn string    `json:"current_turn,omitempty"`
	Winner      string    `json:"winner,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MatchFromModel converts a model.Match to a response Match
func MatchFromModel(m *model.Match) Match {
	return Match{
		ID:          string(m.ID),
		Code:        string(m.Code),
		Status:      string(m.Status),
		CreatedBy:   string(m.CreatedBy),
		InvitedID:   string(m.InvitedID),
		CurrentTurn: string(m.CurrentTurn),
		Winner:      string(m.Winner),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToModel converts a response Match back to a model.Match
func (m Match) ToModel() *model.Match {
	return &model.Match{
		ID:          model.MatchID(m.ID),
		Code:        model.MatchCode(m.Code),
		Status:      model.MatchStatus(m.Status),
		CreatedBy:   model.PlayerID(m.CreatedBy),
		InvitedID:   model.PlayerID(m.InvitedID),
		CurrentTurn: model.PlayerID(m.CurrentTurn),
		Winner:      model.PlayerID(m.Winner),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Participant represents a seat in a match
type Participant struct {
	MatchID  string    `json:"match_id"`
	PlayerID string    `json:"player_id"`
	Seat     int       `json:"seat"`
	Ready    bool      `json:"ready"`
	JoinedAt time.Time `json:"joined_at"`
}

// ParticipantFromModel converts a model.Participant
func ParticipantFromModel(p *model.Participant) Participant {
	return Participant{
		MatchID:  string(p.MatchID),
		PlayerID: string(p.PlayerID),
		Seat:     p.Seat,
		Ready:    p.Ready,
		JoinedAt: p.JoinedAt,
	}
}

// ToModel converts a response Participant back to a model.Participant
func (p Participant) ToModel() *model.Participant {
	return &model.Participant{
		MatchID:  model.MatchID(p.MatchID),
		PlayerID: model.PlayerID(p.PlayerID),
		Seat:     p.Seat,
		Ready:    p.Ready,
		JoinedAt: p.JoinedAt,
	}
}

// ParticipantsFromModel converts a slice of participants
func ParticipantsFromModel(participants []*model.Participant) []Participant {
	out := make([]Participant, len(participants))
	for i, p := range participants {
		out[i] = ParticipantFromModel(p)
	}
	return out
}

// Guess represents one scored guess
type Guess struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	GuesserID string    `json:"guesser_id"`
	Value     string    `json:"value"`
	Exact     int       `json:"exact"`
	Partial   int       `json:"partial"`
	CreatedAt time.Time `json:"created_at"`
}

// GuessFromModel converts a model.Guess
func GuessFromModel(g *model.Guess) Guess {
	return Guess{
		ID:        string(g.ID),
		MatchID:   string(g.MatchID),
		GuesserID: string(g.GuesserID),
		Value:     g.Value,
		Exact:     g.Exact,
		Partial:   g.Partial,
		CreatedAt: g.CreatedAt,
	}
}

// ToModel converts a response Guess back to a model.Guess
func (g Guess) ToModel() *model.Guess {
	return &model.Guess{
		ID:        model.GuessID(g.ID),
		MatchID:   model.MatchID(g.MatchID),
		GuesserID: model.PlayerID(g.GuesserID),
		Value:     g.Value,
		Exact:     g.Exact,
		Partial:   g.Partial,
		CreatedAt: g.CreatedAt,
	}
}

// GuessesFromModel converts a slice of guesses
func GuessesFromModel(guesses []*model.Guess) []Guess {
	out := make([]Guess, len(guesses))
	for i, g := range guesses {
		out[i] = GuessFromModel(g)
	}
	return out
}

// MatchWithParticipant is the response for create and join-by-code,
// which seat the caller as part of the operation
type MatchWithParticipant struct {
	Match       Match       `json:"match"`
	Participant Participant `json:"participant"`
}

// GuessResponse is the response after submitting a guess. It carries the
// match's resulting status so the guesser can react without a refetch.
type GuessResponse struct {
	Guess       Guess  `json:"guess"`
	Status      string `json:"status"`
	CurrentTurn string `json:"current_turn,omitempty"`
	Winner      string `json:"winner,omitempty"`
}

// MatchResult represents one entry of a player's match history
type MatchResult struct {
	MatchID         string    `json:"match_id"`
	Player1ID       string    `json:"player1_id"`
	Player2ID       string    `json:"player2_id,omitempty"`
	WinnerID        string    `json:"winner_id,omitempty"`
	Status          string    `json:"status"`
	Turns           int       `json:"turns"`
	DurationSeconds float64   `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// MatchResultFromModel converts a model.MatchResult
func MatchResultFromModel(r *model.MatchResult) MatchResult {
	return MatchResult{
		MatchID:         string(r.MatchID),
		Player1ID:       string(r.Player1ID),
		Player2ID:       string(r.Player2ID),
		WinnerID:        string(r.WinnerID),
		Status:          string(r.Status),
		Turns:           r.Turns,
		DurationSeconds: r.Duration.Seconds(),
		CreatedAt:       r.CreatedAt,
	}
}

// MatchResultsFromModel converts a slice of results
func MatchResultsFromModel(results []*model.MatchResult) []MatchResult {
	out := make([]MatchResult, len(results))
	for i, r := range results {
		out[i] = MatchResultFromModel(r)
	}
	return out
}

// MatchesFromModel converts a slice of matches
func MatchesFromModel(matches []*model.Match) []Match {
	out := make([]Match, len(matches))
	for i, m := range matches {
		out[i] = MatchFromModel(m)
	}
	return out
}
