package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// MatchCode is a human-shareable identifier for joining matches
type MatchCode string

// MatchStatus represents the current phase of a match
type MatchStatus string

const (
	MatchStatusWaiting   MatchStatus = "waiting"   // Creator seated, waiting for an opponent
	MatchStatusReady     MatchStatus = "ready"     // Both seats filled, secrets being locked
	MatchStatusPlaying   MatchStatus = "playing"   // Turns in progress
	MatchStatusFinished  MatchStatus = "finished"  // A guess fully matched a secret
	MatchStatusAbandoned MatchStatus = "abandoned" // A participant left mid-match
)

// IsTerminal reports whether no further transitions are possible.
// Terminal matches are read-only: the backend accepts no more guesses
// or secret submissions.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusFinished || s == MatchStatusAbandoned
}

// Match represents one game session between exactly two participants.
// The backend owns it; clients hold read-only snapshots replaced wholesale
// on every refresh.
type Match struct {
	ID        MatchID
	Code      MatchCode
	Status    MatchStatus
	CreatedBy PlayerID
	InvitedID PlayerID // optional; empty when the match is open to join-by-code
	// CurrentTurn is the participant permitted to guess; empty until playing
	CurrentTurn PlayerID
	Winner      PlayerID // empty until finished/abandoned (or on a tie-less abandon of an empty match)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Participant is a player's seat in a match. At most two per match;
// seat 1 is always the creator.
type Participant struct {
	MatchID  MatchID
	PlayerID PlayerID
	Seat     int // 1 or 2, assigned by join order
	Ready    bool
	JoinedAt time.Time
}

// GuessID uniquely identifies a guess
type GuessID string

// Guess is one attempt with its feedback counts. The sequence of guesses
// for a match is append-only, ordered by creation time.
type Guess struct {
	ID        GuessID
	MatchID   MatchID
	GuesserID PlayerID
	Value     string // 4 digits, 1-9, pairwise distinct
	Exact     int    // digits correct in value and position
	Partial   int    // digits correct in value only
	CreatedAt time.Time
}

// MatchResult is the lightweight record of a concluded match kept for history
type MatchResult struct {
	MatchID   MatchID
	Player1ID PlayerID
	Player2ID PlayerID
	WinnerID  PlayerID // empty when no winner was determined
	Status    MatchStatus
	Turns     int
	Duration  time.Duration
	CreatedAt time.Time
}
