package model

// EventType names a change notification on a realtime channel.
// Notifications are pure trigger-to-refresh signals: their payloads are
// only ever used to filter relevance, never applied to state directly.
type EventType string

const (
	// Per-match channel events
	EventPlayerJoined EventType = "player_joined"
	EventPlayerReady  EventType = "player_ready"
	EventGameStarted  EventType = "game_started"
	EventGuessMade    EventType = "guess_made"
	EventTurnChanged  EventType = "turn_changed"
	EventGameFinished EventType = "game_finished"

	// Lobby channel events
	EventGameInvite     EventType = "game_invite"
	EventInviteDeclined EventType = "invite_declined"
	EventInviteAccepted EventType = "invite_accepted"
)

// MatchEvents is the fixed set of notifications a match subscriber treats
// as refresh triggers.
var MatchEvents = []EventType{
	EventPlayerJoined,
	EventPlayerReady,
	EventGameStarted,
	EventGuessMade,
	EventTurnChanged,
	EventGameFinished,
}

// Notification is the envelope published on a per-match channel.
// MatchID tags every payload so subscribers can filter relevance.
type Notification struct {
	MatchID MatchID  `json:"match_id"`
	Turn    PlayerID `json:"turn,omitempty"`   // turn_changed: new turn owner
	Winner  PlayerID `json:"winner,omitempty"` // game_finished: winner
}

// Invite is the transient lobby payload for game_invite. It is never
// persisted; on a receiving client at most one pending invite exists at
// a time and a newer one replaces an older unacknowledged one.
type Invite struct {
	FromPlayerID    PlayerID  `json:"from_player_id"`
	FromDisplayName string    `json:"from_display_name"`
	MatchID         MatchID   `json:"match_id"`
	MatchCode       MatchCode `json:"match_code"`
}

// InviteDecision is the lobby payload for invite_declined / invite_accepted
type InviteDecision struct {
	MatchID  MatchID  `json:"match_id"`
	PlayerID PlayerID `json:"player_id"`
}
