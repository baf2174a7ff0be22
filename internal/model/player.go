package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents a participant profile
type Player struct {
	ID          PlayerID
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Account extends Player with authentication data
// Stored separately so credential material never travels with profile reads
type Account struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PresenceRecord is the ephemeral lobby presence payload a client tracks
// while its lobby subscription is live. It has no backing store; it only
// exists while the owning client keeps refreshing it.
type PresenceRecord struct {
	PlayerID    PlayerID  `json:"player_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	At          time.Time `json:"at"`
}
