package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Match errors
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchNotAvailable = errors.New("match is not available to join")
	ErrMatchFull         = errors.New("match already has two participants")
	ErrAlreadyJoined     = errors.New("player has already joined this match")
	ErrNotInMatch        = errors.New("player is not in this match")
	ErrNotCreator        = errors.New("player is not the match creator")
	ErrAlreadyStarted    = errors.New("match has already started")
	ErrNotStartable      = errors.New("match is not ready to start")
	ErrMatchTerminal     = errors.New("match has already concluded")

	// Turn errors
	ErrNotPlayerTurn = errors.New("not this player's turn")
	ErrNotPlaying    = errors.New("match is not in play")

	// Input errors
	ErrInvalidDigits = errors.New("value must be four distinct digits 1-9")
	ErrSecretNotSet  = errors.New("secret has not been set")

	// Result errors
	ErrResultNotFound = errors.New("match result not found")
)
