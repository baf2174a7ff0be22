package redis

import (
	"fmt"

	"github.com/acrofts/digitduel/internal/model"
)

// Key prefix for all match-related data
const keyPrefix = "digitduel"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// accountKey returns the Redis key for an Account
func accountKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// matchKey returns the Redis key for a Match
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// codeIndexKey returns the Redis key for the code -> match_id index
func codeIndexKey(code model.MatchCode) string {
	return fmt.Sprintf("%s:idx:code:%s", keyPrefix, code)
}

// inviteeIndexKey returns the Redis key for the SET of matches inviting a player
func inviteeIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:invitee:%s", keyPrefix, playerID)
}

// participantsKey returns the Redis key for a match's participant list
func participantsKey(matchID model.MatchID) string {
	return fmt.Sprintf("%s:participants:%s", keyPrefix, matchID)
}

// secretKey returns the Redis key for a participant's secret
func secretKey(matchID model.MatchID, playerID model.PlayerID) string {
	return fmt.Sprintf("%s:secret:%s:%s", keyPrefix, matchID, playerID)
}

// secretsIndexKey returns the Redis key for the SET of secret keys for a match
func secretsIndexKey(matchID model.MatchID) string {
	return fmt.Sprintf("%s:idx:secrets:%s", keyPrefix, matchID)
}

// guessesKey returns the Redis key for a match's append-only guess log
func guessesKey(matchID model.MatchID) string {
	return fmt.Sprintf("%s:guesses:%s", keyPrefix, matchID)
}

// resultsKey returns the Redis key for a player's result history
func resultsKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:results:%s", keyPrefix, playerID)
}
