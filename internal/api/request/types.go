package request

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the request body for updating a player's profile
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// CreateMatchRequest is the request body for creating a match
type CreateMatchRequest struct {
	InvitedPlayerID string `json:"invited_player_id,omitempty"`
}

// JoinByCodeRequest is the request body for joining a match by code
type JoinByCodeRequest struct {
	Code string `json:"code"`
}

// SetSecretRequest is the request body for locking in a secret
type SetSecretRequest struct {
	Secret string `json:"secret"`
}

// GuessRequest is the request body for submitting a guess
type GuessRequest struct {
	Value string `json:"value"`
}
