package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidDigits      = "INVALID_DIGITS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotYourTurn        = "NOT_YOUR_TURN"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeMatchNotFound      = "MATCH_NOT_FOUND"
	CodeMatchNotAvailable  = "MATCH_NOT_AVAILABLE"
	CodeMatchFull          = "MATCH_FULL"
	CodeAlreadyJoined      = "ALREADY_JOINED"
	CodeNotInMatch         = "NOT_IN_MATCH"
	CodeNotCreator         = "NOT_CREATOR"
	CodeAlreadyStarted     = "ALREADY_STARTED"
	CodeNotStartable       = "NOT_STARTABLE"
	CodeMatchOver          = "MATCH_OVER"
	CodeNotPlaying         = "NOT_PLAYING"
	CodeSecretNotSet       = "SECRET_NOT_SET"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrMatchNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMatchNotFound, "Match not found"}}
	case errors.Is(err, model.ErrMatchNotAvailable):
		return &httpError{http.StatusConflict, APIError{CodeMatchNotAvailable, "Match is not open for joining"}}
	case errors.Is(err, model.ErrMatchFull):
		return &httpError{http.StatusConflict, APIError{CodeMatchFull, "Match already has two participants"}}
	case errors.Is(err, model.ErrAlreadyJoined):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyJoined, "Already joined this match"}}
	case errors.Is(err, model.ErrNotInMatch):
		return &httpError{http.StatusForbidden, APIError{CodeNotInMatch, "Not a participant of this match"}}
	case errors.Is(err, model.ErrNotCreator):
		return &httpError{http.StatusForbidden, APIError{CodeNotCreator, "Only the creator can start the match"}}
	case errors.Is(err, model.ErrAlreadyStarted):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyStarted, "Match has already started"}}
	case errors.Is(err, model.ErrNotStartable):
		return &httpError{http.StatusConflict, APIError{CodeNotStartable, "Both participants must be ready with secrets locked"}}
	case errors.Is(err, model.ErrMatchTerminal):
		return &httpError{http.StatusConflict, APIError{CodeMatchOver, "Match is already over"}}
	case errors.Is(err, model.ErrNotPlaying):
		return &httpError{http.StatusConflict, APIError{CodeNotPlaying, "Match is not in progress"}}
	case errors.Is(err, model.ErrNotPlayerTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, "Not your turn"}}
	case errors.Is(err, model.ErrInvalidDigits):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDigits, "Value must be 4 distinct digits 1-9"}}
	case errors.Is(err, model.ErrSecretNotSet):
		return &httpError{http.StatusConflict, APIError{CodeSecretNotSet, "Secret has not been locked in"}}
	case errors.Is(err, model.ErrResultNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMatchNotFound, "Result not found"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
