package handler

import (
	"net/http"

	"github.com/acrofts/digitduel/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeInvalidDigits      = apierr.CodeInvalidDigits
	CodeUnauthorized       = apierr.CodeUnauthorized
	CodeNotYourTurn        = apierr.CodeNotYourTurn
	CodePlayerNotFound     = apierr.CodePlayerNotFound
	CodeMatchNotFound      = apierr.CodeMatchNotFound
	CodeMatchNotAvailable  = apierr.CodeMatchNotAvailable
	CodeMatchFull          = apierr.CodeMatchFull
	CodeAlreadyJoined      = apierr.CodeAlreadyJoined
	CodeNotInMatch         = apierr.CodeNotInMatch
	CodeNotCreator         = apierr.CodeNotCreator
	CodeAlreadyStarted     = apierr.CodeAlreadyStarted
	CodeNotStartable       = apierr.CodeNotStartable
	CodeMatchOver          = apierr.CodeMatchOver
	CodeNotPlaying         = apierr.CodeNotPlaying
	CodeSecretNotSet       = apierr.CodeSecretNotSet
	CodeUsernameExists     = apierr.CodeUsernameExists
	CodeInvalidCredentials = apierr.CodeInvalidCredentials
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apierr.NewUnauthorizedError()
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}
