package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/acrofts/digitduel/internal/api/apierr"
	"github.com/acrofts/digitduel/internal/api/request"
	"github.com/acrofts/digitduel/internal/api/response"
	"github.com/acrofts/digitduel/internal/model"
)

// Identity is the result of registering or logging in
type Identity struct {
	Player model.Player
	Token  string
}

// GuessResult is the outcome of a submitted guess, including the match
// state it produced so callers can react without an immediate refetch
type GuessResult struct {
	Guess       model.Guess
	Status      model.MatchStatus
	CurrentTurn model.PlayerID
	Winner      model.PlayerID
}

// Facade is the typed surface of the remote match API. All reads return
// authoritative state; realtime notifications only ever prompt callers
// to invoke these methods again.
type Facade interface {
	CreateMatch(ctx context.Context, invited model.PlayerID) (*model.Match, *model.Participant, error)
	JoinMatch(ctx context.Context, id model.MatchID) (*model.Participant, error)
	JoinMatchByCode(ctx context.Context, code model.MatchCode) (*model.Match, *model.Participant, error)
	FetchMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	FetchParticipants(ctx context.Context, id model.MatchID) ([]*model.Participant, error)
	FetchGuesses(ctx context.Context, id model.MatchID) ([]*model.Guess, error)
	SetSecret(ctx context.Context, id model.MatchID, secret string) error
	SetReady(ctx context.Context, id model.MatchID) error
	StartMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	SubmitGuess(ctx context.Context, id model.MatchID, value string) (*GuessResult, error)
	AbandonMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	FetchHistory(ctx context.Context, limit int) ([]*model.MatchResult, error)
	FetchPendingInvites(ctx context.Context) ([]*model.Match, error)
}

// APIError is an error response decoded from the server. Unwrap exposes
// the matching sentinel so callers can branch with errors.Is.
type APIError struct {
	Code    string
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap maps the wire code back onto the model sentinel
func (e *APIError) Unwrap() error {
	return codeSentinels[e.Code]
}

// codeSentinels maps wire error codes to the sentinels they originated from
var codeSentinels = map[string]error{
	apierr.CodePlayerNotFound:    model.ErrPlayerNotFound,
	apierr.CodeMatchNotFound:     model.ErrMatchNotFound,
	apierr.CodeMatchNotAvailable: model.ErrMatchNotAvailable,
	apierr.CodeMatchFull:         model.ErrMatchFull,
	apierr.CodeAlreadyJoined:     model.ErrAlreadyJoined,
	apierr.CodeNotInMatch:        model.ErrNotInMatch,
	apierr.CodeNotCreator:        model.ErrNotCreator,
	apierr.CodeAlreadyStarted:    model.ErrAlreadyStarted,
	apierr.CodeNotStartable:      model.ErrNotStartable,
	apierr.CodeMatchOver:         model.ErrMatchTerminal,
	apierr.CodeNotPlaying:        model.ErrNotPlaying,
	apierr.CodeNotYourTurn:       model.ErrNotPlayerTurn,
	apierr.CodeInvalidDigits:     model.ErrInvalidDigits,
	apierr.CodeSecretNotSet:      model.ErrSecretNotSet,
}

// HTTPFacade is the HTTP implementation of Facade
type HTTPFacade struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Ensure HTTPFacade implements Facade
var _ Facade = (*HTTPFacade)(nil)

// NewHTTPFacade creates a facade talking to the given server
func NewHTTPFacade(baseURL, token string) *HTTPFacade {
	return &HTTPFacade{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken updates the facade's session token
func (c *HTTPFacade) SetToken(token string) {
	c.token = token
}

// do performs an HTTP request against the API
func (c *HTTPFacade) do(ctx context.Context, method, path string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp apierr.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return &APIError{Code: errResp.Error.Code, Message: errResp.Error.Message}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Register creates an account and stores the resulting session token
func (c *HTTPFacade) Register(ctx context.Context, username, password, displayName string) (*Identity, error) {
	var resp response.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/players/register", request.RegisterRequest{
		Username:    username,
		Password:    password,
		DisplayName: displayName,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.adoptIdentity(resp), nil
}

// Login authenticates and stores the resulting session token
func (c *HTTPFacade) Login(ctx context.Context, username, password string) (*Identity, error) {
	var resp response.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/players/login", request.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.adoptIdentity(resp), nil
}

func (c *HTTPFacade) adoptIdentity(resp response.AuthResponse) *Identity {
	c.token = resp.SessionToken
	return &Identity{
		Player: model.Player{
			ID:          model.PlayerID(resp.Player.ID),
			DisplayName: resp.Player.DisplayName,
			AvatarURL:   resp.Player.AvatarURL,
		},
		Token: resp.SessionToken,
	}
}

// Health checks server liveness
func (c *HTTPFacade) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Me fetches the authenticated player's profile
func (c *HTTPFacade) Me(ctx context.Context) (*model.Player, error) {
	var resp response.Player
	if err := c.do(ctx, http.MethodGet, "/api/v1/players/me", nil, &resp); err != nil {
		return nil, err
	}
	return &model.Player{
		ID:          model.PlayerID(resp.ID),
		DisplayName: resp.DisplayName,
		AvatarURL:   resp.AvatarURL,
	}, nil
}

// UpdateProfile changes the authenticated player's display name and avatar
func (c *HTTPFacade) UpdateProfile(ctx context.Context, displayName, avatarURL string) (*model.Player, error) {
	var resp response.Player
	err := c.do(ctx, http.MethodPatch, "/api/v1/players/me", request.UpdateProfileRequest{
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &model.Player{
		ID:          model.PlayerID(resp.ID),
		DisplayName: resp.DisplayName,
		AvatarURL:   resp.AvatarURL,
	}, nil
}

// CreateMatch creates a waiting match, optionally targeting an invitee
func (c *HTTPFacade) CreateMatch(ctx context.Context, invited model.PlayerID) (*model.Match, *model.Participant, error) {
	var resp response.MatchWithParticipant
	err := c.do(ctx, http.MethodPost, "/api/v1/matches", request.CreateMatchRequest{
		InvitedPlayerID: string(invited),
	}, &resp)
	if err != nil {
		return nil, nil, err
	}
	return resp.Match.ToModel(), resp.Participant.ToModel(), nil
}

// JoinMatch takes the second seat of a known match
func (c *HTTPFacade) JoinMatch(ctx context.Context, id model.MatchID) (*model.Participant, error) {
	var resp response.Participant
	err := c.do(ctx, http.MethodPost, "/api/v1/matches/"+string(id)+"/join", nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.ToModel(), nil
}

// JoinMatchByCode joins a match via its shareable code
func (c *HTTPFacade) JoinMatchByCode(ctx context.Context, code model.MatchCode) (*model.Match, *model.Participant, error) {
	var resp response.MatchWithParticipant
	err := c.do(ctx, http.MethodPost, "/api/v1/matches/join", request.JoinByCodeRequest{
		Code: string(code),
	}, &resp)
	if err != nil {
		return nil, nil, err
	}
	return resp.Match.ToModel(), resp.Participant.ToModel(), nil
}

// FetchMatch reads a match's current state
func (c *HTTPFacade) FetchMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	var resp response.Match
	if err := c.do(ctx, http.MethodGet, "/api/v1/matches/"+string(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.ToModel(), nil
}

// FetchParticipants reads a match's seats
func (c *HTTPFacade) FetchParticipants(ctx context.Context, id model.MatchID) ([]*model.Participant, error) {
	var resp []response.Participant
	if err := c.do(ctx, http.MethodGet, "/api/v1/matches/"+string(id)+"/participants", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*model.Participant, len(resp))
	for i, p := range resp {
		out[i] = p.ToModel()
	}
	return out, nil
}

// FetchGuesses reads a match's guess log
func (c *HTTPFacade) FetchGuesses(ctx context.Context, id model.MatchID) ([]*model.Guess, error) {
	var resp []response.Guess
	if err := c.do(ctx, http.MethodGet, "/api/v1/matches/"+string(id)+"/guesses", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*model.Guess, len(resp))
	for i, g := range resp {
		out[i] = g.ToModel()
	}
	return out, nil
}

// SetSecret locks in the caller's secret for a match
func (c *HTTPFacade) SetSecret(ctx context.Context, id model.MatchID, secret string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/matches/"+string(id)+"/secret", request.SetSecretRequest{
		Secret: secret,
	}, nil)
}

// SetReady marks the caller ready
func (c *HTTPFacade) SetReady(ctx context.Context, id model.MatchID) error {
	return c.do(ctx, http.MethodPost, "/api/v1/matches/"+string(id)+"/ready", nil, nil)
}

// StartMatch begins play; only the creator may call it
func (c *HTTPFacade) StartMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	var resp response.Match
	if err := c.do(ctx, http.MethodPost, "/api/v1/matches/"+string(id)+"/start", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ToModel(), nil
}

// SubmitGuess submits a guess and returns its scored outcome
func (c *HTTPFacade) SubmitGuess(ctx context.Context, id model.MatchID, value string) (*GuessResult, error) {
	var resp response.GuessResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/matches/"+string(id)+"/guesses", request.GuessRequest{
		Value: value,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &GuessResult{
		Guess:       *resp.Guess.ToModel(),
		Status:      model.MatchStatus(resp.Status),
		CurrentTurn: model.PlayerID(resp.CurrentTurn),
		Winner:      model.PlayerID(resp.Winner),
	}, nil
}

// AbandonMatch terminates a match on the caller's behalf
func (c *HTTPFacade) AbandonMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	var resp response.Match
	if err := c.do(ctx, http.MethodPost, "/api/v1/matches/"+string(id)+"/abandon", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ToModel(), nil
}

// FetchHistory reads the caller's concluded matches, newest first
func (c *HTTPFacade) FetchHistory(ctx context.Context, limit int) ([]*model.MatchResult, error) {
	path := "/api/v1/matches/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp []response.MatchResult
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]*model.MatchResult, len(resp))
	for i, r := range resp {
		out[i] = &model.MatchResult{
			MatchID:   model.MatchID(r.MatchID),
			Player1ID: model.PlayerID(r.Player1ID),
			Player2ID: model.PlayerID(r.Player2ID),
			WinnerID:  model.PlayerID(r.WinnerID),
			Status:    model.MatchStatus(r.Status),
			Turns:     r.Turns,
			Duration:  time.Duration(r.DurationSeconds * float64(time.Second)),
			CreatedAt: r.CreatedAt,
		}
	}
	return out, nil
}

// FetchPendingInvites reads waiting matches that invited the caller
func (c *HTTPFacade) FetchPendingInvites(ctx context.Context) ([]*model.Match, error) {
	var resp []response.Match
	if err := c.do(ctx, http.MethodGet, "/api/v1/matches/invites", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*model.Match, len(resp))
	for i, m := range resp {
		out[i] = m.ToModel()
	}
	return out, nil
}
