package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/acrofts/digitduel/internal/api/middleware"
	"github.com/acrofts/digitduel/internal/api/request"
	"github.com/acrofts/digitduel/internal/api/response"
	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/services/match"
)

// defaultHistoryLimit caps history responses when the client asks for no limit
const defaultHistoryLimit = 50

// MatchHandler handles match-related endpoints
type MatchHandler struct {
	controller *match.Controller
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(controller *match.Controller) *MatchHandler {
	return &MatchHandler{
		controller: controller,
	}
}

// matchID extracts the match id path variable
func matchID(r *http.Request) model.MatchID {
	return model.MatchID(mux.Vars(r)["id"])
}

// Create handles POST /api/v1/matches
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateMatchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, NewInvalidRequestError("invalid request body"))
			return
		}
	}

	player := middleware.MustGetPlayer(r.Context())
	m, p, err := h.controller.CreateMatch(r.Context(), player.ID, model.PlayerID(req.InvitedPlayerID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MatchWithParticipant{
		Match:       response.MatchFromModel(m),
		Participant: response.ParticipantFromModel(p),
	})
}

// Get handles GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.controller.GetMatch(r.Context(), matchID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

// GetParticipants handles GET /api/v1/matches/{id}/participants
func (h *MatchHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.controller.GetParticipants(r.Context(), matchID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ParticipantsFromModel(participants))
}

// GetGuesses handles GET /api/v1/matches/{id}/guesses
func (h *MatchHandler) GetGuesses(w http.ResponseWriter, r *http.Request) {
	guesses, err := h.controller.GetGuesses(r.Context(), matchID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GuessesFromModel(guesses))
}

// Join handles POST /api/v1/matches/{id}/join
func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	p, err := h.controller.JoinMatch(r.Context(), matchID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ParticipantFromModel(p))
}

// JoinByCode handles POST /api/v1/matches/join
func (h *MatchHandler) JoinByCode(w http.ResponseWriter, r *http.Request) {
	var req request.JoinByCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Code == "" {
		WriteError(w, NewInvalidRequestError("code is required"))
		return
	}

	player := middleware.MustGetPlayer(r.Context())
	m, p, err := h.controller.JoinMatchByCode(r.Context(), model.MatchCode(req.Code), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchWithParticipant{
		Match:       response.MatchFromModel(m),
		Participant: response.ParticipantFromModel(p),
	})
}

// SetSecret handles PUT /api/v1/matches/{id}/secret
func (h *MatchHandler) SetSecret(w http.ResponseWriter, r *http.Request) {
	var req request.SetSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player := middleware.MustGetPlayer(r.Context())
	if err := h.controller.SetSecret(r.Context(), matchID(r), player.ID, req.Secret); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetReady handles POST /api/v1/matches/{id}/ready
func (h *MatchHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	if err := h.controller.SetReady(r.Context(), matchID(r), player.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Start handles POST /api/v1/matches/{id}/start
func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	m, err := h.controller.GetMatch(r.Context(), matchID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	if m.CreatedBy != player.ID {
		WriteError(w, model.ErrNotCreator)
		return
	}

	started, err := h.controller.StartMatch(r.Context(), m.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(started))
}

// Guess handles POST /api/v1/matches/{id}/guesses
func (h *MatchHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var req request.GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player := middleware.MustGetPlayer(r.Context())
	guess, m, err := h.controller.SubmitGuess(r.Context(), matchID(r), player.ID, req.Value)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GuessResponse{
		Guess:       response.GuessFromModel(guess),
		Status:      string(m.Status),
		CurrentTurn: string(m.CurrentTurn),
		Winner:      string(m.Winner),
	})
}

// Abandon handles POST /api/v1/matches/{id}/abandon
func (h *MatchHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	m, err := h.controller.AbandonMatch(r.Context(), matchID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

// History handles GET /api/v1/matches/history
func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	player := middleware.MustGetPlayer(r.Context())
	results, err := h.controller.GetHistory(r.Context(), player.ID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchResultsFromModel(results))
}

// PendingInvites handles GET /api/v1/matches/invites
func (h *MatchHandler) PendingInvites(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	matches, err := h.controller.GetPendingInvites(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchesFromModel(matches))
}
