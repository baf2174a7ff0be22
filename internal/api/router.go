package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acrofts/digitduel/internal/api/handler"
	apimiddleware "github.com/acrofts/digitduel/internal/api/middleware"
	"github.com/acrofts/digitduel/internal/middleware"
	"github.com/acrofts/digitduel/internal/services/auth"
	"github.com/acrofts/digitduel/internal/services/match"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	MatchController *match.Controller
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	matchHandler := handler.NewMatchHandler(cfg.MatchController)

	// Create middleware
	authMiddleware := apimiddleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)
	metricsMiddleware := middleware.Metrics(routeTemplate)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(metricsMiddleware)

	// Player routes (no auth required for registering/logging in)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/me", playerHandler.UpdateMe).Methods(http.MethodPatch)

	// Match routes (all require auth). Literal paths are registered
	// before the {id} patterns so "join", "history" and "invites" are
	// not swallowed as match ids.
	matches := api.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("", matchHandler.Create).Methods(http.MethodPost)
	matches.HandleFunc("/join", matchHandler.JoinByCode).Methods(http.MethodPost)
	matches.HandleFunc("/history", matchHandler.History).Methods(http.MethodGet)
	matches.HandleFunc("/invites", matchHandler.PendingInvites).Methods(http.MethodGet)
	matches.HandleFunc("/{id}", matchHandler.Get).Methods(http.MethodGet)
	matches.HandleFunc("/{id}/participants", matchHandler.GetParticipants).Methods(http.MethodGet)
	matches.HandleFunc("/{id}/guesses", matchHandler.GetGuesses).Methods(http.MethodGet)
	matches.HandleFunc("/{id}/join", matchHandler.Join).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/secret", matchHandler.SetSecret).Methods(http.MethodPut)
	matches.HandleFunc("/{id}/ready", matchHandler.SetReady).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/start", matchHandler.Start).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/guesses", matchHandler.Guess).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/abandon", matchHandler.Abandon).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Prometheus metrics outside the API prefix
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// routeTemplate labels metrics with the mux route template to keep
// cardinality bounded
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unknown"
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
