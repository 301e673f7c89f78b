package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"cwl-tracker/internal/auth"
	"cwl-tracker/internal/clash"
	"cwl-tracker/internal/domain"
	"cwl-tracker/internal/middleware"
	"cwl-tracker/internal/service"
)

// LeaderboardStore is the read/delete slice of the tracked-player store
// the HTTP layer uses directly.
type LeaderboardStore interface {
	List(ctx context.Context) ([]domain.TrackedPlayer, error)
	Delete(ctx context.Context, id string) error
}

// Server wires every HTTP endpoint of the tracker: the upstream proxy
// gateway, roster screens, the push-event leaderboard, and the batch
// job triggers.
type Server struct {
	roster       *service.RosterService
	reconciler   *service.Reconciler
	refresher    *service.Refresher
	registration *service.Registration
	leaderboard  LeaderboardStore
	clashAPI     clash.API
	sessions     *auth.Manager
	logger       zerolog.Logger
}

func NewServer(
	roster *service.RosterService,
	reconciler *service.Reconciler,
	refresher *service.Refresher,
	registration *service.Registration,
	leaderboard LeaderboardStore,
	clashAPI clash.API,
	sessions *auth.Manager,
	logger zerolog.Logger,
) *Server {
	return &Server{
		roster:       roster,
		reconciler:   reconciler,
		refresher:    refresher,
		registration: registration,
		leaderboard:  leaderboard,
		clashAPI:     clashAPI,
		sessions:     sessions,
		logger:       logger,
	}
}

// Router builds the full route table. Mutating roster and leaderboard
// admin routes sit behind the session guard; job triggers stay open for
// the external scheduler, matching the original deployment.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/proxy", s.handleProxy)
	api.HandleFunc("/validate", s.handleValidateTag).Methods(http.MethodGet)

	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	api.HandleFunc("/roster", s.handleGetRoster).Methods(http.MethodGet)
	api.HandleFunc("/roster/search", s.handleSearchRoster).Methods(http.MethodGet)
	api.HandleFunc("/clans/{id}/check", s.handleCheckClan).Methods(http.MethodGet)

	api.HandleFunc("/leaderboard", s.handleGetLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/eod", s.handleGetEODLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/players", s.handleTrackPlayer).Methods(http.MethodPost)

	api.HandleFunc("/jobs/refresh", s.handleRefreshJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs/eod", s.handleEODJob).Methods(http.MethodPost)

	admin := api.PathPrefix("/").Subrouter()
	admin.Use(middleware.RequireAdmin(s.sessions))
	admin.HandleFunc("/roster/clans", s.handleReplaceClans).Methods(http.MethodPut)
	admin.HandleFunc("/roster/title", s.handleReplaceTitle).Methods(http.MethodPut)
	admin.HandleFunc("/leaderboard/players/{id}", s.handleDeletePlayer).Methods(http.MethodDelete)

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}
