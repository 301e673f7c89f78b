package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"cwl-tracker/internal/repository"
	"cwl-tracker/internal/service"
)

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	players, err := s.leaderboard.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list tracked players")
		s.writeMessage(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

func (s *Server) handleGetEODLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := s.refresher.EODStandings(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build eod standings")
		s.writeMessage(w, http.StatusInternalServerError, "Failed to load EOD leaderboard")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"standings": standings})
}

func (s *Server) handleTrackPlayer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PlayerTag       string `json:"player_tag"`
		DiscordUsername string `json:"discord_username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	player, err := s.registration.Track(r.Context(), payload.PlayerTag, payload.DiscordUsername)
	switch {
	case errors.Is(err, service.ErrMissingField):
		s.writeMessage(w, http.StatusBadRequest, "Player tag and discord username are required")
	case errors.Is(err, service.ErrInvalidTag):
		s.writeMessage(w, http.StatusNotFound, "Player not found. Please check the tag and try again.")
	case errors.Is(err, repository.ErrDuplicateTag):
		s.writeMessage(w, http.StatusConflict, "This player is already being tracked")
	case err != nil:
		s.logger.Error().Err(err).Str("tag", payload.PlayerTag).Msg("player registration failed")
		s.writeMessage(w, http.StatusInternalServerError, "Failed to track player")
	default:
		s.writeJSON(w, http.StatusCreated, player)
	}
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := s.leaderboard.Delete(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotTracked):
		s.writeMessage(w, http.StatusNotFound, "Player not tracked")
	case err != nil:
		s.logger.Error().Err(err).Str("id", id).Msg("failed to delete tracked player")
		s.writeMessage(w, http.StatusInternalServerError, "Failed to delete player")
	default:
		s.writeMessage(w, http.StatusOK, "Player deleted")
	}
}

func (s *Server) handleValidateTag(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		s.writeMessage(w, http.StatusBadRequest, "Missing player tag parameter")
		return
	}

	valid, err := s.registration.Validate(r.Context(), tag)
	if err != nil {
		s.logger.Error().Err(err).Str("tag", tag).Msg("tag validation failed")
		s.writeMessage(w, http.StatusInternalServerError, "Failed to validate tag")
		return
	}
	if !valid {
		s.writeJSON(w, http.StatusNotFound, map[string]any{"valid": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}
