package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"cwl-tracker/internal/domain"
)

func (s *Server) handleGetRoster(w http.ResponseWriter, r *http.Request) {
	data, err := s.roster.Get(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load roster")
		s.writeMessage(w, http.StatusInternalServerError, "Failed to load roster")
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleReplaceClans(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Clans []domain.Clan `json:"clans"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.roster.ReplaceClans(r.Context(), payload.Clans); err != nil {
		s.logger.Error().Err(err).Msg("failed to replace clans")
		s.writeMessage(w, http.StatusInternalServerError, "Failed to save clans")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"clans": payload.Clans})
}

func (s *Server) handleReplaceTitle(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.roster.ReplaceTitle(r.Context(), payload.Title); err != nil {
		s.logger.Error().Err(err).Msg("failed to replace title")
		s.writeMessage(w, http.StatusInternalServerError, "Failed to save title")
		return
	}
	s.writeMessage(w, http.StatusOK, "Title saved")
}

func (s *Server) handleSearchRoster(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeMessage(w, http.StatusBadRequest, "Missing q parameter")
		return
	}

	results, err := s.roster.Search(r.Context(), query)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("roster search failed")
		s.writeMessage(w, http.StatusInternalServerError, "Search failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleCheckClan reconciles one clan's roster against its live member
// list. A failed member fetch comes back as 502 so the UI can offer a
// retry instead of rendering everyone as missing.
func (s *Server) handleCheckClan(w http.ResponseWriter, r *http.Request) {
	clanID := mux.Vars(r)["id"]

	data, err := s.roster.Get(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load roster")
		s.writeMessage(w, http.StatusInternalServerError, "Failed to load roster")
		return
	}

	var clan *domain.Clan
	for i := range data.Clans {
		if data.Clans[i].ID == clanID {
			clan = &data.Clans[i]
			break
		}
	}
	if clan == nil {
		s.writeMessage(w, http.StatusNotFound, "Clan not found")
		return
	}

	check, err := s.reconciler.CheckClan(r.Context(), *clan)
	if err != nil {
		s.logger.Error().Err(err).Str("clan_tag", clan.Tag).Msg("clan check failed")
		s.writeMessage(w, http.StatusBadGateway, "Failed to fetch live clan data")
		return
	}
	s.writeJSON(w, http.StatusOK, check)
}
