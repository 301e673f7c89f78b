package server

import (
	"context"
	"net/http"

	"cwl-tracker/internal/constants"
)

// handleProxy is the 1:1 translator in front of the upstream game API:
// it validates the two recognized query params, attaches the bearer
// credential server-side, and relays the upstream status and body
// verbatim. No retries, no state.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	tag := r.URL.Query().Get("tag")
	endpoint := r.URL.Query().Get("endpoint")

	if tag == "" || endpoint == "" {
		s.writeMessage(w, http.StatusBadRequest, "Missing tag or endpoint parameter")
		return
	}
	if endpoint != "members" && endpoint != "player" {
		s.writeMessage(w, http.StatusBadRequest, "Invalid endpoint specified")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.ExternalAPITimeout)
	defer cancel()

	status, body, err := s.clashAPI.Raw(ctx, endpoint, tag)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("endpoint", endpoint).
			Str("tag", tag).
			Msg("proxy request failed")
		s.writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	if status != http.StatusOK {
		s.logger.Warn().
			Int("status", status).
			Str("endpoint", endpoint).
			Str("tag", tag).
			Msg("upstream error relayed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to write proxy response")
	}
}
