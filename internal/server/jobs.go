package server

import (
	"net/http"
)

// handleRefreshJob is the scheduler-facing trigger for the bulk trophy
// refresh. It always completes: per-player failures are folded into
// the summary counts instead of failing the request.
func (s *Server) handleRefreshJob(w http.ResponseWriter, r *http.Request) {
	summary, err := s.refresher.RefreshAll(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("refresh job failed")
		s.writeMessage(w, http.StatusInternalServerError, "Refresh job failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Live leaderboard refreshed successfully",
		"summary": summary,
	})
}

// handleEODJob snapshots every tracked player into one new immutable
// EOD record.
func (s *Server) handleEODJob(w http.ResponseWriter, r *http.Request) {
	record, err := s.refresher.RecordEOD(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("eod job failed")
		s.writeMessage(w, http.StatusInternalServerError, "EOD job failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":        "EOD record created successfully",
		"recordsCreated": len(record.Records),
		"recordedAt":     record.RecordedAt,
	})
}
