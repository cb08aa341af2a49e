package api

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// handleModelInfo handles GET /api/v1/model
func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, snap.Info)
}

// handleRefreshStatus handles GET /api/v1/refresh
func (s *Server) handleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	if s.refresh == nil {
		writeErrorResponse(w, http.StatusNotFound, "Model refresh is not configured")
		return
	}
	writeJSONResponse(w, http.StatusOK, s.refresh.Status())
}

// handleRefresh handles POST /api/v1/refresh. The dataset is re-read and the
// model rebuilt only when the file content changed.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresh == nil {
		writeErrorResponse(w, http.StatusNotFound, "Model refresh is not configured")
		return
	}

	rebuilt, err := s.refresh.RunNow(r.Context())
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Msg("Manual model refresh failed, keeping current model")
		writeInternalServerErrorResponse(w, err.Error())
		return
	}

	resp := map[string]interface{}{
		"rebuilt": rebuilt,
		"status":  s.refresh.Status(),
	}
	if snap, err := s.service.Snapshot(); err == nil {
		resp["fingerprint"] = snap.Info.Fingerprint
	}
	writeJSONResponse(w, http.StatusOK, resp)
}
