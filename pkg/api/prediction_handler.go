package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

const (
	defaultPredictionsLimit = 20
	maxPredictionsLimit     = 500
	maxRequestBody          = 1 << 20
)

// handlePredict handles POST /api/v1/predict
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFeatures(w, r)
	if !ok {
		return
	}

	result, err := s.service.Predict(f)
	if err != nil {
		log.Warn().
			Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Msg("Prediction rejected")
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// handleSimilar handles POST /api/v1/similar
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFeatures(w, r)
	if !ok {
		return
	}

	result, err := s.service.Similar(f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// handleListPredictions handles GET /api/v1/predictions?limit=N
func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultPredictionsLimit, maxPredictionsLimit)
	if err != nil {
		writeBadRequestResponse(w, err.Error())
		return
	}

	records, err := s.service.RecentPredictions(limit)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	total, err := s.service.PredictionCount()
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"predictions": records,
		"count":       len(records),
		"total":       total,
	})
}

// handleGetPrediction handles GET /api/v1/predictions/{id}
func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.Prediction(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, record)
}

// decodeFeatures reads and validates a nine-feature body. It writes a 400
// and returns false when the body is unusable.
func decodeFeatures(w http.ResponseWriter, r *http.Request) (models.Features, bool) {
	var req models.PredictionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Invalid request body: %v", err))
		return models.Features{}, false
	}
	if err := req.Validate(); err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Invalid request: %v", err))
		return models.Features{}, false
	}
	return req.Features(), true
}
