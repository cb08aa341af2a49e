package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mimir-aip/diamond-price/pkg/metadatastore"
	"github.com/mimir-aip/diamond-price/pkg/mlmodel"
	"github.com/mimir-aip/diamond-price/pkg/mlmodel/training"
)

// writeJSONResponse writes a JSON response with the given status code. The
// body is encoded before the status line so an encoding failure becomes a 500.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{
			"error":  "failed to encode response",
			"status": "error",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	body = append(body, '\n')
	if _, err := w.Write(body); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

// writeErrorResponse writes the standard error envelope
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]string{
		"error":  message,
		"status": "error",
	})
}

func writeBadRequestResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusBadRequest, message)
}

func writeInternalServerErrorResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusInternalServerError, message)
}

// writeServiceError maps service errors to status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var unknown *training.UnknownCategoryError
	var outOfRange *training.FeatureRangeError
	switch {
	case errors.Is(err, mlmodel.ErrNotReady):
		writeErrorResponse(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, metadatastore.ErrNotFound):
		writeErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unknown):
		writeErrorResponse(w, http.StatusUnprocessableEntity, unknown.Error())
	case errors.As(err, &outOfRange):
		writeErrorResponse(w, http.StatusUnprocessableEntity, outOfRange.Error())
	case errors.Is(err, training.ErrNonFinitePrice):
		writeErrorResponse(w, http.StatusUnprocessableEntity, training.ErrNonFinitePrice.Error())
	default:
		writeInternalServerErrorResponse(w, err.Error())
	}
}

// parseLimit reads the limit query parameter, falling back to def
func parseLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", max)
	}
	return n, nil
}
