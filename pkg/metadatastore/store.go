package metadatastore

import (
	"errors"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

// ErrNotFound is returned when a prediction id is not in the log
var ErrNotFound = errors.New("prediction not found")

// PredictionStore is the log of served predictions. It lives as long as the
// process; nothing is written to disk.
type PredictionStore interface {
	SavePrediction(record *models.PredictionRecord) error
	GetPrediction(id string) (*models.PredictionRecord, error)
	ListRecentPredictions(limit int) ([]*models.PredictionRecord, error)
	CountPredictions() (int, error)
	Close() error
}
