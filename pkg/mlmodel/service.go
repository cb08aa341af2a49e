package mlmodel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mimir-aip/diamond-price/pkg/dataset"
	"github.com/mimir-aip/diamond-price/pkg/metadatastore"
	"github.com/mimir-aip/diamond-price/pkg/metric"
	"github.com/mimir-aip/diamond-price/pkg/mlmodel/training"
	"github.com/mimir-aip/diamond-price/pkg/models"
)

// ErrNotReady is returned while no model has been built yet
var ErrNotReady = errors.New("model is not ready")

// Snapshot is one immutable pairing of a prepared dataset with the model
// trained on it. Handlers read it without locking.
type Snapshot struct {
	Dataset      *dataset.Dataset
	Bundle       *training.Bundle
	Info         *models.ModelInfo
	AveragePrice float64
}

// Build prepares the dataset at path and trains a model on it
func Build(ctx context.Context, path string, opts training.Options) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err := dataset.Prepare(path)
	if err != nil {
		return nil, err
	}
	metric.Gauge(metric.DatasetRows, float64(ds.Len()), nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bundle, err := training.Train(ctx, ds, opts)
	if err != nil {
		metric.Incr(metric.TrainingCount, metric.BuildTag(metric.TagResult, "error"))
		return nil, fmt.Errorf("failed to train model on %s: %w", path, err)
	}
	metric.Incr(metric.TrainingCount, metric.BuildTag(metric.TagResult, "ok"))
	metric.Timing(metric.TrainingLatency, bundle.Duration, nil)
	metric.Gauge(metric.ModelSupportVectors, float64(bundle.Model.SupportVectors()), nil)

	info := bundle.Info()
	info.DatasetSource = ds.Source()
	info.Fingerprint = ds.FingerprintHex()

	return &Snapshot{
		Dataset:      ds,
		Bundle:       bundle,
		Info:         info,
		AveragePrice: ds.MeanPrice(),
	}, nil
}

// Service serves predictions from the current snapshot and logs them
type Service struct {
	dataPath string
	options  training.Options
	store    metadatastore.PredictionStore

	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
}

// NewService creates a new ML model service. Call Load before serving.
func NewService(dataPath string, options training.Options, store metadatastore.PredictionStore) *Service {
	return &Service{
		dataPath: dataPath,
		options:  options,
		store:    store,
	}
}

// Load builds the first snapshot
func (s *Service) Load(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	snap, err := Build(ctx, s.dataPath, s.options)
	if err != nil {
		return err
	}
	s.current.Store(snap)
	log.Info().
		Str("fingerprint", snap.Info.Fingerprint).
		Int("rows", snap.Dataset.Len()).
		Msg("Model ready")
	return nil
}

// Snapshot returns the snapshot currently serving requests
func (s *Service) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Ready reports whether a snapshot is available
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

// Refresh rebuilds the snapshot when the source file content changed. On
// failure the current snapshot keeps serving.
func (s *Service) Refresh(ctx context.Context) (bool, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	fp, err := dataset.Fingerprint(s.dataPath)
	if err != nil {
		return false, err
	}
	if cur := s.current.Load(); cur != nil && cur.Dataset.Fingerprint() == fp {
		log.Debug().Str("source", s.dataPath).Msg("Dataset unchanged, keeping current model")
		return false, nil
	}

	snap, err := Build(ctx, s.dataPath, s.options)
	if err != nil {
		return false, err
	}
	s.current.Store(snap)
	log.Info().Str("fingerprint", snap.Info.Fingerprint).Msg("Model refreshed")
	return true, nil
}

// Predict prices one diamond, compares it with the dataset average and
// lists similar diamonds. Each served prediction is written to the log.
func (s *Service) Predict(f models.Features) (*models.PredictionResult, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	price, err := PredictOne(snap.Bundle, f)
	if err != nil {
		var unknown *training.UnknownCategoryError
		if errors.As(err, &unknown) {
			metric.Incr(metric.UnknownCategory, metric.BuildTag(metric.TagColumn, unknown.Column))
		}
		return nil, err
	}

	result := &models.PredictionResult{
		ID:               uuid.New().String(),
		Features:         f,
		PredictedPrice:   price,
		AveragePrice:     snap.AveragePrice,
		Comparison:       compare(price, snap.AveragePrice),
		Difference:       math.Abs(price - snap.AveragePrice),
		Similar:          snap.Dataset.Similar(f, dataset.SimilarCaratRadius, dataset.SimilarLimit),
		ModelFingerprint: snap.Info.Fingerprint,
		CreatedAt:        time.Now().UTC(),
	}
	metric.Timing(metric.PredictionLatency, time.Since(start), nil)
	metric.Incr(metric.PredictionCount, nil)

	if s.store != nil {
		record := &models.PredictionRecord{
			ID:               result.ID,
			Features:         f,
			PredictedPrice:   price,
			ModelFingerprint: result.ModelFingerprint,
			CreatedAt:        result.CreatedAt,
		}
		if err := s.store.SavePrediction(record); err != nil {
			log.Warn().Err(err).Str("prediction_id", result.ID).Msg("Failed to log prediction")
		}
	}

	return result, nil
}

// Similar lists dataset diamonds of the same grade within half a carat
func (s *Service) Similar(f models.Features) (*models.SimilarResult, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Dataset.Similar(f, dataset.SimilarCaratRadius, dataset.SimilarLimit), nil
}

// RecentPredictions returns the newest logged predictions
func (s *Service) RecentPredictions(limit int) ([]*models.PredictionRecord, error) {
	if s.store == nil {
		return []*models.PredictionRecord{}, nil
	}
	records, err := s.store.ListRecentPredictions(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return records, nil
}

// Prediction returns one logged prediction by id. Ids trimmed from the log,
// or any id when no log is configured, report metadatastore.ErrNotFound.
func (s *Service) Prediction(id string) (*models.PredictionRecord, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: %s", metadatastore.ErrNotFound, id)
	}
	return s.store.GetPrediction(id)
}

// PredictionCount returns how many predictions the log currently holds
func (s *Service) PredictionCount() (int, error) {
	if s.store == nil {
		return 0, nil
	}
	return s.store.CountPredictions()
}

func compare(price, average float64) models.Comparison {
	if price > average {
		return models.ComparisonAbove
	}
	return models.ComparisonBelow
}
