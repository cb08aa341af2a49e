package metadatastore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

func newTestStore(t *testing.T, capacity int) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(InMemoryDSN, capacity)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(i int) *models.PredictionRecord {
	return &models.PredictionRecord{
		ID: fmt.Sprintf("pred-%d", i),
		Features: models.Features{
			Carat: 1.0, Cut: "Ideal", Color: "E", Clarity: "VS1",
			Depth: 61, Table: 57, X: 6, Y: 6, Z: 4,
		},
		PredictedPrice:   5000 + float64(i),
		ModelFingerprint: "00000000deadbeef",
		CreatedAt:        time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func TestSaveAndGetPrediction(t *testing.T) {
	store := newTestStore(t, 0)

	require.NoError(t, store.SavePrediction(record(1)))

	got, err := store.GetPrediction("pred-1")
	require.NoError(t, err)
	assert.Equal(t, record(1), got)
}

func TestGetPredictionNotFound(t *testing.T) {
	store := newTestStore(t, 0)

	_, err := store.GetPrediction("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSavePredictionRejectsDuplicateID(t *testing.T) {
	store := newTestStore(t, 0)

	require.NoError(t, store.SavePrediction(record(1)))
	assert.Error(t, store.SavePrediction(record(1)))
}

func TestListRecentPredictions(t *testing.T) {
	store := newTestStore(t, 0)
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.SavePrediction(record(i)))
	}

	recent, err := store.ListRecentPredictions(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "pred-5", recent[0].ID)
	assert.Equal(t, "pred-4", recent[1].ID)
	assert.Equal(t, "pred-3", recent[2].ID)
}

func TestPredictionLogIsTrimmedToCapacity(t *testing.T) {
	store := newTestStore(t, 3)
	for i := 1; i <= 7; i++ {
		require.NoError(t, store.SavePrediction(record(i)))
	}

	n, err := store.CountPredictions()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recent, err := store.ListRecentPredictions(10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "pred-7", recent[0].ID)
	assert.Equal(t, "pred-5", recent[2].ID)

	_, err = store.GetPrediction("pred-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoresAreIsolated(t *testing.T) {
	a := newTestStore(t, 0)
	b := newTestStore(t, 0)

	require.NoError(t, a.SavePrediction(record(1)))

	n, err := b.CountPredictions()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
