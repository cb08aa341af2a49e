package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

func gem(carat float64, cut, color, clarity string, price float64) models.Diamond {
	return models.Diamond{
		Carat: carat, Cut: cut, Color: color, Clarity: clarity,
		Depth: 61, Table: 57, X: 6, Y: 6, Z: 4, Price: price,
	}
}

func TestHasPositiveDimensions(t *testing.T) {
	d := gem(1, "Ideal", "E", "VS1", 5000)
	assert.True(t, HasPositiveDimensions(d))

	for _, mutate := range []func(*models.Diamond){
		func(d *models.Diamond) { d.X = 0 },
		func(d *models.Diamond) { d.Y = 0 },
		func(d *models.Diamond) { d.Z = 0 },
		func(d *models.Diamond) { d.Z = -1 },
	} {
		bad := d
		mutate(&bad)
		assert.False(t, HasPositiveDimensions(bad))
	}

	// other implausible values are kept
	zeroCarat := d
	zeroCarat.Carat = 0
	zeroCarat.Depth = 0
	assert.True(t, HasPositiveDimensions(zeroCarat))
}

func TestWithinCaratIsInclusive(t *testing.T) {
	within := WithinCarat(1.0, 0.5)
	assert.True(t, within(gem(0.5, "", "", "", 0)))
	assert.True(t, within(gem(1.5, "", "", "", 0)))
	assert.True(t, within(gem(1.02, "", "", "", 0)))
	assert.False(t, within(gem(1.51, "", "", "", 0)))
	assert.False(t, within(gem(2.0, "", "", "", 0)))
}

func TestFilterKeepsOrder(t *testing.T) {
	records := []models.Diamond{
		gem(1.0, "Ideal", "E", "VS1", 1),
		gem(1.1, "Good", "E", "VS1", 2),
		gem(0.9, "Ideal", "E", "VS1", 3),
	}

	out := Filter(records, SameGrade("Ideal", "E", "VS1"))
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Price)
	assert.Equal(t, 3.0, out[1].Price)

	assert.Len(t, Filter(records), 3)
	assert.NotNil(t, Filter(nil))
}

func TestSimilar(t *testing.T) {
	ds := New("test", 0, []models.Diamond{
		gem(1.02, "Ideal", "E", "VS1", 6000),
		gem(2.0, "Ideal", "E", "VS1", 15000),
		gem(1.0, "Premium", "E", "VS1", 5500),
		gem(0.8, "Ideal", "E", "VS1", 4000),
	})

	q := models.Features{Carat: 1.0, Cut: "Ideal", Color: "E", Clarity: "VS1"}
	result := ds.Similar(q, SimilarCaratRadius, SimilarLimit)

	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, 1.02, result.Matches[0].Carat)
	assert.Equal(t, 0.8, result.Matches[1].Carat)
	require.NotNil(t, result.MeanPrice)
	assert.InDelta(t, 5000, *result.MeanPrice, 1e-9)
}

func TestSimilarCapsMatchesButAveragesAll(t *testing.T) {
	records := make([]models.Diamond, 0, 15)
	for i := 0; i < 15; i++ {
		records = append(records, gem(1.0, "Ideal", "E", "VS1", float64(1000*(i+1))))
	}
	ds := New("test", 0, records)

	result := ds.Similar(records[0].Features(), SimilarCaratRadius, SimilarLimit)
	assert.Equal(t, 15, result.Total)
	assert.Len(t, result.Matches, 10)
	assert.Equal(t, 1000.0, result.Matches[0].Price)
	require.NotNil(t, result.MeanPrice)
	assert.InDelta(t, 8000, *result.MeanPrice, 1e-9)
}

func TestSimilarWithoutMatches(t *testing.T) {
	ds := New("test", 0, []models.Diamond{gem(1.0, "Ideal", "E", "VS1", 5000)})

	result := ds.Similar(models.Features{Carat: 1.0, Cut: "Fair", Color: "E", Clarity: "VS1"}, SimilarCaratRadius, SimilarLimit)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Matches)
	assert.Empty(t, result.Matches)
	assert.Nil(t, result.MeanPrice)
}
