package dataset

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

func summaryDataset() *Dataset {
	return New("test", 0, []models.Diamond{
		gem(0.2, "Ideal", "G", "VS1", 100),
		gem(0.4, "Good", "E", "SI1", 200),
		gem(0.6, "Ideal", "D", "VS1", 300),
		gem(0.8, "Premium", "E", "IF", 400),
	})
}

func TestOverview(t *testing.T) {
	ov := summaryDataset().Overview()
	assert.Equal(t, Overview{Count: 4, MeanPrice: 250, MaxPrice: 400, MinPrice: 100}, ov)
	assert.Equal(t, 250.0, summaryDataset().MeanPrice())

	assert.Equal(t, Overview{}, New("empty", 0, nil).Overview())
}

func TestTopByPrice(t *testing.T) {
	ds := summaryDataset()

	top := ds.TopByPrice(2)
	require.Len(t, top, 2)
	assert.Equal(t, 400.0, top[0].Price)
	assert.Equal(t, 300.0, top[1].Price)

	assert.Len(t, ds.TopByPrice(10), 4)
	assert.Empty(t, ds.TopByPrice(-1))

	// ties keep dataset order
	tied := New("test", 0, []models.Diamond{
		gem(1, "Fair", "E", "VS1", 500),
		gem(2, "Good", "E", "VS1", 500),
	})
	assert.Equal(t, "Fair", tied.TopByPrice(1)[0].Cut)
}

func TestDescribe(t *testing.T) {
	summaries := summaryDataset().Describe()
	require.Len(t, summaries, len(NumericColumns))

	price := summaries[len(summaries)-1]
	assert.Equal(t, ColumnPrice, price.Column)
	assert.Equal(t, 4, price.Count)
	assert.InDelta(t, 250, float64(price.Mean), 1e-9)
	assert.InDelta(t, math.Sqrt(50000.0/3), float64(price.Std), 1e-9)
	assert.Equal(t, models.Number(100), price.Min)
	assert.InDelta(t, 175, float64(price.P25), 1e-9)
	assert.InDelta(t, 250, float64(price.P50), 1e-9)
	assert.InDelta(t, 325, float64(price.P75), 1e-9)
	assert.Equal(t, models.Number(400), price.Max)
}

func TestDescribeEmptyEncodesNull(t *testing.T) {
	summaries := New("empty", 0, nil).Describe()
	require.NotEmpty(t, summaries)

	data, err := json.Marshal(summaries[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mean":null`)
}

func TestCorrelation(t *testing.T) {
	m := summaryDataset().Correlation()
	require.Equal(t, NumericColumns, m.Columns)

	carat, price := 0, len(NumericColumns)-1
	assert.InDelta(t, 1.0, float64(m.Values[carat][price]), 1e-12)
	assert.Equal(t, m.Values[carat][price], m.Values[price][carat])

	// depth is constant in the fixture
	assert.True(t, math.IsNaN(float64(m.Values[1][price])))
}

func TestHistogram(t *testing.T) {
	h, err := summaryDataset().Histogram(ColumnPrice, 3)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{100, 200, 300, 400}, h.Edges, 1e-9)
	// the maximum falls in the closed last bin
	assert.Equal(t, []int{1, 1, 2}, h.Counts)
}

func TestHistogramConstantColumn(t *testing.T) {
	h, err := summaryDataset().Histogram(ColumnDepth, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{60.5, 61.5}, h.Edges)
	assert.Equal(t, []int{4}, h.Counts)
}

func TestHistogramErrors(t *testing.T) {
	_, err := summaryDataset().Histogram("cut", 10)
	assert.Error(t, err)
	_, err = summaryDataset().Histogram(ColumnPrice, 0)
	assert.Error(t, err)
}

func TestDistributions(t *testing.T) {
	hs, err := summaryDataset().Distributions(DefaultHistogramBins)
	require.NoError(t, err)
	require.Len(t, hs, len(FeatureDistributionColumns))
	for _, h := range hs {
		total := 0
		for _, c := range h.Counts {
			total += c
		}
		assert.Equal(t, 4, total, h.Column)
		assert.Len(t, h.Counts, DefaultHistogramBins)
	}
}

func TestCategoryCounts(t *testing.T) {
	counts, err := summaryDataset().CategoryCounts(ColumnCut)
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{
		{Label: "Ideal", Count: 2},
		{Label: "Good", Count: 1},
		{Label: "Premium", Count: 1},
	}, counts)

	_, err = summaryDataset().CategoryCounts(ColumnPrice)
	assert.Error(t, err)
}

func TestPriceByCategory(t *testing.T) {
	stats, err := summaryDataset().PriceByCategory(ColumnColor)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, "D", stats[0].Label)
	e := stats[1]
	assert.Equal(t, "E", e.Label)
	assert.Equal(t, 2, e.Count)
	assert.Equal(t, 200.0, e.Min)
	assert.Equal(t, 300.0, e.Median)
	assert.Equal(t, 400.0, e.Max)
	assert.Equal(t, 250.0, e.Q1)
	assert.Equal(t, 350.0, e.Q3)
}

func TestVocabulary(t *testing.T) {
	ds := summaryDataset()

	seen, err := ds.Vocabulary(ColumnColor, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"G", "E", "D"}, seen)

	sorted, err := ds.Vocabulary(ColumnColor, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "E", "G"}, sorted)

	_, err = ds.Vocabulary(ColumnX, true)
	assert.Error(t, err)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 5.0, percentile([]float64{5}, 0.5))
	assert.Equal(t, 4.0, percentile([]float64{1, 4}, 1))
	assert.InDelta(t, 1.75, percentile([]float64{1, 2, 3, 4}, 0.25), 1e-12)
}
