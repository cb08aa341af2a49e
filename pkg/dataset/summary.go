package dataset

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

// NumericColumns lists the numeric columns in source order
var NumericColumns = []string{ColumnCarat, ColumnDepth, ColumnTable, ColumnX, ColumnY, ColumnZ, ColumnPrice}

// FeatureDistributionColumns are the numeric model inputs shown as distributions
var FeatureDistributionColumns = []string{ColumnCarat, ColumnDepth, ColumnTable, ColumnX, ColumnY, ColumnZ}

// CategoricalColumns lists the categorical columns in source order
var CategoricalColumns = []string{ColumnCut, ColumnColor, ColumnClarity}

// DefaultHistogramBins matches the analysis screen
const DefaultHistogramBins = 30

// Overview is the headline block of the overview screen
type Overview struct {
	Count     int     `json:"count"`
	MeanPrice float64 `json:"mean_price"`
	MaxPrice  float64 `json:"max_price"`
	MinPrice  float64 `json:"min_price"`
}

// ColumnSummary mirrors one column of a pandas describe() table
type ColumnSummary struct {
	Column string        `json:"column"`
	Count  int           `json:"count"`
	Mean   models.Number `json:"mean"`
	Std    models.Number `json:"std"`
	Min    models.Number `json:"min"`
	P25    models.Number `json:"p25"`
	P50    models.Number `json:"p50"`
	P75    models.Number `json:"p75"`
	Max    models.Number `json:"max"`
}

// CorrelationMatrix holds pairwise Pearson coefficients. Values[i][j] pairs Columns[i] and Columns[j].
type CorrelationMatrix struct {
	Columns []string          `json:"columns"`
	Values  [][]models.Number `json:"values"`
}

// Histogram counts column values in equal-width bins. The last bin is closed on both ends.
type Histogram struct {
	Column string    `json:"column"`
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// CategoryCount is the frequency of one label
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// BoxStats is the five-number summary of price for one label
type BoxStats struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Overview computes count and mean/max/min price
func (d *Dataset) Overview() Overview {
	if len(d.records) == 0 {
		return Overview{}
	}
	prices := d.numeric(priceOf)
	return Overview{
		Count:     len(prices),
		MeanPrice: stat.Mean(prices, nil),
		MaxPrice:  floats.Max(prices),
		MinPrice:  floats.Min(prices),
	}
}

// MeanPrice returns the average price over the dataset
func (d *Dataset) MeanPrice() float64 {
	if len(d.records) == 0 {
		return 0
	}
	return stat.Mean(d.numeric(priceOf), nil)
}

// TopByPrice returns the n most expensive records. Ties keep dataset order.
func (d *Dataset) TopByPrice(n int) []models.Diamond {
	sorted := d.Records()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price > sorted[j].Price
	})
	return sorted[:min(max(n, 0), len(sorted))]
}

// Describe summarises every numeric column: count, mean, sample standard
// deviation, min, quartiles and max
func (d *Dataset) Describe() []ColumnSummary {
	out := make([]ColumnSummary, 0, len(NumericColumns))
	for _, name := range NumericColumns {
		values := d.numeric(numericAccessors[name])
		s := ColumnSummary{Column: name, Count: len(values)}
		if len(values) == 0 {
			nan := models.Number(math.NaN())
			s.Mean, s.Std, s.Min, s.P25, s.P50, s.P75, s.Max = nan, nan, nan, nan, nan, nan, nan
			out = append(out, s)
			continue
		}
		sort.Float64s(values)
		mean, std := stat.MeanStdDev(values, nil)
		s.Mean = models.Number(mean)
		s.Std = models.Number(std)
		s.Min = models.Number(values[0])
		s.P25 = models.Number(percentile(values, 0.25))
		s.P50 = models.Number(percentile(values, 0.50))
		s.P75 = models.Number(percentile(values, 0.75))
		s.Max = models.Number(values[len(values)-1])
		out = append(out, s)
	}
	return out
}

// Correlation returns the Pearson correlation matrix of the numeric columns.
// Pairs involving a constant column are NaN.
func (d *Dataset) Correlation() *CorrelationMatrix {
	cols := make([][]float64, len(NumericColumns))
	for i, name := range NumericColumns {
		cols[i] = d.numeric(numericAccessors[name])
	}

	values := make([][]models.Number, len(cols))
	for i := range cols {
		values[i] = make([]models.Number, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := math.NaN()
			if len(cols[i]) > 1 {
				r = stat.Correlation(cols[i], cols[j], nil)
			}
			values[i][j] = models.Number(r)
			values[j][i] = models.Number(r)
		}
	}

	return &CorrelationMatrix{
		Columns: slices.Clone(NumericColumns),
		Values:  values,
	}
}

// Histogram bins a numeric column into equal-width bins spanning its range
func (d *Dataset) Histogram(column string, bins int) (*Histogram, error) {
	accessor, ok := numericAccessors[column]
	if !ok {
		return nil, fmt.Errorf("unknown numeric column: %s", column)
	}
	if bins < 1 {
		return nil, fmt.Errorf("bins must be positive, got %d", bins)
	}

	values := d.numeric(accessor)
	sort.Float64s(values)

	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = values[0], values[len(values)-1]
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	dividers := slices.Clone(edges)
	// stat.Histogram bins are half open; nudge the top divider so the maximum lands in the last bin
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	weights := stat.Histogram(nil, dividers, values, nil)
	counts := make([]int, bins)
	for i, w := range weights {
		counts[i] = int(w)
	}

	return &Histogram{Column: column, Edges: edges, Counts: counts}, nil
}

// Distributions returns a histogram for each numeric model input
func (d *Dataset) Distributions(bins int) ([]*Histogram, error) {
	out := make([]*Histogram, 0, len(FeatureDistributionColumns))
	for _, name := range FeatureDistributionColumns {
		h, err := d.Histogram(name, bins)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// CategoryCounts returns label frequencies of a categorical column,
// most frequent first, ties broken by label
func (d *Dataset) CategoryCounts(column string) ([]CategoryCount, error) {
	accessor, ok := categoricalAccessors[column]
	if !ok {
		return nil, fmt.Errorf("unknown categorical column: %s", column)
	}

	counts := make(map[string]int)
	for _, r := range d.records {
		counts[accessor(r)]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, CategoryCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// PriceByCategory returns the price distribution of each label of a categorical column
func (d *Dataset) PriceByCategory(column string) ([]BoxStats, error) {
	accessor, ok := categoricalAccessors[column]
	if !ok {
		return nil, fmt.Errorf("unknown categorical column: %s", column)
	}

	groups := make(map[string][]float64)
	for _, r := range d.records {
		label := accessor(r)
		groups[label] = append(groups[label], r.Price)
	}

	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]BoxStats, 0, len(labels))
	for _, label := range labels {
		prices := groups[label]
		sort.Float64s(prices)
		out = append(out, BoxStats{
			Label:  label,
			Count:  len(prices),
			Min:    prices[0],
			Q1:     percentile(prices, 0.25),
			Median: percentile(prices, 0.50),
			Q3:     percentile(prices, 0.75),
			Max:    prices[len(prices)-1],
		})
	}
	return out, nil
}

// Vocabulary returns the distinct labels of a categorical column, either in
// order of first appearance or sorted
func (d *Dataset) Vocabulary(column string, sorted bool) ([]string, error) {
	accessor, ok := categoricalAccessors[column]
	if !ok {
		return nil, fmt.Errorf("unknown categorical column: %s", column)
	}

	seen := make(map[string]struct{})
	labels := make([]string, 0)
	for _, r := range d.records {
		label := accessor(r)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	if sorted {
		sort.Strings(labels)
	}
	return labels, nil
}

func (d *Dataset) numeric(accessor func(models.Diamond) float64) []float64 {
	out := make([]float64, len(d.records))
	for i, r := range d.records {
		out[i] = accessor(r)
	}
	return out
}

// percentile interpolates linearly between closest ranks of sorted values,
// the default of pandas and numpy
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func priceOf(d models.Diamond) float64 { return d.Price }

var numericAccessors = map[string]func(models.Diamond) float64{
	ColumnCarat: func(d models.Diamond) float64 { return d.Carat },
	ColumnDepth: func(d models.Diamond) float64 { return d.Depth },
	ColumnTable: func(d models.Diamond) float64 { return d.Table },
	ColumnX:     func(d models.Diamond) float64 { return d.X },
	ColumnY:     func(d models.Diamond) float64 { return d.Y },
	ColumnZ:     func(d models.Diamond) float64 { return d.Z },
	ColumnPrice: priceOf,
}

var categoricalAccessors = map[string]func(models.Diamond) string{
	ColumnCut:     func(d models.Diamond) string { return d.Cut },
	ColumnColor:   func(d models.Diamond) string { return d.Color },
	ColumnClarity: func(d models.Diamond) string { return d.Clarity },
}
