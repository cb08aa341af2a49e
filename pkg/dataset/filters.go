package dataset

import "github.com/mimir-aip/diamond-price/pkg/models"

// SimilarCaratRadius and SimilarLimit are the defaults of the similar diamonds lookup
const (
	SimilarCaratRadius = 0.5
	SimilarLimit       = 10
)

// Predicate reports whether a record should be kept
type Predicate func(models.Diamond) bool

// HasPositiveDimensions keeps records whose x, y and z are all strictly positive.
// A zero dimension marks a bad measurement, not a zero-size stone.
func HasPositiveDimensions(d models.Diamond) bool {
	return d.X > 0 && d.Y > 0 && d.Z > 0
}

// WithinCarat keeps records with |carat - center| <= radius
func WithinCarat(center, radius float64) Predicate {
	lo, hi := center-radius, center+radius
	return func(d models.Diamond) bool {
		return d.Carat >= lo && d.Carat <= hi
	}
}

// SameGrade keeps records with exactly the given cut, color and clarity
func SameGrade(cut, color, clarity string) Predicate {
	return func(d models.Diamond) bool {
		return d.Cut == cut && d.Color == color && d.Clarity == clarity
	}
}

// Filter returns the records matching every predicate, in their original order
func Filter(records []models.Diamond, preds ...Predicate) []models.Diamond {
	out := make([]models.Diamond, 0, len(records))
next:
	for _, d := range records {
		for _, p := range preds {
			if !p(d) {
				continue next
			}
		}
		out = append(out, d)
	}
	return out
}

// Similar finds records of the same grade within radius carats of the query.
// Matches holds at most limit records in dataset order; Total and MeanPrice
// cover every match.
func (d *Dataset) Similar(q models.Features, radius float64, limit int) *models.SimilarResult {
	matched := Filter(d.records, WithinCarat(q.Carat, radius), SameGrade(q.Cut, q.Color, q.Clarity))

	result := &models.SimilarResult{
		Total:   len(matched),
		Matches: matched[:min(limit, len(matched))],
	}
	if len(matched) > 0 {
		var sum float64
		for _, m := range matched {
			sum += m.Price
		}
		mean := sum / float64(len(matched))
		result.MeanPrice = &mean
	}
	return result
}
