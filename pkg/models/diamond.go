package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Diamond is one row of the prepared dataset
type Diamond struct {
	Carat   float64 `json:"carat"`
	Cut     string  `json:"cut"`
	Color   string  `json:"color"`
	Clarity string  `json:"clarity"`
	Depth   float64 `json:"depth"` // total depth percentage
	Table   float64 `json:"table"` // table width percentage
	X       float64 `json:"x"`     // length in mm
	Y       float64 `json:"y"`     // width in mm
	Z       float64 `json:"z"`     // depth in mm
	Price   float64 `json:"price"`
}

// Features returns the nine model inputs of the diamond
func (d Diamond) Features() Features {
	return Features{
		Carat:   d.Carat,
		Cut:     d.Cut,
		Color:   d.Color,
		Clarity: d.Clarity,
		Depth:   d.Depth,
		Table:   d.Table,
		X:       d.X,
		Y:       d.Y,
		Z:       d.Z,
	}
}

// Features holds the raw feature values for one diamond
type Features struct {
	Carat   float64 `json:"carat"`
	Cut     string  `json:"cut"`
	Color   string  `json:"color"`
	Clarity string  `json:"clarity"`
	Depth   float64 `json:"depth"`
	Table   float64 `json:"table"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// PredictionRequest is the body of a prediction or similarity query.
// Pointer fields distinguish a missing value from zero.
type PredictionRequest struct {
	Carat   *float64 `json:"carat"`
	Cut     *string  `json:"cut"`
	Color   *string  `json:"color"`
	Clarity *string  `json:"clarity"`
	Depth   *float64 `json:"depth"`
	Table   *float64 `json:"table"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Z       *float64 `json:"z"`
}

// Validate checks that all nine features are present and the numeric ones finite
func (r *PredictionRequest) Validate() error {
	var missing []string
	for name, set := range map[string]bool{
		"carat":   r.Carat != nil,
		"cut":     r.Cut != nil && *r.Cut != "",
		"color":   r.Color != nil && *r.Color != "",
		"clarity": r.Clarity != nil && *r.Clarity != "",
		"depth":   r.Depth != nil,
		"table":   r.Table != nil,
		"x":       r.X != nil,
		"y":       r.Y != nil,
		"z":       r.Z != nil,
	} {
		if !set {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	for _, field := range []struct {
		name  string
		value float64
	}{
		{"carat", *r.Carat}, {"depth", *r.Depth}, {"table", *r.Table},
		{"x", *r.X}, {"y", *r.Y}, {"z", *r.Z},
	} {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return fmt.Errorf("%s must be a finite number", field.name)
		}
	}
	return nil
}

// Features converts a validated request into feature values
func (r *PredictionRequest) Features() Features {
	return Features{
		Carat:   *r.Carat,
		Cut:     *r.Cut,
		Color:   *r.Color,
		Clarity: *r.Clarity,
		Depth:   *r.Depth,
		Table:   *r.Table,
		X:       *r.X,
		Y:       *r.Y,
		Z:       *r.Z,
	}
}

// Comparison of a predicted price against the dataset average
type Comparison string

const (
	ComparisonAbove Comparison = "above"
	ComparisonBelow Comparison = "below"
)

// PredictionResult is returned for every served prediction
type PredictionResult struct {
	ID               string         `json:"id"`
	Features         Features       `json:"features"`
	PredictedPrice   float64        `json:"predicted_price"`
	AveragePrice     float64        `json:"average_price"`
	Comparison       Comparison     `json:"comparison"`
	Difference       float64        `json:"difference"`
	Similar          *SimilarResult `json:"similar"`
	ModelFingerprint string         `json:"model_fingerprint"`
	CreatedAt        time.Time      `json:"created_at"`
}

// SimilarResult lists dataset records close to a query
type SimilarResult struct {
	Total     int       `json:"total"`
	Matches   []Diamond `json:"matches"`
	MeanPrice *float64  `json:"mean_price,omitempty"` // nil when nothing matched
}

// PredictionRecord is a served prediction as kept in the prediction log
type PredictionRecord struct {
	ID               string    `json:"id"`
	Features         Features  `json:"features"`
	PredictedPrice   float64   `json:"predicted_price"`
	ModelFingerprint string    `json:"model_fingerprint"`
	CreatedAt        time.Time `json:"created_at"`
}

// PerformanceMetrics holds regression metrics measured on the test partition
type PerformanceMetrics struct {
	RMSE    float64 `json:"rmse"`
	MAE     float64 `json:"mae"`
	R2Score float64 `json:"r2_score"`
}

// ModelInfo describes the fitted model currently serving predictions
type ModelInfo struct {
	Kernel           string              `json:"kernel"`
	C                float64             `json:"c"`
	Gamma            float64             `json:"gamma"`
	Epsilon          float64             `json:"epsilon"`
	RandomSeed       uint32              `json:"random_seed"`
	TestFraction     float64             `json:"test_fraction"`
	TrainSize        int                 `json:"train_size"`
	TestSize         int                 `json:"test_size"`
	SupportVectors   int                 `json:"support_vectors"`
	Iterations       int                 `json:"iterations"`
	Converged        bool                `json:"converged"`
	Intercept        float64             `json:"intercept"`
	FeatureOrder     []string            `json:"feature_order"`
	Categories       map[string][]string `json:"categories"`
	ScalerMean       []float64           `json:"scaler_mean"`
	ScalerScale      []float64           `json:"scaler_scale"`
	Metrics          *PerformanceMetrics `json:"metrics,omitempty"`
	DatasetSource    string              `json:"dataset_source"`
	Fingerprint      string              `json:"fingerprint"`
	TrainedAt        time.Time           `json:"trained_at"`
	TrainingDuration string              `json:"training_duration"`
}

// Number is a float64 that encodes NaN and infinities as JSON null
type Number float64

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}
