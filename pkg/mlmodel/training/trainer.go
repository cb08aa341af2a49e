package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/mimir-aip/diamond-price/pkg/dataset"
	"github.com/mimir-aip/diamond-price/pkg/models"
)

// FeatureOrder is the column order of the model input vector
var FeatureOrder = []string{
	dataset.ColumnCarat, dataset.ColumnCut, dataset.ColumnColor, dataset.ColumnClarity,
	dataset.ColumnDepth, dataset.ColumnTable, dataset.ColumnX, dataset.ColumnY, dataset.ColumnZ,
}

// KernelRBF names the only supported kernel
const KernelRBF = "rbf"

// Options controls the split and the regressor hyperparameters
type Options struct {
	C             float64
	Gamma         float64
	Epsilon       float64
	Tol           float64
	TestFraction  float64
	Seed          uint32
	CacheMB       int
	MaxIterations int // 0 picks a limit from the sample count
}

// DefaultOptions returns the hyperparameters the service is trained with
func DefaultOptions() Options {
	return Options{
		C:            1000,
		Gamma:        0.001,
		Epsilon:      0.1,
		Tol:          1e-3,
		TestFraction: 0.25,
		Seed:         15,
		CacheMB:      200,
	}
}

// Bundle is everything needed to turn raw features into a price: the fitted
// category encoders, the scaler and the regressor
type Bundle struct {
	Encoders  map[string]*EncodingTable
	Scaler    *Scaler
	Model     *SVR
	Options   Options
	TrainSize int
	TestSize  int
	Metrics   *models.PerformanceMetrics
	TrainedAt time.Time
	Duration  time.Duration
}

// Train fits encoders, scaler and regressor on the training partition of ds
// and scores the result on the test partition. Nothing is learned from test rows.
// Cancelling ctx aborts the regressor fit.
func Train(ctx context.Context, ds *dataset.Dataset, opts Options) (*Bundle, error) {
	start := time.Now()

	partition, err := Split(ds.Len(), opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to split dataset: %w", err)
	}
	train := rowsAt(ds, partition.Train)
	test := rowsAt(ds, partition.Test)

	encoders, err := fitEncoders(train)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Encoders:  encoders,
		Options:   opts,
		TrainSize: len(train),
		TestSize:  len(test),
	}

	xTrain, err := b.encodeAll(train)
	if err != nil {
		return nil, fmt.Errorf("failed to encode training rows: %w", err)
	}
	xTest, err := b.encodeAll(test)
	if err != nil {
		return nil, fmt.Errorf("failed to encode test rows: %w", err)
	}

	b.Scaler, err = FitScaler(xTrain)
	if err != nil {
		return nil, fmt.Errorf("failed to fit scaler: %w", err)
	}
	sTrain, err := b.Scaler.TransformAll(xTrain)
	if err != nil {
		return nil, err
	}
	sTest, err := b.Scaler.TransformAll(xTest)
	if err != nil {
		return nil, err
	}

	b.Model, err = FitSVR(ctx, rowViews(sTrain), prices(train), SVRParams{
		C:             opts.C,
		Gamma:         opts.Gamma,
		Epsilon:       opts.Epsilon,
		Tol:           opts.Tol,
		CacheMB:       opts.CacheMB,
		MaxIterations: opts.MaxIterations,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fit regressor: %w", err)
	}

	predicted := make([]float64, len(test))
	for i, row := range rowViews(sTest) {
		predicted[i] = b.Model.Predict(row)
	}
	b.Metrics = evaluate(predicted, prices(test))
	b.TrainedAt = time.Now().UTC()
	b.Duration = time.Since(start)

	log.Info().
		Int("train_rows", b.TrainSize).
		Int("test_rows", b.TestSize).
		Int("support_vectors", b.Model.SupportVectors()).
		Int("iterations", b.Model.Iterations()).
		Float64("rmse", b.Metrics.RMSE).
		Float64("r2", b.Metrics.R2Score).
		Dur("duration", b.Duration).
		Msg("Model trained")

	return b, nil
}

// ErrNonFinitePrice is returned when the regressor cannot produce a finite
// price for otherwise valid inputs
var ErrNonFinitePrice = errors.New("model produced a non-finite price")

// FeatureRangeError reports a feature too large in magnitude for the kernel
// to evaluate once scaled
type FeatureRangeError struct {
	Feature string
	Value   float64
}

func (e *FeatureRangeError) Error() string {
	return fmt.Sprintf("%s value %v is outside the range the model can score", e.Feature, e.Value)
}

// Predict returns the price estimate for one set of raw features
func (b *Bundle) Predict(f models.Features) (float64, error) {
	row, err := b.encode(f)
	if err != nil {
		return 0, err
	}
	scaled, err := b.Scaler.Transform(row)
	if err != nil {
		return 0, err
	}
	// the RBF distance squares every scaled value, so the square must stay finite
	for i, v := range scaled {
		if sq := v * v; math.IsNaN(sq) || math.IsInf(sq, 0) {
			return 0, &FeatureRangeError{Feature: FeatureOrder[i], Value: row[i]}
		}
	}
	price := b.Model.Predict(scaled)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, ErrNonFinitePrice
	}
	return price, nil
}

// Info describes the fitted bundle. Dataset identity is left to the caller.
func (b *Bundle) Info() *models.ModelInfo {
	categories := make(map[string][]string, len(b.Encoders))
	for column, enc := range b.Encoders {
		categories[column] = enc.Labels()
	}
	metrics := *b.Metrics
	return &models.ModelInfo{
		Kernel:           KernelRBF,
		C:                b.Options.C,
		Gamma:            b.Options.Gamma,
		Epsilon:          b.Options.Epsilon,
		RandomSeed:       b.Options.Seed,
		TestFraction:     b.Options.TestFraction,
		TrainSize:        b.TrainSize,
		TestSize:         b.TestSize,
		SupportVectors:   b.Model.SupportVectors(),
		Iterations:       b.Model.Iterations(),
		Converged:        b.Model.Converged(),
		Intercept:        b.Model.Intercept(),
		FeatureOrder:     append([]string(nil), FeatureOrder...),
		Categories:       categories,
		ScalerMean:       b.Scaler.Mean(),
		ScalerScale:      b.Scaler.Scale(),
		Metrics:          &metrics,
		TrainedAt:        b.TrainedAt,
		TrainingDuration: b.Duration.String(),
	}
}

func fitEncoders(rows []models.Diamond) (map[string]*EncodingTable, error) {
	labels := map[string][]string{}
	for _, r := range rows {
		labels[dataset.ColumnCut] = append(labels[dataset.ColumnCut], r.Cut)
		labels[dataset.ColumnColor] = append(labels[dataset.ColumnColor], r.Color)
		labels[dataset.ColumnClarity] = append(labels[dataset.ColumnClarity], r.Clarity)
	}

	encoders := make(map[string]*EncodingTable, len(dataset.CategoricalColumns))
	for _, column := range dataset.CategoricalColumns {
		enc, err := FitEncodingTable(column, labels[column])
		if err != nil {
			return nil, fmt.Errorf("failed to fit encoder: %w", err)
		}
		encoders[column] = enc
	}
	return encoders, nil
}

func (b *Bundle) encode(f models.Features) ([]float64, error) {
	cut, err := b.Encoders[dataset.ColumnCut].Encode(f.Cut)
	if err != nil {
		return nil, err
	}
	color, err := b.Encoders[dataset.ColumnColor].Encode(f.Color)
	if err != nil {
		return nil, err
	}
	clarity, err := b.Encoders[dataset.ColumnClarity].Encode(f.Clarity)
	if err != nil {
		return nil, err
	}
	return []float64{
		f.Carat, float64(cut), float64(color), float64(clarity),
		f.Depth, f.Table, f.X, f.Y, f.Z,
	}, nil
}

func (b *Bundle) encodeAll(rows []models.Diamond) (*mat.Dense, error) {
	x := mat.NewDense(len(rows), len(FeatureOrder), nil)
	for i, r := range rows {
		row, err := b.encode(r.Features())
		if err != nil {
			return nil, err
		}
		x.SetRow(i, row)
	}
	return x, nil
}

func rowsAt(ds *dataset.Dataset, idx []int) []models.Diamond {
	out := make([]models.Diamond, len(idx))
	for i, k := range idx {
		out[i] = ds.At(k)
	}
	return out
}

func rowViews(x *mat.Dense) [][]float64 {
	rows, _ := x.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = x.RawRowView(i)
	}
	return out
}

func prices(rows []models.Diamond) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Price
	}
	return out
}
