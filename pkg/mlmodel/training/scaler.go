package training

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const machineEpsilon = 2.220446049250313e-16

// Scaler standardises features with per-column mean and population
// standard deviation. Columns with no spread are scaled by 1.
type Scaler struct {
	mean  []float64
	scale []float64
}

// FitScaler learns column statistics from the rows of x
func FitScaler(x *mat.Dense) (*Scaler, error) {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("cannot fit scaler on empty matrix")
	}

	s := &Scaler{
		mean:  make([]float64, cols),
		scale: make([]float64, cols),
	}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		m, v := stat.PopMeanVariance(col, nil)
		s.mean[j] = m
		std := math.Sqrt(v)
		if std < 10*machineEpsilon {
			std = 1
		}
		s.scale[j] = std
	}
	return s, nil
}

// Transform standardises one feature vector into a new slice
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.mean), len(row))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.mean[j]) / s.scale[j]
	}
	return out, nil
}

// TransformAll standardises every row of x into a new matrix
func (s *Scaler) TransformAll(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.mean), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.mean[j]) / s.scale[j]
	}, x)
	return out, nil
}

// Mean returns the fitted column means
func (s *Scaler) Mean() []float64 { return slices.Clone(s.mean) }

// Scale returns the fitted column scales
func (s *Scaler) Scale() []float64 { return slices.Clone(s.scale) }
