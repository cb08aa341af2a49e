package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFitScaler(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 7,
		2, 7,
		3, 7,
		4, 7,
	})

	s, err := FitScaler(x)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2.5, 7}, s.Mean(), 1e-12)
	// population standard deviation; a constant column is left unscaled
	assert.InDeltaSlice(t, []float64{math.Sqrt(1.25), 1}, s.Scale(), 1e-12)

	row, err := s.Transform([]float64{2.5, 9})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 2}, row, 1e-12)
}

func TestScalerTransformAll(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{0, 3, 6})
	s, err := FitScaler(x)
	require.NoError(t, err)

	out, err := s.TransformAll(x)
	require.NoError(t, err)

	col := mat.Col(nil, 0, out)
	assert.InDelta(t, 0, col[1], 1e-12)
	assert.InDelta(t, -col[0], col[2], 1e-12)

	// the input matrix is not modified
	assert.Equal(t, 3.0, x.At(1, 0))
}

func TestScalerRejectsWrongWidth(t *testing.T) {
	s, err := FitScaler(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	require.NoError(t, err)

	_, err = s.Transform([]float64{1})
	assert.Error(t, err)
	_, err = s.TransformAll(mat.NewDense(1, 3, nil))
	assert.Error(t, err)
}

func TestScalerAccessorsReturnCopies(t *testing.T) {
	s, err := FitScaler(mat.NewDense(2, 1, []float64{1, 3}))
	require.NoError(t, err)

	s.Mean()[0] = 100
	s.Scale()[0] = 100
	assert.Equal(t, []float64{2}, s.Mean())
	assert.Equal(t, []float64{1}, s.Scale())
}
