package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRequest() *PredictionRequest {
	f := func(v float64) *float64 { return &v }
	s := func(v string) *string { return &v }
	return &PredictionRequest{
		Carat: f(1.0), Cut: s("Ideal"), Color: s("E"), Clarity: s("VS1"),
		Depth: f(61), Table: f(57), X: f(6), Y: f(6.02), Z: f(3.6),
	}
}

func TestPredictionRequestValidate(t *testing.T) {
	require.NoError(t, fullRequest().Validate())

	missing := fullRequest()
	missing.Cut = nil
	missing.Z = nil
	err := missing.Validate()
	require.Error(t, err)
	assert.Equal(t, "missing required fields: cut, z", err.Error())

	empty := fullRequest()
	blank := ""
	empty.Color = &blank
	assert.Error(t, empty.Validate())
}

func TestPredictionRequestRejectsNonFiniteValues(t *testing.T) {
	tests := []struct {
		name  string
		set   func(r *PredictionRequest, v float64)
		value float64
	}{
		{"carat", func(r *PredictionRequest, v float64) { r.Carat = &v }, math.Inf(1)},
		{"depth", func(r *PredictionRequest, v float64) { r.Depth = &v }, math.NaN()},
		{"z", func(r *PredictionRequest, v float64) { r.Z = &v }, math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fullRequest()
			tt.set(r, tt.value)
			err := r.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestNumberEncodesNonFiniteAsNull(t *testing.T) {
	out, err := json.Marshal([]Number{1.5, Number(math.NaN()), Number(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, null]`, string(out))
}
