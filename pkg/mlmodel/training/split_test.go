package training

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceReferenceOutputs(t *testing.T) {
	tests := []struct {
		seed uint32
		want []uint32
	}{
		{seed: 5489, want: []uint32{3499211612, 581869302, 3890346734}},
		{seed: 15, want: []uint32{3645644232, 3494301429, 768352140}},
	}

	for _, tt := range tests {
		rng := newSource(tt.seed)
		for i, want := range tt.want {
			assert.Equal(t, want, rng.Uint32(), "seed %d output %d", tt.seed, i)
		}
	}
}

func TestIntervalStaysInBounds(t *testing.T) {
	rng := newSource(15)
	for _, max := range []uint32{0, 1, 2, 7, 8, 99, 1 << 20} {
		for i := 0; i < 200; i++ {
			require.LessOrEqual(t, interval(rng, max), max)
		}
	}
}

func TestPermutationMatchesNumpy(t *testing.T) {
	assert.Equal(t, []int{2, 6, 1, 3, 7, 0, 9, 4, 5, 8}, Permutation(10, 15))
	assert.Equal(t,
		[]int{19, 15, 3, 9, 4, 2, 10, 16, 13, 1, 6, 17, 14, 7, 11, 18, 0, 5, 12, 8},
		Permutation(20, 15))
	assert.Equal(t,
		[]int{84, 36, 57, 51, 46, 78, 93, 14, 11, 59, 61, 38, 21, 90, 8, 25, 63, 9, 94, 97, 99, 3, 20, 55, 6},
		Permutation(100, 15)[:25])
}

func TestPermutationEdgeCases(t *testing.T) {
	assert.Empty(t, Permutation(0, 15))
	assert.Equal(t, []int{0}, Permutation(1, 15))
}

func TestSplit(t *testing.T) {
	p, err := Split(10, 0.25, 15)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 6, 1}, p.Test)
	assert.Equal(t, []int{3, 7, 0, 9, 4, 5, 8}, p.Train)

	p, err = Split(100, 0.25, 15)
	require.NoError(t, err)
	assert.Len(t, p.Test, 25)
	assert.Len(t, p.Train, 75)

	all := append(append([]int{}, p.Train...), p.Test...)
	sort.Ints(all)
	for i, v := range all {
		require.Equal(t, i, v, "partitions must be disjoint and cover every row")
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	a, err := Split(57, 0.25, 15)
	require.NoError(t, err)
	b, err := Split(57, 0.25, 15)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSplitRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		fraction float64
	}{
		{"zero fraction", 10, 0},
		{"whole fraction", 10, 1},
		{"negative fraction", 10, -0.1},
		{"no rows", 0, 0.25},
		{"single row", 1, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.n, tt.fraction, 15)
			assert.Error(t, err)
		})
	}
}
