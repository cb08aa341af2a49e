package training

import (
	"math"

	"github.com/dgraph-io/ristretto"
	"gonum.org/v1/gonum/floats"
)

// rbfKernel evaluates exp(-gamma*|a-b|^2) over a fixed set of training rows
type rbfKernel struct {
	gamma float64
	rows  [][]float64
	norms []float64
}

func newRBFKernel(rows [][]float64, gamma float64) *rbfKernel {
	norms := make([]float64, len(rows))
	for i, r := range rows {
		norms[i] = floats.Dot(r, r)
	}
	return &rbfKernel{gamma: gamma, rows: rows, norms: norms}
}

func (k *rbfKernel) eval(i, j int) float64 {
	if i == j {
		return 1
	}
	d := k.norms[i] + k.norms[j] - 2*floats.Dot(k.rows[i], k.rows[j])
	return math.Exp(-k.gamma * d)
}

// column returns K(i, *) across all training rows
func (k *rbfKernel) column(i int) []float64 {
	col := make([]float64, len(k.rows))
	for j := range k.rows {
		col[j] = k.eval(i, j)
	}
	return col
}

// kernelCache memoises kernel columns in a cost-bounded ristretto cache.
// A nil cache computes every column on demand.
type kernelCache struct {
	kernel *rbfKernel
	cache  *ristretto.Cache
}

func newKernelCache(kernel *rbfKernel, megabytes int) (*kernelCache, error) {
	kc := &kernelCache{kernel: kernel}
	if megabytes <= 0 {
		return kc, nil
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(10 * len(kernel.rows)),
		MaxCost:            int64(megabytes) << 20,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	kc.cache = cache
	return kc, nil
}

func (kc *kernelCache) column(i int) []float64 {
	if kc.cache == nil {
		return kc.kernel.column(i)
	}
	if v, ok := kc.cache.Get(i); ok {
		return v.([]float64)
	}
	col := kc.kernel.column(i)
	kc.cache.Set(i, col, int64(len(col)*8))
	return col
}

func (kc *kernelCache) close() {
	if kc.cache != nil {
		kc.cache.Close()
	}
}
