package training

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext/prng"
)

// Permutation returns a random ordering of 0..n-1. For a given seed it
// matches numpy.random.RandomState(seed).permutation(n).
func Permutation(n int, seed uint32) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng := newSource(seed)
	for i := n - 1; i > 0; i-- {
		j := int(interval(rng, uint32(i)))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// newSource returns the 32-bit Mersenne Twister seeded with init_genrand, the
// generator behind numpy's legacy RandomState
func newSource(seed uint32) *prng.MT19937 {
	src := prng.NewMT19937()
	src.Seed(uint64(seed))
	return src
}

// interval draws uniformly from [0, max] by masked rejection, as numpy's
// legacy random_interval does for bounds that fit in 32 bits
func interval(src *prng.MT19937, max uint32) uint32 {
	if max == 0 {
		return 0
	}
	mask := max
	mask |= mask >> 1
	mask |= mask >> 2
	mask |= mask >> 4
	mask |= mask >> 8
	mask |= mask >> 16
	for {
		if v := src.Uint32() & mask; v <= max {
			return v
		}
	}
}

// Partition holds row indices of the train and test subsets
type Partition struct {
	Train []int
	Test  []int
}

// Split partitions n rows: the test subset takes the first ceil(testFraction*n)
// permuted indices, the train subset the rest, both in permutation order.
func Split(n int, testFraction float64, seed uint32) (*Partition, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}
	nTest := int(math.Ceil(testFraction * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain <= 0 {
		return nil, fmt.Errorf("cannot split %d rows with test fraction %v", n, testFraction)
	}

	perm := Permutation(n, seed)
	return &Partition{
		Train: perm[nTest:],
		Test:  perm[:nTest],
	}, nil
}
