package training

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

const (
	tau = 1e-12

	// ctxCheckInterval is how many solver iterations run between cancellation checks
	ctxCheckInterval = 1000
)

// SVRParams configures epsilon-support vector regression with an RBF kernel
type SVRParams struct {
	C             float64
	Gamma         float64
	Epsilon       float64
	Tol           float64
	CacheMB       int
	MaxIterations int
}

// SVR is a fitted epsilon-SVR model
type SVR struct {
	gamma     float64
	rho       float64
	vectors   [][]float64
	norms     []float64
	coef      []float64
	iter      int
	converged bool
}

// FitSVR solves the epsilon-SVR dual with sequential minimal optimisation,
// selecting working pairs by second order information. The problem has two
// variables per sample: alpha_i for the upper tube and alpha*_i for the lower.
// A cancelled ctx stops the solver and returns ctx.Err().
func FitSVR(ctx context.Context, x [][]float64, y []float64, params SVRParams) (*SVR, error) {
	l := len(x)
	if l == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(y) != l {
		return nil, fmt.Errorf("got %d samples but %d targets", l, len(y))
	}
	if params.C <= 0 {
		return nil, fmt.Errorf("C must be positive, got %v", params.C)
	}
	if params.Gamma <= 0 {
		return nil, fmt.Errorf("gamma must be positive, got %v", params.Gamma)
	}
	if params.Epsilon < 0 {
		return nil, fmt.Errorf("epsilon must not be negative, got %v", params.Epsilon)
	}
	if params.Tol <= 0 {
		return nil, fmt.Errorf("tolerance must be positive, got %v", params.Tol)
	}

	kernel := newRBFKernel(x, params.Gamma)
	cache, err := newKernelCache(kernel, params.CacheMB)
	if err != nil {
		return nil, fmt.Errorf("failed to create kernel cache: %w", err)
	}
	defer cache.close()

	s := &smo{
		l:     l,
		c:     params.C,
		tol:   params.Tol,
		cache: cache,
		alpha: make([]float64, 2*l),
		grad:  make([]float64, 2*l),
	}
	for i := 0; i < l; i++ {
		s.grad[i] = params.Epsilon - y[i]
		s.grad[i+l] = params.Epsilon + y[i]
	}

	maxIter := params.MaxIterations
	if maxIter <= 0 {
		maxIter = max(10000000, 100*l)
	}

	converged := false
	iter := 0
	for iter < maxIter {
		if iter%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		i, j, done := s.selectWorkingSet()
		if done {
			converged = true
			break
		}
		iter++
		s.update(i, j)
	}
	if !converged {
		log.Warn().Int("iterations", iter).Msg("SVR solver reached the iteration limit before converging")
	}

	model := &SVR{gamma: params.Gamma, rho: s.rho(), iter: iter, converged: converged}
	for i := 0; i < l; i++ {
		coef := s.alpha[i] - s.alpha[i+l]
		if coef == 0 {
			continue
		}
		model.vectors = append(model.vectors, x[i])
		model.norms = append(model.norms, kernel.norms[i])
		model.coef = append(model.coef, coef)
	}
	return model, nil
}

// Predict evaluates the regression function at one scaled feature vector
func (m *SVR) Predict(x []float64) float64 {
	xNorm := floats.Dot(x, x)
	sum := 0.0
	for i, sv := range m.vectors {
		d := m.norms[i] + xNorm - 2*floats.Dot(sv, x)
		sum += m.coef[i] * math.Exp(-m.gamma*d)
	}
	return sum - m.rho
}

// SupportVectors returns the number of samples with a non-zero dual coefficient
func (m *SVR) SupportVectors() int { return len(m.vectors) }

// Iterations returns the number of solver iterations
func (m *SVR) Iterations() int { return m.iter }

// Converged reports whether the solver met its stopping tolerance
func (m *SVR) Converged() bool { return m.converged }

// Intercept returns the bias term added to the kernel expansion
func (m *SVR) Intercept() float64 { return -m.rho }

type smo struct {
	l     int
	c     float64
	tol   float64
	cache *kernelCache
	alpha []float64
	grad  []float64
}

func (s *smo) sign(t int) float64 {
	if t < s.l {
		return 1
	}
	return -1
}

func (s *smo) upper(t int) bool { return s.alpha[t] >= s.c }
func (s *smo) lower(t int) bool { return s.alpha[t] <= 0 }

// q returns Q(t, k) from the kernel column of sample t%l
func (s *smo) q(col []float64, t, k int) float64 {
	return s.sign(t) * s.sign(k) * col[k%s.l]
}

func (s *smo) selectWorkingSet() (int, int, bool) {
	gmax, gmax2 := math.Inf(-1), math.Inf(-1)
	gmaxIdx, gminIdx := -1, -1
	objDiffMin := math.Inf(1)

	for t := 0; t < 2*s.l; t++ {
		if s.sign(t) > 0 {
			if !s.upper(t) && -s.grad[t] >= gmax {
				gmax = -s.grad[t]
				gmaxIdx = t
			}
		} else if !s.lower(t) && s.grad[t] >= gmax {
			gmax = s.grad[t]
			gmaxIdx = t
		}
	}
	if gmaxIdx == -1 {
		return -1, -1, true
	}

	i := gmaxIdx
	colI := s.cache.column(i % s.l)
	yi := s.sign(i)

	for j := 0; j < 2*s.l; j++ {
		if s.sign(j) > 0 {
			if s.lower(j) {
				continue
			}
			gradDiff := gmax + s.grad[j]
			if s.grad[j] >= gmax2 {
				gmax2 = s.grad[j]
			}
			if gradDiff > 0 {
				quad := 2 - 2*yi*s.q(colI, i, j)
				objDiff := -gradDiff * gradDiff / positive(quad)
				if objDiff <= objDiffMin {
					gminIdx = j
					objDiffMin = objDiff
				}
			}
		} else {
			if s.upper(j) {
				continue
			}
			gradDiff := gmax - s.grad[j]
			if -s.grad[j] >= gmax2 {
				gmax2 = -s.grad[j]
			}
			if gradDiff > 0 {
				quad := 2 + 2*yi*s.q(colI, i, j)
				objDiff := -gradDiff * gradDiff / positive(quad)
				if objDiff <= objDiffMin {
					gminIdx = j
					objDiffMin = objDiff
				}
			}
		}
	}

	if gmax+gmax2 < s.tol || gminIdx == -1 {
		return -1, -1, true
	}
	return i, gminIdx, false
}

func (s *smo) update(i, j int) {
	colI := s.cache.column(i % s.l)
	colJ := s.cache.column(j % s.l)
	qij := s.q(colI, i, j)
	c := s.c

	oldI, oldJ := s.alpha[i], s.alpha[j]
	if s.sign(i) != s.sign(j) {
		delta := (-s.grad[i] - s.grad[j]) / positive(2+2*qij)
		diff := s.alpha[i] - s.alpha[j]
		s.alpha[i] += delta
		s.alpha[j] += delta
		if diff > 0 {
			if s.alpha[j] < 0 {
				s.alpha[j] = 0
				s.alpha[i] = diff
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i] = 0
			s.alpha[j] = -diff
		}
		if diff > 0 {
			if s.alpha[i] > c {
				s.alpha[i] = c
				s.alpha[j] = c - diff
			}
		} else if s.alpha[j] > c {
			s.alpha[j] = c
			s.alpha[i] = c + diff
		}
	} else {
		delta := (s.grad[i] - s.grad[j]) / positive(2-2*qij)
		sum := s.alpha[i] + s.alpha[j]
		s.alpha[i] -= delta
		s.alpha[j] += delta
		if sum > c {
			if s.alpha[i] > c {
				s.alpha[i] = c
				s.alpha[j] = sum - c
			}
		} else if s.alpha[j] < 0 {
			s.alpha[j] = 0
			s.alpha[i] = sum
		}
		if sum > c {
			if s.alpha[j] > c {
				s.alpha[j] = c
				s.alpha[i] = sum - c
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i] = 0
			s.alpha[j] = sum
		}
	}

	dI := s.alpha[i] - oldI
	dJ := s.alpha[j] - oldJ
	si, sj := s.sign(i), s.sign(j)
	for k := 0; k < s.l; k++ {
		// Q(i,k) = s_i*s_k*K(i%l,k%l); s_k is +1 on the first half and -1 on the second
		step := si*colI[k]*dI + sj*colJ[k]*dJ
		s.grad[k] += step
		s.grad[k+s.l] -= step
	}
}

// rho is the offset of the decision function: the mean of y*G over free
// variables, or the midpoint of the feasible interval when none are free
func (s *smo) rho() float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	nFree := 0
	sumFree := 0.0
	for t := 0; t < 2*s.l; t++ {
		yg := s.sign(t) * s.grad[t]
		switch {
		case s.upper(t):
			if s.sign(t) < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case s.lower(t):
			if s.sign(t) > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}

func positive(quad float64) float64 {
	if quad <= 0 {
		return tau
	}
	return quad
}
