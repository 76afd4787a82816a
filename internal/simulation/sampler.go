package simulation

import (
	"fmt"
	"math/rand"

	"proforma-mcs/internal/forecast"
)

// Sampler draws parameter trajectories from a forecast set. It is read-only after
// construction and safe for concurrent use with one *rand.Rand per goroutine.
type Sampler struct {
	names      []string
	horizon    int
	means      [][]float64 // [parameter][year]
	stds       [][]float64
	factor     [][]float64 // L with L·Lᵀ = correlation; nil when independent
	correlated bool
}

// NewSampler prepares per-year means and standard deviations. Correlated sampling
// is used when useCorrelations is set and a matrix is supplied.
func NewSampler(set *forecast.ForecastSet, matrix *CorrelationMatrix, horizon int, useCorrelations bool) (*Sampler, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	names := set.ParameterNames()
	correlated := useCorrelations && matrix != nil && matrix.Size() > 0
	if correlated {
		names = matrix.Parameters
	}

	s := &Sampler{
		names:      names,
		horizon:    horizon,
		means:      make([][]float64, len(names)),
		stds:       make([][]float64, len(names)),
		correlated: correlated,
	}
	for i, name := range names {
		curve, ok := set.Curve(name)
		if !ok {
			return nil, fmt.Errorf("correlation matrix references %q which has no forecast", name)
		}
		if curve.Len() < horizon {
			return nil, fmt.Errorf("forecast for %q covers %d years, need %d", name, curve.Len(), horizon)
		}
		s.means[i] = curve.Means(horizon)
		s.stds[i] = curve.Stds(horizon)
	}

	if correlated {
		l, err := matrix.Factor()
		if err != nil {
			return nil, fmt.Errorf("failed to factor correlation matrix: %w", err)
		}
		n := len(names)
		s.factor = make([][]float64, n)
		for i := 0; i < n; i++ {
			s.factor[i] = make([]float64, n)
			for k := 0; k < n; k++ {
				s.factor[i][k] = l.At(i, k)
			}
		}
	}
	return s, nil
}

// Parameters returns the sampled parameter names.
func (s *Sampler) Parameters() []string {
	return s.names
}

// Correlated reports whether draws are coupled across parameters.
func (s *Sampler) Correlated() bool {
	return s.correlated
}

// Sample draws one scenario's trajectories.
func (s *Sampler) Sample(rng *rand.Rand) map[string][]float64 {
	out := make(map[string][]float64, len(s.names))
	if len(s.names) == 0 {
		return out
	}
	if s.correlated {
		s.sampleCorrelated(rng, out)
	} else {
		s.sampleIndependent(rng, out)
	}
	return out
}

// sampleCorrelated draws one multivariate normal vector per year with covariance
// outer(std, std) ⊙ corr, i.e. x = μ + diag(std)·L·z. Years are independent.
func (s *Sampler) sampleCorrelated(rng *rand.Rand, out map[string][]float64) {
	n := len(s.names)
	traj := make([][]float64, n)
	for i := range traj {
		traj[i] = make([]float64, s.horizon)
	}

	z := make([]float64, n)
	for y := 0; y < s.horizon; y++ {
		for k := range z {
			z[k] = rng.NormFloat64()
		}
		for i := 0; i < n; i++ {
			var shock float64
			for k := 0; k < n; k++ {
				shock += s.factor[i][k] * z[k]
			}
			traj[i][y] = s.means[i][y] + s.stds[i][y]*shock
		}
	}

	for i, name := range s.names {
		out[name] = traj[i]
	}
}

func (s *Sampler) sampleIndependent(rng *rand.Rand, out map[string][]float64) {
	for i, name := range s.names {
		values := make([]float64, s.horizon)
		for y := 0; y < s.horizon; y++ {
			values[y] = s.means[i][y] + s.stds[i][y]*rng.NormFloat64()
		}
		out[name] = values
	}
}

// scenarioRand returns the random stream for one scenario. Streams depend only on
// the run seed and the scenario index, so output is independent of worker scheduling.
func scenarioRand(seed int64, index int) *rand.Rand {
	return rand.New(rand.NewSource(mixSeed(uint64(seed), uint64(index))))
}

// mixSeed is the splitmix64 finaliser applied to seed and index.
func mixSeed(seed, index uint64) int64 {
	z := seed + (index+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return int64(z)
}
