package simulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"proforma-mcs/internal/forecast"
)

const (
	// DefaultPairCorrelation applies to parameter pairs absent from the table.
	DefaultPairCorrelation = 0.05
	// EigenvalueFloor is the minimum eigenvalue kept by the PSD repair.
	EigenvalueFloor = 0.01
)

// CorrelationPair is an undirected prior between two parameters.
type CorrelationPair struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Coefficient float64 `json:"coefficient"`
}

// CorrelationTable is an undirected lookup of pairwise priors.
type CorrelationTable struct {
	pairs map[[2]string]float64
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// NewCorrelationTable builds a table; a later pair overrides an earlier one.
func NewCorrelationTable(pairs []CorrelationPair) CorrelationTable {
	t := CorrelationTable{pairs: make(map[[2]string]float64, len(pairs))}
	for _, p := range pairs {
		t.pairs[pairKey(p.A, p.B)] = p.Coefficient
	}
	return t
}

// Lookup returns the coefficient for (a,b) regardless of order.
func (t CorrelationTable) Lookup(a, b string) (float64, bool) {
	v, ok := t.pairs[pairKey(a, b)]
	return v, ok
}

// Len returns the number of curated pairs.
func (t CorrelationTable) Len() int {
	return len(t.pairs)
}

// DefaultCorrelationTable returns the economic priors used by the estimator.
func DefaultCorrelationTable() CorrelationTable {
	return NewCorrelationTable([]CorrelationPair{
		// Rates move together
		{forecast.Treasury10Y, forecast.CommercialMortgageRate, 0.85},
		{forecast.Treasury10Y, forecast.FedFundsRate, 0.70},
		{forecast.FedFundsRate, forecast.CommercialMortgageRate, 0.65},
		{forecast.Treasury10Y, forecast.CapRate, 0.45},
		{forecast.CommercialMortgageRate, forecast.CapRate, 0.50},
		// Growth
		{forecast.RentGrowth, forecast.PropertyGrowth, 0.60},
		{forecast.RentGrowth, forecast.ExpenseGrowth, 0.30},
		{forecast.PropertyGrowth, forecast.CapRate, -0.50},
		// Market stress
		{forecast.VacancyRate, forecast.RentGrowth, -0.40},
		{forecast.VacancyRate, forecast.PropertyGrowth, -0.35},
		{forecast.VacancyRate, forecast.CapRate, 0.30},
		// Lending standards
		{forecast.LTVRatio, forecast.ClosingCostPct, -0.25},
		{forecast.LTVRatio, forecast.LenderReserves, -0.30},
		{forecast.CommercialMortgageRate, forecast.LTVRatio, -0.35},
		{forecast.VacancyRate, forecast.LenderReserves, 0.25},
	})
}

// CorrelationMatrix is a unit-diagonal, symmetric, positive semi-definite matrix
// over an ordered list of parameters.
type CorrelationMatrix struct {
	Parameters []string    `json:"parameters"`
	Values     [][]float64 `json:"values"`
	Repaired   bool        `json:"repaired"`
	Fallback   bool        `json:"fallback"`
}

// IdentityMatrix treats all parameters as independent.
func IdentityMatrix(names []string) *CorrelationMatrix {
	n := len(names)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		values[i][i] = 1
	}
	params := make([]string, n)
	copy(params, names)
	return &CorrelationMatrix{Parameters: params, Values: values}
}

// Size returns the matrix dimension.
func (m *CorrelationMatrix) Size() int {
	return len(m.Parameters)
}

// At returns the correlation between two parameters.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m *CorrelationMatrix) index(name string) int {
	for i, p := range m.Parameters {
		if p == name {
			return i
		}
	}
	return -1
}

func (m *CorrelationMatrix) sym() *mat.SymDense {
	n := m.Size()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, m.Values[i][j])
		}
	}
	return s
}

// Eigenvalues returns the eigenvalues in ascending order.
func (m *CorrelationMatrix) Eigenvalues() ([]float64, error) {
	if m.Size() == 0 {
		return nil, nil
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(m.sym(), false); !ok {
		return nil, errors.New("eigendecomposition did not converge")
	}
	return eig.Values(nil), nil
}

// Factor returns L with L·Lᵀ equal to the matrix. Negative round-off eigenvalues
// are treated as zero.
func (m *CorrelationMatrix) Factor() (*mat.Dense, error) {
	n := m.Size()
	if n == 0 {
		return nil, errors.New("empty correlation matrix")
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(m.sym(), true); !ok {
		return nil, errors.New("eigendecomposition did not converge")
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	roots := make([]float64, n)
	for i, v := range values {
		roots[i] = math.Sqrt(math.Max(v, 0))
	}
	var factor mat.Dense
	factor.Mul(&vecs, mat.NewDiagDense(n, roots))
	return &factor, nil
}

// CorrelationEstimator derives a correlation matrix from a table of priors.
type CorrelationEstimator struct {
	table       CorrelationTable
	defaultCorr float64
	floor       float64
	log         zerolog.Logger
}

func NewCorrelationEstimator(table CorrelationTable, logger zerolog.Logger) *CorrelationEstimator {
	return &CorrelationEstimator{
		table:       table,
		defaultCorr: DefaultPairCorrelation,
		floor:       EigenvalueFloor,
		log:         logger.With().Str("component", "correlation_estimator").Logger(),
	}
}

// Estimate builds the matrix for the given parameters. Any failure degrades to the
// identity matrix with Fallback set; it never fails the caller.
func (ce *CorrelationEstimator) Estimate(names []string) (m *CorrelationMatrix) {
	defer func() {
		if r := recover(); r != nil {
			ce.log.Warn().Interface("panic", r).Msg("Correlation estimation panicked, falling back to independent parameters")
			m = IdentityMatrix(names)
			m.Fallback = true
		}
	}()

	m, err := ce.estimate(names)
	if err != nil {
		ce.log.Warn().Err(err).Int("parameters", len(names)).Msg("Correlation estimation failed, falling back to independent parameters")
		m = IdentityMatrix(names)
		m.Fallback = true
	}
	return m
}

func (ce *CorrelationEstimator) estimate(names []string) (*CorrelationMatrix, error) {
	m := IdentityMatrix(names)
	n := m.Size()
	if n <= 1 {
		return m, nil
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c, ok := ce.table.Lookup(names[i], names[j])
			if !ok {
				c = ce.defaultCorr
			}
			if math.IsNaN(c) || c < -1 || c > 1 {
				return nil, fmt.Errorf("coefficient %g for %s/%s out of range", c, names[i], names[j])
			}
			m.Values[i][j] = c
			m.Values[j][i] = c
		}
	}

	repaired, wasRepaired, err := ce.repair(m)
	if err != nil {
		return nil, err
	}
	repaired.Repaired = wasRepaired

	ce.log.Debug().
		Int("parameters", n).
		Bool("repaired", wasRepaired).
		Msg("Estimated correlation matrix")
	return repaired, nil
}

// repair clamps eigenvalues to the floor, rebuilds V·diag(λ)·Vᵀ and rescales
// to an exact unit diagonal. The rescale keeps the matrix positive definite but
// may leave its smallest eigenvalue somewhat below the floor.
func (ce *CorrelationEstimator) repair(m *CorrelationMatrix) (*CorrelationMatrix, bool, error) {
	n := m.Size()
	var eig mat.EigenSym
	if ok := eig.Factorize(m.sym(), true); !ok {
		return nil, false, errors.New("eigendecomposition did not converge")
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	clamped := make([]float64, n)
	wasRepaired := false
	for i, v := range values {
		if v < ce.floor {
			wasRepaired = true
			v = ce.floor
		}
		clamped[i] = v
	}

	var scaled, rebuilt mat.Dense
	scaled.Mul(&vecs, mat.NewDiagDense(n, clamped))
	rebuilt.Mul(&scaled, vecs.T())

	out := IdentityMatrix(m.Parameters)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Sqrt(rebuilt.At(i, i) * rebuilt.At(j, j))
			if d <= 0 || math.IsNaN(d) {
				return nil, false, fmt.Errorf("degenerate diagonal at %d,%d", i, j)
			}
			c := (rebuilt.At(i, j) + rebuilt.At(j, i)) / 2 / d
			c = math.Max(-1, math.Min(1, c))
			out.Values[i][j] = c
			out.Values[j][i] = c
		}
	}
	return out, wasRepaired, nil
}
