package simulation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proforma-mcs/internal/forecast"
)

func quietLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func assertValidCorrelation(t *testing.T, m *CorrelationMatrix) {
	t.Helper()
	n := m.Size()
	require.Len(t, m.Values, n)
	for i := 0; i < n; i++ {
		require.Len(t, m.Values[i], n)
		assert.InDelta(t, 1.0, m.Values[i][i], 1e-6, "diagonal at %d", i)
		for j := 0; j < n; j++ {
			assert.Equal(t, m.Values[i][j], m.Values[j][i], "asymmetric at %d,%d", i, j)
			assert.LessOrEqual(t, m.Values[i][j], 1.0)
			assert.GreaterOrEqual(t, m.Values[i][j], -1.0)
		}
	}
	eig, err := m.Eigenvalues()
	require.NoError(t, err)
	for _, v := range eig {
		assert.GreaterOrEqual(t, v, -1e-12, "negative eigenvalue %v", v)
	}
}

func TestDefaultCorrelationTable_Undirected(t *testing.T) {
	table := DefaultCorrelationTable()
	assert.Equal(t, 15, table.Len())

	ab, ok := table.Lookup(forecast.Treasury10Y, forecast.CommercialMortgageRate)
	require.True(t, ok)
	ba, ok := table.Lookup(forecast.CommercialMortgageRate, forecast.Treasury10Y)
	require.True(t, ok)
	assert.Equal(t, 0.85, ab)
	assert.Equal(t, ab, ba)

	v, _ := table.Lookup(forecast.RentGrowth, forecast.VacancyRate)
	assert.Equal(t, -0.40, v)
	v, _ = table.Lookup(forecast.ClosingCostPct, forecast.LTVRatio)
	assert.Equal(t, -0.25, v)

	_, ok = table.Lookup(forecast.FedFundsRate, forecast.ClosingCostPct)
	assert.False(t, ok)
}

func TestCorrelationEstimator_CanonicalParameters(t *testing.T) {
	ce := NewCorrelationEstimator(DefaultCorrelationTable(), quietLogger())
	m := ce.Estimate(forecast.CanonicalParameters)

	require.Equal(t, 11, m.Size())
	assert.False(t, m.Fallback)
	assert.Equal(t, forecast.CanonicalParameters, m.Parameters)
	assertValidCorrelation(t, m)

	c, ok := m.At(forecast.Treasury10Y, forecast.CommercialMortgageRate)
	require.True(t, ok)
	assert.InDelta(t, 0.85, c, 0.1)

	c, _ = m.At(forecast.FedFundsRate, forecast.ClosingCostPct)
	assert.InDelta(t, DefaultPairCorrelation, c, 0.03, "unlisted pairs default to a weak positive correlation")
}

func TestCorrelationEstimator_RepairsInconsistentPriors(t *testing.T) {
	table := NewCorrelationTable([]CorrelationPair{
		{"a", "b", 0.99},
		{"b", "c", 0.99},
		{"a", "c", -0.99},
	})
	ce := NewCorrelationEstimator(table, quietLogger())
	m := ce.Estimate([]string{"a", "b", "c"})

	assert.True(t, m.Repaired)
	assert.False(t, m.Fallback)
	assertValidCorrelation(t, m)

	// The unit-diagonal rescale may pull the smallest eigenvalue under the floor,
	// never to zero.
	eig, err := m.Eigenvalues()
	require.NoError(t, err)
	for _, v := range eig {
		assert.Greater(t, v, 0.0)
	}

	_, err = m.Factor()
	assert.NoError(t, err)
}

func TestCorrelationEstimator_FallsBackToIdentity(t *testing.T) {
	table := NewCorrelationTable([]CorrelationPair{{"a", "b", 1.5}})
	ce := NewCorrelationEstimator(table, quietLogger())
	m := ce.Estimate([]string{"a", "b"})

	assert.True(t, m.Fallback)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, m.Values)
}

func TestCorrelationEstimator_SmallInputs(t *testing.T) {
	ce := NewCorrelationEstimator(DefaultCorrelationTable(), quietLogger())

	one := ce.Estimate([]string{forecast.CapRate})
	assert.Equal(t, [][]float64{{1}}, one.Values)

	empty := ce.Estimate(nil)
	assert.Equal(t, 0, empty.Size())
}

func TestCorrelationMatrix_FactorReproducesMatrix(t *testing.T) {
	ce := NewCorrelationEstimator(DefaultCorrelationTable(), quietLogger())
	m := ce.Estimate(forecast.CanonicalParameters)

	l, err := m.Factor()
	require.NoError(t, err)
	n := m.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += l.At(i, k) * l.At(j, k)
			}
			assert.InDelta(t, m.Values[i][j], sum, 1e-9)
		}
	}
}
