package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proforma-mcs/internal/forecast"
)

func scenarioWith(index int, growth, risk float64, values map[string][]float64) Scenario {
	if values == nil {
		values = map[string][]float64{forecast.LTVRatio: {0.7, 0.7}}
	}
	return Scenario{
		ID:              ScenarioID{SimulationID: "sim", Index: index},
		ParameterValues: values,
		Metrics: ScenarioMetrics{
			GrowthScore:    growth,
			RiskScore:      risk,
			MarketScenario: ClassifyMarket(growth, risk),
		},
	}
}

func TestPercentileRanks_StrictlyLowerWithTies(t *testing.T) {
	scenarios := []Scenario{
		scenarioWith(0, 0.2, 0.5, nil),
		scenarioWith(1, 0.5, 0.5, nil),
		scenarioWith(2, 0.5, 0.5, nil),
		scenarioWith(3, 0.9, 0.5, nil),
	}
	assert.Equal(t, []float64{0, 25, 25, 75}, PercentileRanks(scenarios))
}

func TestPercentileRanks_Monotonic(t *testing.T) {
	growth := []float64{0.31, 0.72, 0.05, 0.72, 0.5, 0.99, 0.31, 0.0}
	scenarios := make([]Scenario, len(growth))
	for i, g := range growth {
		scenarios[i] = scenarioWith(i, g, 0.5, nil)
	}
	ranks := PercentileRanks(scenarios)
	for i := range scenarios {
		for j := range scenarios {
			if growth[i] > growth[j] {
				assert.GreaterOrEqual(t, ranks[i], ranks[j])
			}
		}
		assert.GreaterOrEqual(t, ranks[i], 0.0)
		assert.Less(t, ranks[i], 100.0)
	}
}

func TestExtremeScenarios_TieBreaking(t *testing.T) {
	scenarios := []Scenario{
		scenarioWith(0, 0.5, 0.3, nil),
		scenarioWith(1, 0.1, 0.8, nil),
		scenarioWith(2, 0.1, 0.3, nil),
		scenarioWith(3, 0.9, 0.8, nil),
		scenarioWith(4, 0.9, 0.5, nil),
	}
	ext := ExtremeScenarios(scenarios)

	assert.Equal(t, 1, ext[WorstGrowth].Index, "first minimum wins")
	assert.Equal(t, 4, ext[BestGrowth].Index, "last maximum wins")
	assert.Equal(t, 0, ext[LowestRisk].Index)
	assert.Equal(t, 3, ext[HighestRisk].Index)

	_, ok := ext[HighestRentGrowth]
	assert.False(t, ok, "rent growth extremes require the parameter")
	_, ok = ext[LowestCapRate]
	assert.False(t, ok)
}

func TestExtremeScenarios_ParameterMeans(t *testing.T) {
	scenarios := []Scenario{
		scenarioWith(0, 0.5, 0.5, map[string][]float64{forecast.RentGrowth: {0.02, 0.04}, forecast.CapRate: {0.05, 0.05}}),
		scenarioWith(1, 0.5, 0.5, map[string][]float64{forecast.RentGrowth: {0.05, 0.05}, forecast.CapRate: {0.07, 0.06}}),
		scenarioWith(2, 0.5, 0.5, map[string][]float64{forecast.RentGrowth: {0.00, 0.01}, forecast.CapRate: {0.04, 0.05}}),
	}
	ext := ExtremeScenarios(scenarios)

	assert.Equal(t, 1, ext[HighestRentGrowth].Index)
	assert.Equal(t, 2, ext[LowestRentGrowth].Index)
	assert.Equal(t, 2, ext[LowestCapRate].Index)
	assert.Equal(t, 1, ext[HighestCapRate].Index)
}

func TestAggregator_Summary(t *testing.T) {
	scenarios := []Scenario{
		scenarioWith(0, 0.8, 0.2, map[string][]float64{forecast.CapRate: {0.05, 0.06}}),
		scenarioWith(1, 0.2, 0.9, map[string][]float64{forecast.CapRate: {0.07, 0.08}}),
		scenarioWith(2, 0.5, 0.5, map[string][]float64{forecast.CapRate: {0.06, 0.06}, forecast.RentGrowth: {0.03, 0.03}}),
	}

	ranked, summary := NewAggregator(nil).Aggregate(scenarios, 2.5, 97.5)
	require.Len(t, ranked, 3)
	for _, s := range ranked {
		require.NotNil(t, s.PercentileRank)
	}
	assert.Nil(t, scenarios[0].PercentileRank, "input scenarios are not modified")
	assert.InDelta(t, 200.0/3, *ranked[0].PercentileRank, 1e-9)

	capStats := summary.ParameterStatistics[forecast.CapRate]
	require.NotNil(t, capStats)
	assert.InDelta(t, 0.38/6, capStats.Mean(), 1e-12)
	assert.InDelta(t, 0.05, capStats["min"], 1e-12)
	assert.InDelta(t, 0.08, capStats["max"], 1e-12)
	for _, key := range []string{"p5", "p25", "p50", "p75", "p95", "p2.5", "p97.5"} {
		_, ok := capStats[key]
		assert.True(t, ok, "missing %s", key)
	}
	assert.InDelta(t, 0.06, capStats["p50"], 1e-12)
	assert.InDelta(t, 0.0775, capStats["p95"], 1e-12)
	assert.Len(t, summary.ParameterStatistics[forecast.RentGrowth], 4+7)

	assert.Equal(t, 1, summary.ScenarioDistribution[BullMarket])
	assert.Equal(t, 1, summary.ScenarioDistribution[BearMarket])
	assert.Equal(t, 1, summary.ScenarioDistribution[NeutralMarket])
	assert.Equal(t, 0, summary.ScenarioDistribution[StressMarket])
	assert.InDelta(t, 0.5, summary.GrowthScore.Mean, 1e-12)
	assert.Equal(t, 0.2, summary.GrowthScore.Min)
}

func TestScenarioID_Text(t *testing.T) {
	id := ScenarioID{SimulationID: "8f14e45f-ceea-467f-a0e6-1c2f3b4a5d6e", Index: 42}
	text, err := id.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "8f14e45f-ceea-467f-a0e6-1c2f3b4a5d6e-00042", string(text))

	var parsed ScenarioID
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, id, parsed)
}

func TestNewScenario_Validation(t *testing.T) {
	_, err := NewScenario(ScenarioID{}, nil, ScenarioMetrics{})
	assert.Error(t, err)

	_, err = NewScenario(ScenarioID{}, map[string][]float64{"a": {1, 2}, "b": {1}}, ScenarioMetrics{})
	assert.Error(t, err)

	s, err := NewScenario(ScenarioID{}, map[string][]float64{"a": {1, 2}, "b": {3, 4}}, ScenarioMetrics{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Years())

	ranked := s.WithPercentileRank(50)
	assert.Nil(t, s.PercentileRank)
	assert.Equal(t, 50.0, *ranked.PercentileRank)
}
