package simulation

import (
	"slices"
	"sort"

	"proforma-mcs/internal/forecast"
	"proforma-mcs/internal/stats"
)

// DefaultPercentiles are the cut-points reported for every parameter.
var DefaultPercentiles = []float64{5, 25, 50, 75, 95}

// Extreme scenario labels.
const (
	WorstGrowth       = "worst_growth"
	BestGrowth        = "best_growth"
	LowestRisk        = "lowest_risk"
	HighestRisk       = "highest_risk"
	HighestRentGrowth = "highest_rent_growth"
	LowestRentGrowth  = "lowest_rent_growth"
	LowestCapRate     = "lowest_cap_rate"
	HighestCapRate    = "highest_cap_rate"
)

// Aggregator computes cross-scenario statistics.
type Aggregator struct {
	cuts []float64
}

func NewAggregator(cuts []float64) *Aggregator {
	if len(cuts) == 0 {
		cuts = DefaultPercentiles
	}
	c := make([]float64, len(cuts))
	copy(c, cuts)
	slices.Sort(c)
	return &Aggregator{cuts: slices.Compact(c)}
}

// Aggregate returns the scenarios with percentile ranks attached, and the summary.
// extraCuts are added to the configured cut-points for this call only.
func (a *Aggregator) Aggregate(scenarios []Scenario, extraCuts ...float64) ([]Scenario, SimulationSummary) {
	cuts := a.cuts
	if len(extraCuts) > 0 {
		cuts = append(slices.Clone(a.cuts), extraCuts...)
		slices.Sort(cuts)
		cuts = slices.Compact(cuts)
	}

	ranks := PercentileRanks(scenarios)
	ranked := make([]Scenario, len(scenarios))
	for i, s := range scenarios {
		ranked[i] = s.WithPercentileRank(ranks[i])
	}

	growth := make([]float64, len(scenarios))
	risk := make([]float64, len(scenarios))
	for i, s := range scenarios {
		growth[i] = s.Metrics.GrowthScore
		risk[i] = s.Metrics.RiskScore
	}

	summary := SimulationSummary{
		ParameterStatistics:  ParameterStatisticsFor(scenarios, cuts),
		ScenarioDistribution: ScenarioDistribution(scenarios),
		ExtremeScenarios:     ExtremeScenarios(scenarios),
		GrowthScore:          scoreStatistics(growth),
		RiskScore:            scoreStatistics(risk),
	}
	return ranked, summary
}

// ParameterStatisticsFor flattens every (scenario, year) value per parameter.
func ParameterStatisticsFor(scenarios []Scenario, cuts []float64) map[string]ParameterStatistics {
	flat := make(map[string][]float64)
	for _, s := range scenarios {
		for name, v := range s.ParameterValues {
			flat[name] = append(flat[name], v...)
		}
	}

	out := make(map[string]ParameterStatistics, len(flat))
	for name, values := range flat {
		d := stats.Describe(values, cuts)
		ps := ParameterStatistics{
			"mean": d.Mean,
			"std":  d.Std,
			"min":  d.Min,
			"max":  d.Max,
		}
		for cut, v := range d.Percentiles {
			ps[PercentileKey(cut)] = v
		}
		out[name] = ps
	}
	return out
}

// PercentileRanks returns, per scenario, the share of scenarios with a strictly
// lower growth score, times 100. Tied scenarios share a rank.
func PercentileRanks(scenarios []Scenario) []float64 {
	n := len(scenarios)
	sorted := make([]float64, n)
	for i, s := range scenarios {
		sorted[i] = s.Metrics.GrowthScore
	}
	sort.Float64s(sorted)

	ranks := make([]float64, n)
	for i, s := range scenarios {
		lower := sort.SearchFloat64s(sorted, s.Metrics.GrowthScore)
		ranks[i] = float64(lower) / float64(n) * 100
	}
	return ranks
}

// ScenarioDistribution counts scenarios per market label; every label is present.
func ScenarioDistribution(scenarios []Scenario) map[MarketScenario]int {
	dist := make(map[MarketScenario]int, len(MarketScenarios))
	for _, m := range MarketScenarios {
		dist[m] = 0
	}
	for _, s := range scenarios {
		dist[s.Metrics.MarketScenario]++
	}
	return dist
}

// ExtremeScenarios labels boundary scenarios. Minimums keep the first occurrence,
// maximums the last.
func ExtremeScenarios(scenarios []Scenario) map[string]ScenarioID {
	out := make(map[string]ScenarioID)
	if len(scenarios) == 0 {
		return out
	}

	pick := func(minLabel, maxLabel string, value func(Scenario) (float64, bool)) {
		minIdx, maxIdx := -1, -1
		var minVal, maxVal float64
		for i, s := range scenarios {
			v, ok := value(s)
			if !ok {
				continue
			}
			if minIdx == -1 || v < minVal {
				minIdx, minVal = i, v
			}
			if maxIdx == -1 || v >= maxVal {
				maxIdx, maxVal = i, v
			}
		}
		if minIdx >= 0 {
			out[minLabel] = scenarios[minIdx].ID
			out[maxLabel] = scenarios[maxIdx].ID
		}
	}

	pick(WorstGrowth, BestGrowth, func(s Scenario) (float64, bool) {
		return s.Metrics.GrowthScore, true
	})
	pick(LowestRisk, HighestRisk, func(s Scenario) (float64, bool) {
		return s.Metrics.RiskScore, true
	})
	pick(LowestRentGrowth, HighestRentGrowth, meanOf(forecast.RentGrowth))
	pick(LowestCapRate, HighestCapRate, meanOf(forecast.CapRate))
	return out
}

func meanOf(parameter string) func(Scenario) (float64, bool) {
	return func(s Scenario) (float64, bool) {
		v, ok := s.ParameterValues[parameter]
		if !ok || len(v) == 0 {
			return 0, false
		}
		return stats.Mean(v), true
	}
}

func scoreStatistics(values []float64) ScoreStatistics {
	d := stats.Describe(values, nil)
	return ScoreStatistics{Mean: d.Mean, Std: d.Std, Min: d.Min, Max: d.Max, Median: d.Median}
}
