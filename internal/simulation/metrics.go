package simulation

import (
	"proforma-mcs/internal/forecast"
	"proforma-mcs/internal/stats"
)

// neutralScore is used when no component of a composite score is available.
const neutralScore = 0.5

type scoreComponent struct {
	parameter string
	weight    float64
	score     func(values []float64) float64
}

func clamp01(v float64) float64 {
	return stats.Clamp(v, 0, 1)
}

var growthComponents = []scoreComponent{
	{forecast.RentGrowth, 0.30, func(v []float64) float64 {
		return clamp01(stats.Mean(v) / 0.06)
	}},
	{forecast.PropertyGrowth, 0.25, func(v []float64) float64 {
		return clamp01(stats.Mean(v) / 0.08)
	}},
	// Lower cap rates mean richer valuations.
	{forecast.CapRate, 0.25, func(v []float64) float64 {
		return clamp01((0.08 - stats.Mean(v)) / 0.04)
	}},
	{forecast.VacancyRate, 0.20, func(v []float64) float64 {
		return clamp01((0.15 - stats.Mean(v)) / 0.12)
	}},
}

var riskComponents = []scoreComponent{
	{forecast.Treasury10Y, 0.20, func(v []float64) float64 {
		return clamp01((stats.Mean(v) - 0.02) / 0.05)
	}},
	{forecast.CommercialMortgageRate, 0.25, func(v []float64) float64 {
		return clamp01((stats.Mean(v) - 0.03) / 0.05)
	}},
	{forecast.CapRate, 0.25, func(v []float64) float64 {
		level := clamp01((stats.Mean(v) - 0.04) / 0.04)
		volatility := clamp01(stats.PopStdDev(v) / 0.02)
		return (level + volatility) / 2
	}},
	{forecast.VacancyRate, 0.15, func(v []float64) float64 {
		level := clamp01((stats.Mean(v) - 0.03) / 0.12)
		volatility := clamp01(stats.PopStdDev(v) / 0.05)
		return (level + volatility) / 2
	}},
	// Lower leverage signals tighter lending, read as market risk.
	{forecast.LTVRatio, 0.15, func(v []float64) float64 {
		return clamp01((0.80 - stats.Mean(v)) / 0.10)
	}},
}

// volatilityParameters get an intra-scenario, cross-year standard deviation.
var volatilityParameters = []string{
	forecast.RentGrowth,
	forecast.CapRate,
	forecast.VacancyRate,
	forecast.PropertyGrowth,
}

// weightedScore averages the components whose parameter is present, renormalising
// weights over them.
func weightedScore(values map[string][]float64, components []scoreComponent) float64 {
	var total, weights float64
	for _, c := range components {
		v, ok := values[c.parameter]
		if !ok || len(v) == 0 {
			continue
		}
		total += c.weight * c.score(v)
		weights += c.weight
	}
	if weights == 0 {
		return neutralScore
	}
	return clamp01(total / weights)
}

// GrowthScore rates the scenario's appreciation potential in [0,1].
func GrowthScore(values map[string][]float64) float64 {
	return weightedScore(values, growthComponents)
}

// RiskScore rates the scenario's financing and market risk in [0,1].
func RiskScore(values map[string][]float64) float64 {
	return weightedScore(values, riskComponents)
}

// ClassifyMarket applies the regime rules in priority order.
func ClassifyMarket(growth, risk float64) MarketScenario {
	switch {
	case growth > 0.6 && risk < 0.4:
		return BullMarket
	case growth < 0.4 && risk > 0.6:
		return BearMarket
	case growth > 0.7:
		return GrowthMarket
	case risk > 0.7:
		return StressMarket
	default:
		return NeutralMarket
	}
}

// CalculateMetrics derives the composite metrics of one scenario.
func CalculateMetrics(values map[string][]float64) ScenarioMetrics {
	growth := GrowthScore(values)
	risk := RiskScore(values)

	volatility := make(map[string]float64)
	for _, p := range volatilityParameters {
		if v, ok := values[p]; ok && len(v) > 0 {
			volatility[p+"_volatility"] = stats.PopStdDev(v)
		}
	}

	return ScenarioMetrics{
		GrowthScore:        growth,
		RiskScore:          risk,
		MarketScenario:     ClassifyMarket(growth, risk),
		VolatilityMeasures: volatility,
	}
}
