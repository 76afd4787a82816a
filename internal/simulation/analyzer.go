package simulation

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"proforma-mcs/internal/stats"
)

// CalculateCorrelation calculates the Pearson correlation between two series.
// Degenerate inputs (mismatched, empty or constant) yield 0.
func CalculateCorrelation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	c := stat.Correlation(a, b, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

// RealizedCorrelation measures the correlation two parameters actually show across
// scenarios, pooling every (scenario, year) pair.
func RealizedCorrelation(scenarios []Scenario, a, b string) (float64, bool) {
	var xs, ys []float64
	for _, s := range scenarios {
		va, okA := s.ParameterValues[a]
		vb, okB := s.ParameterValues[b]
		if !okA || !okB || len(va) != len(vb) {
			continue
		}
		xs = append(xs, va...)
		ys = append(ys, vb...)
	}
	if len(xs) < 2 {
		return 0, false
	}
	return CalculateCorrelation(xs, ys), true
}

// RealizedCorrelationMatrix returns the empirical counterpart of a target matrix.
func RealizedCorrelationMatrix(scenarios []Scenario, names []string) *CorrelationMatrix {
	m := IdentityMatrix(names)
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			c, _ := RealizedCorrelation(scenarios, names[i], names[j])
			m.Values[i][j] = c
			m.Values[j][i] = c
		}
	}
	return m
}

// YearBand is a per-year fan of one parameter across scenarios.
type YearBand struct {
	Year   int     `json:"year"`
	P5     float64 `json:"p5"`
	Median float64 `json:"p50"`
	P95    float64 `json:"p95"`
}

// YearlyBands computes P5/P50/P95 of a parameter for each forecast year.
func YearlyBands(scenarios []Scenario, parameter string) []YearBand {
	years := 0
	for _, s := range scenarios {
		if v, ok := s.ParameterValues[parameter]; ok {
			years = max(years, len(v))
		}
	}

	bands := make([]YearBand, 0, years)
	for y := 0; y < years; y++ {
		var column []float64
		for _, s := range scenarios {
			if v, ok := s.ParameterValues[parameter]; ok && y < len(v) {
				column = append(column, v[y])
			}
		}
		slices.Sort(column)
		bands = append(bands, YearBand{
			Year:   y + 1,
			P5:     stats.Percentile(column, 5),
			Median: stats.Percentile(column, 50),
			P95:    stats.Percentile(column, 95),
		})
	}
	return bands
}
