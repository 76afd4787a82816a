package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Description summarises a sample.
type Description struct {
	Count       int
	Mean        float64
	Std         float64
	Min         float64
	Max         float64
	Median      float64
	Percentiles map[float64]float64 // keyed by cut-point in [0,100]
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// PopStdDev returns the population (ddof=0) standard deviation.
func PopStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(values, nil)
	if variance <= 0 || math.IsNaN(variance) {
		return 0
	}
	return math.Sqrt(variance)
}

// Percentile returns the p-th percentile (p in [0,100]) of an already sorted slice,
// interpolating linearly between the closest ranks at h = (n-1)*p/100.
// Percentile(sorted, 50) equals the median.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	h := float64(len(sorted)-1) * Clamp(p/100, 0, 1)
	lo, hi := math.Floor(h), math.Ceil(h)
	if lo == hi {
		return sorted[int(lo)]
	}
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

// CalculateMedianContinuous finds the median value in a slice of floats.
func CalculateMedianContinuous(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

// Describe computes the summary of values at the requested percentile cut-points.
// The input is not modified.
func Describe(values []float64, cuts []float64) Description {
	d := Description{Count: len(values), Percentiles: make(map[float64]float64, len(cuts))}
	if len(values) == 0 {
		for _, c := range cuts {
			d.Percentiles[c] = 0
		}
		return d
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	slices.Sort(sorted)

	d.Mean = Mean(sorted)
	d.Std = PopStdDev(sorted)
	d.Min = floats.Min(sorted)
	d.Max = floats.Max(sorted)
	d.Median = CalculateMedianContinuous(sorted)
	for _, c := range cuts {
		d.Percentiles[c] = Percentile(sorted, c)
	}
	return d
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
