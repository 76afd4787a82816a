package simulation

import (
	"fmt"
	"slices"

	"proforma-mcs/internal/forecast"
)

// CoverageCheckpoint compares one parameter-year's draws with its forecast interval.
type CoverageCheckpoint struct {
	Parameter  string  `json:"parameter"`
	Year       int     `json:"year"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Coverage   float64 `json:"coverage"` // share of draws inside [lower, upper]
	Degenerate bool    `json:"degenerate,omitempty"`
}

// CalibrationResult reports how well simulated draws reproduce the 95% intervals
// they were sampled from.
type CalibrationResult struct {
	Expected          float64              `json:"expected"`
	AccuracyScore     float64              `json:"accuracy_score"`
	Checkpoints       []CoverageCheckpoint `json:"checkpoints"`
	ValidationMessage string               `json:"validation_message"`
}

// CalibrationTolerance is the allowed absolute deviation from the nominal 95%.
const CalibrationTolerance = 0.05

// CheckCalibration measures, for each parameter and year, the share of scenarios
// whose draw falls inside the forecast interval. Zero-width intervals are skipped.
func CheckCalibration(set *forecast.ForecastSet, scenarios []Scenario) CalibrationResult {
	result := CalibrationResult{
		Expected:    0.95,
		Checkpoints: make([]CoverageCheckpoint, 0),
	}
	if set == nil || len(scenarios) == 0 {
		result.ValidationMessage = "No scenarios to calibrate."
		return result
	}

	names := set.ParameterNames()
	slices.Sort(names)

	hits, total := 0, 0
	for _, name := range names {
		curve, _ := set.Curve(name)
		for y, p := range curve.Points {
			cp := CoverageCheckpoint{Parameter: name, Year: p.Year, Lower: p.Lower, Upper: p.Upper}
			if p.Upper <= p.Lower {
				cp.Degenerate = true
				result.Checkpoints = append(result.Checkpoints, cp)
				continue
			}

			inside, n := 0, 0
			for _, s := range scenarios {
				v, ok := s.ParameterValues[name]
				if !ok || y >= len(v) {
					continue
				}
				n++
				if v[y] >= p.Lower && v[y] <= p.Upper {
					inside++
				}
			}
			if n == 0 {
				continue
			}
			cp.Coverage = float64(inside) / float64(n)
			result.Checkpoints = append(result.Checkpoints, cp)

			total++
			if cp.Coverage >= result.Expected-CalibrationTolerance && cp.Coverage <= result.Expected+CalibrationTolerance {
				hits++
			}
		}
	}

	if total > 0 {
		result.AccuracyScore = float64(hits) / float64(total)
		result.ValidationMessage = fmt.Sprintf("Calibration: %d/%d (%.0f%%) parameter-years reproduced their forecast interval within ±%.0f points.",
			hits, total, result.AccuracyScore*100, CalibrationTolerance*100)
		if result.AccuracyScore < 0.7 && total > 3 {
			result.ValidationMessage += " Warning: scenario count may be too low for stable tails."
		}
	} else {
		result.ValidationMessage = "All forecast intervals are degenerate; nothing to calibrate."
	}
	return result
}
