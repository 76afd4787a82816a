package simulation

import (
	"fmt"
	"math"
	"strings"
)

// DefaultConfidenceLevel is used when a request leaves it unset.
const DefaultConfidenceLevel = 0.95

// SimulationRequest describes one run.
type SimulationRequest struct {
	PropertyID      string  `json:"property_id"`
	MSACode         string  `json:"msa_code"`
	NumScenarios    int     `json:"num_scenarios"`
	HorizonYears    int     `json:"horizon_years"`
	UseCorrelations bool    `json:"use_correlations"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// NewSimulationRequest validates and returns a request. A zero confidence level
// means DefaultConfidenceLevel.
func NewSimulationRequest(propertyID, msaCode string, numScenarios, horizonYears int, useCorrelations bool, confidenceLevel float64) (SimulationRequest, error) {
	if confidenceLevel == 0 {
		confidenceLevel = DefaultConfidenceLevel
	}
	req := SimulationRequest{
		PropertyID:      propertyID,
		MSACode:         msaCode,
		NumScenarios:    numScenarios,
		HorizonYears:    horizonYears,
		UseCorrelations: useCorrelations,
		ConfidenceLevel: confidenceLevel,
	}
	if err := req.Validate(); err != nil {
		return SimulationRequest{}, err
	}
	return req, nil
}

// Validate reports every violated constraint at once.
func (r SimulationRequest) Validate() error {
	var problems []string
	if strings.TrimSpace(r.MSACode) == "" {
		problems = append(problems, "msa_code is required")
	}
	if r.NumScenarios <= 0 {
		problems = append(problems, fmt.Sprintf("num_scenarios must be > 0, got %d", r.NumScenarios))
	}
	if r.HorizonYears <= 0 {
		problems = append(problems, fmt.Sprintf("horizon_years must be > 0, got %d", r.HorizonYears))
	}
	if !(r.ConfidenceLevel > 0 && r.ConfidenceLevel < 1) {
		problems = append(problems, fmt.Sprintf("confidence_level must be in (0,1), got %g", r.ConfidenceLevel))
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// confidenceCuts returns the two-sided band percentiles implied by the confidence
// level, rounded so that 0.95 yields exactly 2.5 and 97.5.
func (r SimulationRequest) confidenceCuts() (float64, float64) {
	lower := math.Round((1-r.ConfidenceLevel)/2*100*1e6) / 1e6
	return lower, math.Round((100-lower)*1e6) / 1e6
}
