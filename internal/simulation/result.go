package simulation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SimulationResult is the immutable outcome of a run.
type SimulationResult struct {
	SimulationID           string             `json:"simulation_id"`
	Request                SimulationRequest  `json:"request"`
	Scenarios              []Scenario         `json:"scenarios"`
	Summary                SimulationSummary  `json:"summary"`
	CorrelationMatrix      *CorrelationMatrix `json:"correlation_matrix,omitempty"`
	SimulationDate         time.Time          `json:"simulation_date"`
	ComputationTimeSeconds float64            `json:"computation_time_seconds"`
	Seed                   int64              `json:"seed"`
	CorrelationDegraded    bool               `json:"correlation_degraded"`
}

// NewSimulationID generates an id before a result is assembled.
func NewSimulationID() string {
	return uuid.New().String()
}

// ResultParts are the inputs of NewSimulationResult.
type ResultParts struct {
	SimulationID    string
	Request         SimulationRequest
	Scenarios       []Scenario
	Summary         SimulationSummary
	Correlation     *CorrelationMatrix
	SimulationDate  time.Time
	ComputationTime time.Duration
	Seed            int64
}

// NewSimulationResult assembles a result. A scenario count that differs from the
// request is a programming error and is reported as ErrScenarioCountMismatch.
func NewSimulationResult(p ResultParts) (*SimulationResult, error) {
	if len(p.Scenarios) != p.Request.NumScenarios {
		return nil, fmt.Errorf("%w: got %d, requested %d", ErrScenarioCountMismatch, len(p.Scenarios), p.Request.NumScenarios)
	}
	id := p.SimulationID
	if id == "" {
		id = NewSimulationID()
	}
	date := p.SimulationDate
	if date.IsZero() {
		date = time.Now().UTC()
	}

	return &SimulationResult{
		SimulationID:           id,
		Request:                p.Request,
		Scenarios:              p.Scenarios,
		Summary:                p.Summary,
		CorrelationMatrix:      p.Correlation,
		SimulationDate:         date,
		ComputationTimeSeconds: p.ComputationTime.Seconds(),
		Seed:                   p.Seed,
		CorrelationDegraded:    p.Correlation != nil && p.Correlation.Fallback,
	}, nil
}

// Scenario returns the scenario with the given id.
func (r *SimulationResult) Scenario(id ScenarioID) (Scenario, bool) {
	if id.SimulationID != r.SimulationID || id.Index < 0 || id.Index >= len(r.Scenarios) {
		return Scenario{}, false
	}
	s := r.Scenarios[id.Index]
	return s, s.ID == id
}
