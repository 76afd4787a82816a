package simulation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MarketScenario classifies a scenario by its growth and risk scores.
type MarketScenario string

const (
	BullMarket    MarketScenario = "bull_market"
	BearMarket    MarketScenario = "bear_market"
	NeutralMarket MarketScenario = "neutral_market"
	GrowthMarket  MarketScenario = "growth_market"
	StressMarket  MarketScenario = "stress_market"
)

// MarketScenarios lists every label in reporting order.
var MarketScenarios = []MarketScenario{BullMarket, BearMarket, NeutralMarket, GrowthMarket, StressMarket}

// ScenarioID identifies a scenario within a simulation run.
type ScenarioID struct {
	SimulationID string
	Index        int
}

func (id ScenarioID) String() string {
	return fmt.Sprintf("%s-%05d", id.SimulationID, id.Index)
}

func (id ScenarioID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ScenarioID) UnmarshalText(b []byte) error {
	s := string(b)
	i := strings.LastIndexByte(s, '-')
	if i <= 0 {
		return fmt.Errorf("invalid scenario id %q", s)
	}
	idx, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return fmt.Errorf("invalid scenario index in %q: %w", s, err)
	}
	id.SimulationID = s[:i]
	id.Index = idx
	return nil
}

// ScenarioMetrics holds the derived scores of a scenario.
type ScenarioMetrics struct {
	GrowthScore        float64            `json:"growth_score"`
	RiskScore          float64            `json:"risk_score"`
	MarketScenario     MarketScenario     `json:"market_scenario"`
	VolatilityMeasures map[string]float64 `json:"volatility_measures"`
}

// Scenario is one Monte-Carlo draw: a trajectory per parameter plus its metrics.
// Scenarios are values; WithPercentileRank returns a modified copy.
type Scenario struct {
	ID              ScenarioID           `json:"scenario_id"`
	ParameterValues map[string][]float64 `json:"parameter_values"`
	Metrics         ScenarioMetrics      `json:"metrics"`
	PercentileRank  *float64             `json:"percentile_rank,omitempty"`
}

var errEmptyScenario = errors.New("scenario has no parameter values")

// NewScenario validates trajectories and attaches metrics.
func NewScenario(id ScenarioID, values map[string][]float64, metrics ScenarioMetrics) (Scenario, error) {
	if len(values) == 0 {
		return Scenario{}, errEmptyScenario
	}
	length := -1
	for name, v := range values {
		if length == -1 {
			length = len(v)
		}
		if len(v) != length {
			return Scenario{}, fmt.Errorf("trajectory %q has %d values, expected %d", name, len(v), length)
		}
	}
	if length == 0 {
		return Scenario{}, errEmptyScenario
	}
	return Scenario{ID: id, ParameterValues: values, Metrics: metrics}, nil
}

// WithPercentileRank returns a copy of the scenario carrying rank.
func (s Scenario) WithPercentileRank(rank float64) Scenario {
	s.PercentileRank = &rank
	return s
}

// Years returns the trajectory length.
func (s Scenario) Years() int {
	for _, v := range s.ParameterValues {
		return len(v)
	}
	return 0
}

// ParameterStatistics maps statistic names (mean, std, min, max, p5, ...) to values.
type ParameterStatistics map[string]float64

func (p ParameterStatistics) Mean() float64 { return p["mean"] }
func (p ParameterStatistics) Std() float64  { return p["std"] }

// Percentile returns the stored cut-point, if it was computed.
func (p ParameterStatistics) Percentile(cut float64) (float64, bool) {
	v, ok := p[PercentileKey(cut)]
	return v, ok
}

// PercentileKey formats a cut-point as p5, p25, p97.5, ...
func PercentileKey(cut float64) string {
	return "p" + strconv.FormatFloat(cut, 'f', -1, 64)
}

// ScoreStatistics summarises a composite score across scenarios.
type ScoreStatistics struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// SimulationSummary is derived from all scenarios of a run.
type SimulationSummary struct {
	ParameterStatistics  map[string]ParameterStatistics `json:"parameter_statistics"`
	ScenarioDistribution map[MarketScenario]int         `json:"scenario_distribution"`
	ExtremeScenarios     map[string]ScenarioID          `json:"extreme_scenarios"`
	GrowthScore          ScoreStatistics                `json:"growth_score"`
	RiskScore            ScoreStatistics                `json:"risk_score"`
}
