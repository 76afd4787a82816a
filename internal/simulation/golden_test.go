package simulation_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"proforma-mcs/internal/forecast"
	"proforma-mcs/internal/simulation"
)

type pipelineSnapshot struct {
	ParameterStatistics  map[string]simulation.ParameterStatistics
	ScenarioDistribution map[simulation.MarketScenario]int
	GrowthScore          simulation.ScoreStatistics
	RiskScore            simulation.ScoreStatistics
	Ranks                []float64
}

func runPipeline(t *testing.T, regime string, workers int) []byte {
	t.Helper()
	set := forecast.GenerateSynthetic(forecast.SyntheticConfig{
		MSACode:      "31080",
		HorizonYears: 7,
		Regime:       regime,
		WidthScale:   1,
		Now:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	engine := simulation.NewEngine(nil,
		simulation.WithLogger(zerolog.Nop()),
		simulation.WithSeed(20260115),
		simulation.WithWorkers(workers),
	)
	req, err := simulation.NewSimulationRequest("golden", "31080", 400, 7, true, 0.9)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	res, err := engine.GenerateFromForecasts(context.Background(), set, req)
	if err != nil {
		t.Fatalf("simulation failed: %v", err)
	}

	snap := pipelineSnapshot{
		ParameterStatistics:  res.Summary.ParameterStatistics,
		ScenarioDistribution: res.Summary.ScenarioDistribution,
		GrowthScore:          res.Summary.GrowthScore,
		RiskScore:            res.Summary.RiskScore,
	}
	for _, s := range res.Scenarios {
		snap.Ranks = append(snap.Ranks, *s.PercentileRank)
	}
	out, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return out
}

func TestSimulationPipeline_Reproducible(t *testing.T) {
	for _, regime := range []string{"mild", "boom", "stress"} {
		t.Run(regime, func(t *testing.T) {
			first := runPipeline(t, regime, 1)
			second := runPipeline(t, regime, 6)
			if string(first) != string(second) {
				t.Fatalf("summary differs between runs with the same seed")
			}
		})
	}
}

func TestSimulationPipeline_RegimesShiftDistribution(t *testing.T) {
	decode := func(b []byte) pipelineSnapshot {
		var s pipelineSnapshot
		if err := json.Unmarshal(b, &s); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return s
	}
	boom := decode(runPipeline(t, "boom", 4))
	stress := decode(runPipeline(t, "stress", 4))

	if boom.GrowthScore.Mean <= stress.GrowthScore.Mean {
		t.Errorf("boom growth %.3f should exceed stress growth %.3f", boom.GrowthScore.Mean, stress.GrowthScore.Mean)
	}
	if boom.ParameterStatistics[forecast.CapRate].Mean() >= stress.ParameterStatistics[forecast.CapRate].Mean() {
		t.Errorf("stress cap rates should be higher than boom cap rates")
	}
	if _, ok := stress.ParameterStatistics[forecast.RentGrowth]["p5"]; !ok {
		t.Errorf("stress statistics lack p5")
	}
	if _, ok := stress.ParameterStatistics[forecast.RentGrowth]["p95"]; !ok {
		t.Errorf("confidence level 0.9 should add p95")
	}
}

func TestCheckCalibration(t *testing.T) {
	set := forecast.GenerateSynthetic(forecast.SyntheticConfig{MSACode: "31080", HorizonYears: 3, WidthScale: 1})
	engine := simulation.NewEngine(nil, simulation.WithLogger(zerolog.Nop()), simulation.WithSeed(5))
	req, _ := simulation.NewSimulationRequest("", "31080", 4000, 3, true, 0.95)
	res, err := engine.GenerateFromForecasts(context.Background(), set, req)
	if err != nil {
		t.Fatalf("simulation failed: %v", err)
	}

	cal := simulation.CheckCalibration(set, res.Scenarios)
	if len(cal.Checkpoints) != 11*3 {
		t.Fatalf("expected 33 checkpoints, got %d", len(cal.Checkpoints))
	}
	for _, cp := range cal.Checkpoints {
		if cp.Coverage < 0.92 || cp.Coverage > 0.98 {
			t.Errorf("%s year %d coverage %.3f outside [0.92, 0.98]", cp.Parameter, cp.Year, cp.Coverage)
		}
	}
	if cal.AccuracyScore != 1 {
		t.Errorf("accuracy score = %v, want 1", cal.AccuracyScore)
	}

	flat := forecast.GenerateSynthetic(forecast.SyntheticConfig{MSACode: "31080", HorizonYears: 2, WidthScale: 0})
	cal = simulation.CheckCalibration(flat, res.Scenarios)
	if cal.AccuracyScore != 0 {
		t.Errorf("degenerate intervals must not score")
	}
	for _, cp := range cal.Checkpoints {
		if !cp.Degenerate {
			t.Errorf("%s year %d should be degenerate", cp.Parameter, cp.Year)
		}
	}
}
