package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proforma-mcs/internal/forecast"
	"proforma-mcs/internal/simulation"
	"proforma-mcs/internal/visuals"
)

// SimulationView is the agent-facing rendering of a result. Scenarios are only
// included on request; the extreme scenarios always are.
type SimulationView struct {
	SimulationID           string                         `json:"simulation_id"`
	Request                simulation.SimulationRequest   `json:"request"`
	SimulationDate         time.Time                      `json:"simulation_date"`
	ComputationTimeSeconds float64                        `json:"computation_time_seconds"`
	Seed                   int64                          `json:"seed"`
	Summary                simulation.SimulationSummary   `json:"summary"`
	CorrelationMatrix      *simulation.CorrelationMatrix  `json:"correlation_matrix,omitempty"`
	ExtremeScenarios       map[string]simulation.Scenario `json:"extreme_scenarios"`
	Scenarios              []simulation.Scenario          `json:"scenarios,omitempty"`
	Calibration            *simulation.CalibrationResult  `json:"calibration,omitempty"`
}

func newSimulationView(r *simulation.SimulationResult, includeScenarios bool) SimulationView {
	v := SimulationView{
		SimulationID:           r.SimulationID,
		Request:                r.Request,
		SimulationDate:         r.SimulationDate,
		ComputationTimeSeconds: r.ComputationTimeSeconds,
		Seed:                   r.Seed,
		Summary:                r.Summary,
		CorrelationMatrix:      r.CorrelationMatrix,
		ExtremeScenarios:       make(map[string]simulation.Scenario, len(r.Summary.ExtremeScenarios)),
	}
	for label, id := range r.Summary.ExtremeScenarios {
		if sc, ok := r.Scenario(id); ok {
			v.ExtremeScenarios[label] = sc
		}
	}
	if includeScenarios {
		v.Scenarios = r.Scenarios
	}
	return v
}

func (s *Server) handleGenerateScenarios(ctx context.Context, in GenerateScenariosInput) (any, error) {
	numScenarios := in.NumScenarios
	if numScenarios == 0 {
		numScenarios = s.cfg.DefaultScenarios
	}
	horizon := in.HorizonYears
	if horizon == 0 {
		horizon = s.cfg.DefaultHorizonYears
	}
	useCorrelations := true
	if in.UseCorrelations != nil {
		useCorrelations = *in.UseCorrelations
	}

	req, err := simulation.NewSimulationRequest(in.PropertyID, in.MSACode, numScenarios, horizon, useCorrelations, in.ConfidenceLevel)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.GenerateScenarios(ctx, req)
	if err != nil {
		if errors.Is(err, forecast.ErrDataNotFound) {
			return nil, fmt.Errorf("%w. Import forecasts for this MSA (proforma-mcs import) or choose another MSA", err)
		}
		return nil, err
	}

	view := newSimulationView(res, in.IncludeScenarios)
	var warnings, insights []string

	present := len(res.Summary.ParameterStatistics)
	if present < len(forecast.CanonicalParameters) {
		warnings = append(warnings, fmt.Sprintf("DEGRADED: only %d of %d pro forma parameters had usable forecasts; scores were renormalised over the available components.",
			present, len(forecast.CanonicalParameters)))
	}
	if res.CorrelationDegraded {
		warnings = append(warnings, "CORRELATION FALLBACK: the correlation priors could not be repaired, parameters were sampled independently.")
	}
	if res.CorrelationMatrix != nil && res.CorrelationMatrix.Repaired {
		insights = append(insights, "The correlation priors were adjusted to the nearest valid (positive semi-definite) matrix before sampling.")
	}
	if req.NumScenarios < 500 {
		insights = append(insights, "Fewer than 500 scenarios: tail percentiles (P5/P95) are noisy.")
	}

	if in.IncludeCalibration {
		if set, err := s.loadForCalibration(ctx, req); err == nil {
			cal := simulation.CheckCalibration(set, res.Scenarios)
			view.Calibration = &cal
			insights = append(insights, cal.ValidationMessage)
		} else {
			warnings = append(warnings, fmt.Sprintf("Calibration skipped: %v", err))
		}
	}

	return WrapResponse(view, warnings, insights, s.charts(res, in.BandParameter, view.Calibration)), nil
}

func (s *Server) loadForCalibration(ctx context.Context, req simulation.SimulationRequest) (*forecast.ForecastSet, error) {
	if s.loader == nil {
		return nil, errors.New("no forecast loader configured")
	}
	set, err := s.loader.LoadForecasts(ctx, req.MSACode, req.HorizonYears, s.cfg.MaxForecastAgeDays)
	var missing *forecast.MissingDataError
	if errors.As(err, &missing) {
		return missing.Partial, nil
	}
	return set, err
}

func (s *Server) charts(res *simulation.SimulationResult, bandParameter string, cal *simulation.CalibrationResult) map[string]string {
	if !s.cfg.EnableMermaidCharts {
		return nil
	}
	if bandParameter == "" {
		bandParameter = forecast.RentGrowth
	}
	charts := map[string]string{
		"scenario_distribution": visuals.GenerateRegimePie(res.Summary.ScenarioDistribution),
		"growth_score":          visuals.GenerateScoreHistogram(simulation.GrowthHistogram(res, 10), "Growth Score Distribution"),
		"risk_score":            visuals.GenerateScoreHistogram(simulation.RiskHistogram(res, 10), "Risk Score Distribution"),
		"parameter_band":        visuals.GenerateParameterBands(bandParameter, simulation.YearlyBands(res.Scenarios, bandParameter)),
	}
	if cal != nil {
		charts["calibration"] = visuals.GenerateCalibrationChart(*cal)
	}
	return charts
}

func (s *Server) handleGetSimulation(ctx context.Context, in GetSimulationInput) (any, error) {
	if s.results == nil {
		return nil, errors.New("simulation persistence is disabled")
	}
	if in.SimulationID == "" {
		return nil, errors.New("simulation_id is required")
	}
	res, found, err := s.results.GetSimulationResult(ctx, in.SimulationID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("simulation %s not found. Use 'list_simulations' to find stored runs", in.SimulationID)
	}

	var warnings []string
	if res.CorrelationDegraded {
		warnings = append(warnings, "CORRELATION FALLBACK: this run sampled parameters independently.")
	}
	return WrapResponse(newSimulationView(res, in.IncludeScenarios), warnings, nil, s.charts(res, "", nil)), nil
}

func (s *Server) handleListSimulations(ctx context.Context, in ListSimulationsInput) (any, error) {
	if s.results == nil {
		return nil, errors.New("simulation persistence is disabled")
	}
	records, err := s.results.ListSimulations(ctx, in.MSACode, in.Limit)
	if err != nil {
		return nil, err
	}
	var insights []string
	if len(records) == 0 {
		insights = append(insights, "No stored runs. Call 'generate_scenarios' first.")
	}
	return WrapResponse(map[string]any{"simulations": records, "count": len(records)}, nil, insights, nil), nil
}

func (s *Server) handleGetCorrelationMatrix(ctx context.Context, in GetCorrelationMatrixInput) (any, error) {
	requested := make(map[string]bool, len(in.Parameters))
	for _, n := range in.Parameters {
		if !forecast.IsCanonical(n) {
			return nil, fmt.Errorf("unknown parameter %q", n)
		}
		requested[n] = true
	}
	var names []string
	for _, n := range forecast.CanonicalParameters {
		if requested[n] {
			names = append(names, n)
		}
	}

	var warnings []string
	if len(names) == 0 && in.MSACode != "" && s.loader != nil {
		set, err := s.loader.LoadForecasts(ctx, in.MSACode, 1, s.cfg.MaxForecastAgeDays)
		var missing *forecast.MissingDataError
		switch {
		case err == nil:
			names = set.ParameterNames()
		case errors.As(err, &missing) && len(missing.Partial.Curves) > 0:
			names = missing.Partial.ParameterNames()
			warnings = append(warnings, fmt.Sprintf("Forecasts missing for: %v", missing.Missing))
		default:
			return nil, err
		}
	}
	if len(names) == 0 {
		names = forecast.CanonicalParameters
	}

	target := s.engine.EstimateCorrelations(names)
	if target.Fallback {
		warnings = append(warnings, "CORRELATION FALLBACK: priors could not be repaired, identity matrix returned.")
	}
	data := map[string]any{"target": target}

	if in.SimulationID != "" {
		if s.results == nil {
			return nil, errors.New("simulation persistence is disabled")
		}
		res, found, err := s.results.GetSimulationResult(ctx, in.SimulationID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("simulation %s not found", in.SimulationID)
		}
		data["realized"] = simulation.RealizedCorrelationMatrix(res.Scenarios, names)
	}

	return WrapResponse(data, warnings, nil, nil), nil
}
