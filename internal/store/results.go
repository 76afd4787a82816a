package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"proforma-mcs/internal/simulation"
)

// scenarioPayload is the msgpack body of a stored scenario.
type scenarioPayload struct {
	ParameterValues    map[string][]float64 `msgpack:"v"`
	VolatilityMeasures map[string]float64   `msgpack:"vol"`
}

// SimulationRecord is the listing view of a stored run.
type SimulationRecord struct {
	SimulationID        string                            `json:"simulation_id"`
	PropertyID          string                            `json:"property_id"`
	MSACode             string                            `json:"msa_code"`
	NumScenarios        int                               `json:"num_scenarios"`
	HorizonYears        int                               `json:"horizon_years"`
	UseCorrelations     bool                              `json:"use_correlations"`
	CorrelationDegraded bool                              `json:"correlation_degraded"`
	SimulationDate      time.Time                         `json:"simulation_date"`
	GrowthScoreMean     float64                           `json:"growth_score_mean"`
	RiskScoreMean       float64                           `json:"risk_score_mean"`
	Distribution        map[simulation.MarketScenario]int `json:"scenario_distribution"`
}

// ResultStore implements simulation.Repository.
type ResultStore struct {
	db *DB
}

func NewResultStore(db *DB) *ResultStore {
	return &ResultStore{db: db}
}

// SaveSimulationResult writes the run and all its scenarios in one transaction.
// Saving an id twice replaces the earlier run.
func (s *ResultStore) SaveSimulationResult(ctx context.Context, r *simulation.SimulationResult) error {
	summary, err := json.Marshal(r.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	var matrix []byte
	if r.CorrelationMatrix != nil {
		if matrix, err = msgpack.Marshal(r.CorrelationMatrix); err != nil {
			return fmt.Errorf("failed to encode correlation matrix: %w", err)
		}
	}

	err = s.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM simulation_results WHERE simulation_id = ?`, r.SimulationID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO simulation_results (
				simulation_id, property_id, msa_code, num_scenarios, horizon_years,
				use_correlations, confidence_level, seed, correlation_degraded,
				simulation_date, computation_time_seconds, summary, correlation_matrix
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.SimulationID, r.Request.PropertyID, r.Request.MSACode, r.Request.NumScenarios, r.Request.HorizonYears,
			r.Request.UseCorrelations, r.Request.ConfidenceLevel, r.Seed, r.CorrelationDegraded,
			r.SimulationDate.UnixMilli(), r.ComputationTimeSeconds, string(summary), matrix,
		)
		if err != nil {
			return fmt.Errorf("failed to insert simulation: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO simulation_scenarios (
				simulation_id, scenario_index, growth_score, risk_score,
				market_scenario, percentile_rank, payload
			) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, sc := range r.Scenarios {
			payload, err := msgpack.Marshal(scenarioPayload{
				ParameterValues:    sc.ParameterValues,
				VolatilityMeasures: sc.Metrics.VolatilityMeasures,
			})
			if err != nil {
				return fmt.Errorf("failed to encode scenario %d: %w", sc.ID.Index, err)
			}
			var rank sql.NullFloat64
			if sc.PercentileRank != nil {
				rank = sql.NullFloat64{Float64: *sc.PercentileRank, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, r.SimulationID, sc.ID.Index, sc.Metrics.GrowthScore, sc.Metrics.RiskScore,
				string(sc.Metrics.MarketScenario), rank, payload); err != nil {
				return fmt.Errorf("failed to insert scenario %d: %w", sc.ID.Index, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save simulation %s: %w", r.SimulationID, err)
	}
	return nil
}

// GetSimulationResult loads a stored run. found is false when no run has the id.
func (s *ResultStore) GetSimulationResult(ctx context.Context, simulationID string) (*simulation.SimulationResult, bool, error) {
	r := &simulation.SimulationResult{SimulationID: simulationID}
	var (
		summary string
		matrix  []byte
		dateMs  int64
	)
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT property_id, msa_code, num_scenarios, horizon_years, use_correlations,
		       confidence_level, seed, correlation_degraded, simulation_date,
		       computation_time_seconds, summary, correlation_matrix
		FROM simulation_results WHERE simulation_id = ?`, simulationID).Scan(
		&r.Request.PropertyID, &r.Request.MSACode, &r.Request.NumScenarios, &r.Request.HorizonYears,
		&r.Request.UseCorrelations, &r.Request.ConfidenceLevel, &r.Seed, &r.CorrelationDegraded,
		&dateMs, &r.ComputationTimeSeconds, &summary, &matrix,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load simulation %s: %w", simulationID, err)
	}
	r.SimulationDate = time.UnixMilli(dateMs).UTC()

	if err := json.Unmarshal([]byte(summary), &r.Summary); err != nil {
		return nil, false, fmt.Errorf("corrupt summary for %s: %w", simulationID, err)
	}
	if len(matrix) > 0 {
		r.CorrelationMatrix = &simulation.CorrelationMatrix{}
		if err := msgpack.Unmarshal(matrix, r.CorrelationMatrix); err != nil {
			return nil, false, fmt.Errorf("corrupt correlation matrix for %s: %w", simulationID, err)
		}
	}

	scenarios, err := s.loadScenarios(ctx, simulationID)
	if err != nil {
		return nil, false, err
	}
	r.Scenarios = scenarios
	return r, true, nil
}

func (s *ResultStore) loadScenarios(ctx context.Context, simulationID string) ([]simulation.Scenario, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT scenario_index, growth_score, risk_score, market_scenario, percentile_rank, payload
		FROM simulation_scenarios WHERE simulation_id = ? ORDER BY scenario_index`, simulationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	var out []simulation.Scenario
	for rows.Next() {
		var (
			sc      simulation.Scenario
			market  string
			rank    sql.NullFloat64
			payload []byte
			body    scenarioPayload
		)
		if err := rows.Scan(&sc.ID.Index, &sc.Metrics.GrowthScore, &sc.Metrics.RiskScore, &market, &rank, &payload); err != nil {
			return nil, err
		}
		if err := msgpack.Unmarshal(payload, &body); err != nil {
			return nil, fmt.Errorf("corrupt scenario %d: %w", sc.ID.Index, err)
		}
		sc.ID.SimulationID = simulationID
		sc.ParameterValues = body.ParameterValues
		sc.Metrics.VolatilityMeasures = body.VolatilityMeasures
		sc.Metrics.MarketScenario = simulation.MarketScenario(market)
		if rank.Valid {
			sc = sc.WithPercentileRank(rank.Float64)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ListSimulations returns the most recent runs, newest first. An empty msaCode
// lists every MSA.
func (s *ResultStore) ListSimulations(ctx context.Context, msaCode string, limit int) ([]SimulationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT simulation_id, property_id, msa_code, num_scenarios, horizon_years,
		       use_correlations, correlation_degraded, simulation_date, summary
		FROM simulation_results
		WHERE (? = '' OR msa_code = ?)
		ORDER BY simulation_date DESC, simulation_id
		LIMIT ?`, msaCode, msaCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}
	defer rows.Close()

	records := make([]SimulationRecord, 0)
	for rows.Next() {
		var (
			rec     SimulationRecord
			dateMs  int64
			summary string
			sum     simulation.SimulationSummary
		)
		if err := rows.Scan(&rec.SimulationID, &rec.PropertyID, &rec.MSACode, &rec.NumScenarios, &rec.HorizonYears,
			&rec.UseCorrelations, &rec.CorrelationDegraded, &dateMs, &summary); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(summary), &sum); err != nil {
			return nil, fmt.Errorf("corrupt summary for %s: %w", rec.SimulationID, err)
		}
		rec.SimulationDate = time.UnixMilli(dateMs).UTC()
		rec.GrowthScoreMean = sum.GrowthScore.Mean
		rec.RiskScoreMean = sum.RiskScore.Mean
		rec.Distribution = sum.ScenarioDistribution
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteSimulation removes a run and its scenarios.
func (s *ResultStore) DeleteSimulation(ctx context.Context, simulationID string) (bool, error) {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM simulation_results WHERE simulation_id = ?`, simulationID)
	if err != nil {
		return false, fmt.Errorf("failed to delete simulation %s: %w", simulationID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
