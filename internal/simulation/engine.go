package simulation

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"proforma-mcs/internal/forecast"
)

// DefaultMaxForecastAgeDays is the staleness window applied when loading forecasts.
const DefaultMaxForecastAgeDays = 30

// Repository stores finished results.
type Repository interface {
	SaveSimulationResult(ctx context.Context, result *SimulationResult) error
}

// Engine performs the Monte-Carlo scenario simulation.
type Engine struct {
	loader     forecast.Loader
	repo       Repository
	table      CorrelationTable
	cuts       []float64
	log        zerolog.Logger
	seed       int64
	seeded     bool
	workers    int
	maxAgeDays int
	now        func() time.Time

	estimator  *CorrelationEstimator
	aggregator *Aggregator
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithRepository(r Repository) Option {
	return func(e *Engine) { e.repo = r }
}

func WithCorrelationTable(t CorrelationTable) Option {
	return func(e *Engine) { e.table = t }
}

// WithSeed fixes the random seed; runs with the same seed and inputs are bit-identical.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
		e.seeded = true
	}
}

// WithWorkers bounds the number of scenarios computed concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithPercentiles(cuts []float64) Option {
	return func(e *Engine) { e.cuts = cuts }
}

func WithMaxForecastAge(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.maxAgeDays = days
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires an engine around a forecast loader.
func NewEngine(loader forecast.Loader, opts ...Option) *Engine {
	e := &Engine{
		loader:     loader,
		table:      DefaultCorrelationTable(),
		log:        log.Logger,
		workers:    runtime.GOMAXPROCS(0),
		maxAgeDays: DefaultMaxForecastAgeDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("component", "simulation_engine").Logger()
	e.estimator = NewCorrelationEstimator(e.table, e.log)
	e.aggregator = NewAggregator(e.cuts)
	return e
}

// EstimateCorrelations exposes the estimator for the given parameters.
func (e *Engine) EstimateCorrelations(names []string) *CorrelationMatrix {
	return e.estimator.Estimate(names)
}

// GenerateScenarios loads forecasts for the request's MSA and runs the simulation.
// A partially resolved forecast set is simulated in degraded mode; an empty one
// yields forecast.ErrDataNotFound.
func (e *Engine) GenerateScenarios(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if e.loader == nil {
		return nil, &SimulationError{Op: "load forecasts", Err: errors.New("no forecast loader configured")}
	}

	set, err := e.loader.LoadForecasts(ctx, req.MSACode, req.HorizonYears, e.maxAgeDays)
	if err != nil {
		var missing *forecast.MissingDataError
		switch {
		case errors.As(err, &missing) && missing.Partial != nil && len(missing.Partial.Curves) > 0:
			e.log.Warn().
				Str("msa", req.MSACode).
				Strs("missing", missing.Missing).
				Msg("Forecast set incomplete, simulating with available parameters")
			set = missing.Partial
		case errors.Is(err, forecast.ErrDataNotFound):
			return nil, err
		default:
			return nil, &SimulationError{Op: "load forecasts", Err: err}
		}
	}

	return e.GenerateFromForecasts(ctx, set, req)
}

// GenerateFromForecasts runs the simulation on an already loaded forecast set.
func (e *Engine) GenerateFromForecasts(ctx context.Context, set *forecast.ForecastSet, req SimulationRequest) (*SimulationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := e.now()
	usable, err := forecast.Resolve(set, req.MSACode, req.HorizonYears)
	if err != nil {
		var missing *forecast.MissingDataError
		if !errors.As(err, &missing) || len(missing.Partial.Curves) == 0 {
			return nil, err
		}
		usable = missing.Partial
	}

	simulationID := NewSimulationID()
	seed := e.seed
	if !e.seeded {
		seed = start.UnixNano()
	}

	names := usable.ParameterNames()
	var matrix *CorrelationMatrix
	if req.UseCorrelations {
		matrix = e.estimator.Estimate(names)
	}

	sampler, err := NewSampler(usable, matrix, req.HorizonYears, req.UseCorrelations)
	if err != nil {
		return nil, &SimulationError{Op: "prepare sampler", Err: err}
	}

	scenarios, err := e.runScenarios(ctx, simulationID, seed, sampler, req.NumScenarios)
	if err != nil {
		return nil, &SimulationError{Op: "sampling", Err: err}
	}

	lower, upper := req.confidenceCuts()
	ranked, summary := e.aggregator.Aggregate(scenarios, lower, upper)

	result, err := NewSimulationResult(ResultParts{
		SimulationID:    simulationID,
		Request:         req,
		Scenarios:       ranked,
		Summary:         summary,
		Correlation:     matrix,
		SimulationDate:  start.UTC(),
		ComputationTime: e.now().Sub(start),
		Seed:            seed,
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("simulation_id", result.SimulationID).
		Str("msa", req.MSACode).
		Int("scenarios", req.NumScenarios).
		Int("horizon_years", req.HorizonYears).
		Int("parameters", len(names)).
		Bool("correlated", sampler.Correlated()).
		Float64("seconds", result.ComputationTimeSeconds).
		Msg("Monte-Carlo simulation completed")

	e.persist(ctx, result)
	return result, nil
}

// runScenarios samples and scores scenarios concurrently. Each task writes only its
// own slot, and aggregation waits for all of them.
func (e *Engine) runScenarios(ctx context.Context, simulationID string, seed int64, sampler *Sampler, n int) ([]Scenario, error) {
	scenarios := make([]Scenario, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			values := sampler.Sample(scenarioRand(seed, i))
			sc, err := NewScenario(ScenarioID{SimulationID: simulationID, Index: i}, values, CalculateMetrics(values))
			if err != nil {
				return fmt.Errorf("scenario %d: %w", i, err)
			}
			scenarios[i] = sc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// persist hands the result to the repository. Failures are logged and never
// invalidate the computed result.
func (e *Engine) persist(ctx context.Context, result *SimulationResult) {
	if e.repo == nil {
		return
	}
	if err := e.repo.SaveSimulationResult(ctx, result); err != nil {
		e.log.Error().Err(err).Str("simulation_id", result.SimulationID).Msg("Failed to save simulation result")
		return
	}
	e.log.Debug().Str("simulation_id", result.SimulationID).Msg("Simulation result saved")
}
