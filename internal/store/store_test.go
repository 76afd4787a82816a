package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proforma-mcs/internal/forecast"
	"proforma-mcs/internal/simulation"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func runSimulation(t *testing.T, msa string, n int) *simulation.SimulationResult {
	t.Helper()
	set := forecast.GenerateSynthetic(forecast.SyntheticConfig{MSACode: msa, HorizonYears: 4, WidthScale: 1})
	engine := simulation.NewEngine(nil, simulation.WithLogger(zerolog.Nop()), simulation.WithSeed(9))
	req, err := simulation.NewSimulationRequest("prop-9", msa, n, 4, true, 0.95)
	require.NoError(t, err)
	res, err := engine.GenerateFromForecasts(context.Background(), set, req)
	require.NoError(t, err)
	return res
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	codes, err := NewForecastStore(db).MSACodes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestResultStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rs := NewResultStore(newTestDB(t))
	res := runSimulation(t, "35620", 25)

	require.NoError(t, rs.SaveSimulationResult(ctx, res))

	got, found, err := rs.GetSimulationResult(ctx, res.SimulationID)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, res.Request, got.Request)
	assert.Equal(t, res.Seed, got.Seed)
	assert.WithinDuration(t, res.SimulationDate, got.SimulationDate, time.Millisecond)
	require.Len(t, got.Scenarios, 25)
	for i := range res.Scenarios {
		want, have := res.Scenarios[i], got.Scenarios[i]
		assert.Equal(t, want.ID, have.ID)
		assert.Equal(t, want.ParameterValues, have.ParameterValues)
		assert.Equal(t, want.Metrics.GrowthScore, have.Metrics.GrowthScore)
		assert.Equal(t, want.Metrics.MarketScenario, have.Metrics.MarketScenario)
		assert.Equal(t, *want.PercentileRank, *have.PercentileRank)
	}
	require.NotNil(t, got.CorrelationMatrix)
	assert.Equal(t, res.CorrelationMatrix.Parameters, got.CorrelationMatrix.Parameters)
	assert.Equal(t, res.CorrelationMatrix.Values, got.CorrelationMatrix.Values)
	assert.Equal(t, res.Summary.ScenarioDistribution, got.Summary.ScenarioDistribution)
	assert.Equal(t, res.Summary.ExtremeScenarios, got.Summary.ExtremeScenarios)

	_, found, err = rs.GetSimulationResult(ctx, "no-such-run")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResultStore_SaveTwiceReplaces(t *testing.T) {
	ctx := context.Background()
	rs := NewResultStore(newTestDB(t))
	res := runSimulation(t, "35620", 5)

	require.NoError(t, rs.SaveSimulationResult(ctx, res))
	require.NoError(t, rs.SaveSimulationResult(ctx, res))

	got, found, err := rs.GetSimulationResult(ctx, res.SimulationID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, got.Scenarios, 5)

	deleted, err := rs.DeleteSimulation(ctx, res.SimulationID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, found, _ = rs.GetSimulationResult(ctx, res.SimulationID)
	assert.False(t, found)
}

func TestResultStore_List(t *testing.T) {
	ctx := context.Background()
	rs := NewResultStore(newTestDB(t))

	older := runSimulation(t, "35620", 5)
	older.SimulationDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := runSimulation(t, "35620", 5)
	newer.SimulationDate = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	other := runSimulation(t, "31080", 5)

	for _, r := range []*simulation.SimulationResult{older, newer, other} {
		require.NoError(t, rs.SaveSimulationResult(ctx, r))
	}

	records, err := rs.ListSimulations(ctx, "35620", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.SimulationID, records[0].SimulationID)
	assert.Equal(t, older.SimulationID, records[1].SimulationID)
	assert.Equal(t, newer.Summary.GrowthScore.Mean, records[0].GrowthScoreMean)

	all, err := rs.ListSimulations(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := rs.ListSimulations(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestForecastStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	fs := NewForecastStore(newTestDB(t))
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fs.now = func() time.Time { return now }

	set := forecast.GenerateSynthetic(forecast.SyntheticConfig{MSACode: "35620", HorizonYears: 6, WidthScale: 1, Now: now.AddDate(0, 0, -3)})
	require.NoError(t, fs.SaveForecastSet(ctx, set))

	loaded, err := fs.LoadForecasts(ctx, "35620", 5, 30)
	require.NoError(t, err)
	assert.True(t, loaded.Complete())
	curve, ok := loaded.Curve(forecast.Treasury10Y)
	require.True(t, ok)
	assert.Equal(t, 5, curve.Len())
	assert.Equal(t, forecast.National, curve.Parameter.ParameterType)
	original, _ := set.Curve(forecast.Treasury10Y)
	assert.Equal(t, original.Points[:5], curve.Points)

	codes, err := fs.MSACodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"35620"}, codes)
}

func TestForecastStore_StaleAndMissing(t *testing.T) {
	ctx := context.Background()
	fs := NewForecastStore(newTestDB(t))
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fs.now = func() time.Time { return now }

	stale := forecast.GenerateSynthetic(forecast.SyntheticConfig{MSACode: "35620", HorizonYears: 5, WidthScale: 1, Now: now.AddDate(0, 0, -45)})
	require.NoError(t, fs.SaveForecastSet(ctx, stale))

	_, err := fs.LoadForecasts(ctx, "35620", 5, 30)
	assert.ErrorIs(t, err, forecast.ErrDataNotFound)

	loaded, err := fs.LoadForecasts(ctx, "35620", 5, 0)
	require.NoError(t, err, "a zero max age disables staleness")
	assert.True(t, loaded.Complete())

	fresh := forecast.GenerateSynthetic(forecast.SyntheticConfig{MSACode: "35620", HorizonYears: 5, WidthScale: 1, Now: now}).
		Without(forecast.VacancyRate)
	require.NoError(t, fs.SaveForecastSet(ctx, fresh))

	_, err = fs.LoadForecasts(ctx, "35620", 5, 30)
	var missing *forecast.MissingDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{forecast.VacancyRate}, missing.Missing)
	assert.Len(t, missing.Partial.Curves, 10)

	_, err = fs.LoadForecasts(ctx, "35620", 8, 30)
	require.ErrorAs(t, err, &missing)
	assert.Len(t, missing.Missing, 11, "curves shorter than the horizon do not count")
}

func TestForecastStore_GeneratedAtIsOldestCurve(t *testing.T) {
	ctx := context.Background()
	fs := NewForecastStore(newTestDB(t))
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fs.now = func() time.Time { return now }

	older := now.AddDate(0, 0, -20)
	require.NoError(t, fs.SaveForecastSet(ctx,
		forecast.GenerateSynthetic(forecast.SyntheticConfig{MSACode: "35620", HorizonYears: 5, WidthScale: 1, Now: older})))
	refreshed := forecast.GenerateSynthetic(forecast.SyntheticConfig{MSACode: "35620", HorizonYears: 5, WidthScale: 1, Now: now.AddDate(0, 0, -1)})
	require.NoError(t, fs.SaveForecastSet(ctx, refreshed.Without(forecast.CapRate)))

	loaded, err := fs.LoadForecasts(ctx, "35620", 5, 30)
	require.NoError(t, err)
	assert.True(t, older.Equal(loaded.GeneratedAt), "got %v", loaded.GeneratedAt)
}

type flakyRepository struct {
	failures int
	calls    int
}

func (f *flakyRepository) SaveSimulationResult(context.Context, *simulation.SimulationResult) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("database is locked")
	}
	return nil
}

func TestRetryingRepository(t *testing.T) {
	res := &simulation.SimulationResult{SimulationID: "sim"}

	flaky := &flakyRepository{failures: 2}
	require.NoError(t, NewRetryingRepository(flaky, 3, time.Millisecond).SaveSimulationResult(context.Background(), res))
	assert.Equal(t, 3, flaky.calls)

	broken := &flakyRepository{failures: 100}
	err := NewRetryingRepository(broken, 2, time.Millisecond).SaveSimulationResult(context.Background(), res)
	assert.Error(t, err)
	assert.Equal(t, 3, broken.calls, "one attempt plus two retries")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cancelled := &flakyRepository{failures: 100}
	err = NewRetryingRepository(cancelled, 5, time.Millisecond).SaveSimulationResult(ctx, res)
	assert.Error(t, err)
	assert.LessOrEqual(t, cancelled.calls, 1)
}
