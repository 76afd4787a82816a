package commands

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"proforma-mcs/internal/cache"
	"proforma-mcs/internal/config"
	"proforma-mcs/internal/forecast"
	"proforma-mcs/internal/simulation"
	"proforma-mcs/internal/store"
)

// application is the composition root shared by every subcommand.
type application struct {
	db        *store.DB
	forecasts *store.ForecastStore
	results   *store.ResultStore
	cache     *cache.ForecastCache
	redis     redis.UniversalClient
	loader    forecast.Loader
	engine    *simulation.Engine
}

func wire(ctx context.Context, cfg *config.AppConfig) (*application, error) {
	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	app := &application{
		db:        db,
		forecasts: store.NewForecastStore(db),
		results:   store.NewResultStore(db),
	}

	var loader forecast.Loader = app.forecasts
	if cfg.ForecastDir != "" {
		if _, err := os.Stat(cfg.ForecastDir); err == nil {
			loader = forecast.ChainLoader{app.forecasts, forecast.NewFileLoader(cfg.ForecastDir)}
		}
	}

	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, forecast cache disabled")
		} else {
			app.redis = client
			app.cache = cache.NewForecastCache(loader, client, cfg.ForecastTTL)
			loader = app.cache
		}
	}
	app.loader = loader

	opts := []simulation.Option{
		simulation.WithRepository(store.NewRetryingRepository(app.results, cfg.SaveRetries, 0)),
		simulation.WithWorkers(cfg.Workers),
		simulation.WithMaxForecastAge(cfg.MaxForecastAgeDays),
	}
	if cfg.Seed != 0 {
		opts = append(opts, simulation.WithSeed(cfg.Seed))
	}
	app.engine = simulation.NewEngine(loader, opts...)
	return app, nil
}

func (a *application) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}
