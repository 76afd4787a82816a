package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"proforma-mcs/internal/simulation"
)

// RetryingRepository retries transient save failures (e.g. SQLITE_BUSY) with
// exponential backoff before giving up.
type RetryingRepository struct {
	next            simulation.Repository
	maxRetries      uint64
	initialInterval time.Duration
	log             zerolog.Logger
}

func NewRetryingRepository(next simulation.Repository, maxRetries int, initialInterval time.Duration) *RetryingRepository {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initialInterval <= 0 {
		initialInterval = 100 * time.Millisecond
	}
	return &RetryingRepository{
		next:            next,
		maxRetries:      uint64(maxRetries),
		initialInterval: initialInterval,
		log:             log.With().Str("component", "store_retry").Logger(),
	}
}

func (r *RetryingRepository) SaveSimulationResult(ctx context.Context, result *simulation.SimulationResult) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialInterval
	policy.MaxElapsedTime = 30 * time.Second

	attempt := 0
	operation := func() error {
		attempt++
		err := r.next.SaveSimulationResult(ctx, result)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).
			Str("simulation_id", result.SimulationID).Msg("Saving simulation failed, retrying")
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx), notify)
}
