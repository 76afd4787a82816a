// Package cache fronts a forecast loader with Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"proforma-mcs/internal/forecast"
)

// DefaultTTL bounds how long a cached forecast set is served.
const DefaultTTL = 6 * time.Hour

// ForecastCache implements forecast.Loader by caching complete forecast sets in
// Redis. Redis failures fall through to the wrapped loader.
type ForecastCache struct {
	next   forecast.Loader
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

func NewForecastCache(next forecast.Loader, client redis.UniversalClient, ttl time.Duration) *ForecastCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ForecastCache{
		next:   next,
		client: client,
		ttl:    ttl,
		now:    time.Now,
		log:    log.With().Str("component", "forecast_cache").Logger(),
	}
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Key returns the cache key of a forecast set.
func Key(msaCode string, horizonYears int) string {
	return fmt.Sprintf("forecast:%s:%d", msaCode, horizonYears)
}

func (c *ForecastCache) LoadForecasts(ctx context.Context, msaCode string, horizonYears int, maxAgeDays int) (*forecast.ForecastSet, error) {
	key := Key(msaCode, horizonYears)

	if set, ok := c.get(ctx, key, maxAgeDays); ok {
		c.log.Debug().Str("key", key).Msg("Forecast cache hit")
		return set, nil
	}

	set, err := c.next.LoadForecasts(ctx, msaCode, horizonYears, maxAgeDays)
	if err != nil {
		return nil, err
	}
	if set.Complete() {
		c.put(ctx, key, set)
	}
	return set, nil
}

func (c *ForecastCache) get(ctx context.Context, key string, maxAgeDays int) (*forecast.ForecastSet, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("Forecast cache read failed, bypassing")
		}
		return nil, false
	}

	var doc forecast.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Discarding corrupt cache entry")
		c.client.Del(ctx, key)
		return nil, false
	}
	if maxAgeDays > 0 && c.now().Sub(doc.GeneratedAt) > time.Duration(maxAgeDays)*24*time.Hour {
		return nil, false
	}
	set, err := forecast.FromDocument(doc)
	if err != nil || !set.Complete() {
		return nil, false
	}
	return set, true
}

func (c *ForecastCache) put(ctx context.Context, key string, set *forecast.ForecastSet) {
	data, err := json.Marshal(set.ToDocument())
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to encode forecast set for cache")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Forecast cache write failed")
	}
}

// Invalidate drops every cached horizon of an MSA.
func (c *ForecastCache) Invalidate(ctx context.Context, msaCode string) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("forecast:%s:*", msaCode), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
