// Package cache keeps the latest scan result for a bounded time.
package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/scanner"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/util"
)

// Store holds at most one result.
type Store interface {
	Get(ctx context.Context) (scanner.Result, bool, error)
	Put(ctx context.Context, res scanner.Result) error
}

// Runner produces a fresh result.
type Runner interface {
	Run(ctx context.Context, onProgress scanner.ProgressFunc) (scanner.Result, error)
}

// Open builds the store selected by cfg; it returns nil for the "none" backend.
func Open(ctx context.Context, cfg config.Cache) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		return NewMemory(cfg.TTL()), nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return NewRedis(client, cfg.RedisKey, cfg.TTL()), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Cached serves a fresh stored result instead of rescanning.
type Cached struct {
	store  Store
	runner Runner
	log    zerolog.Logger
}

// NewCached wraps runner; a nil store disables caching.
func NewCached(store Store, runner Runner, log zerolog.Logger) *Cached {
	return &Cached{store: store, runner: runner, log: util.Component(log, "cache")}
}

// Run returns the stored result when fresh, otherwise scans and stores the outcome.
// Store failures are logged and never fail the scan; failed scans are not stored.
func (c *Cached) Run(ctx context.Context, onProgress scanner.ProgressFunc) (scanner.Result, error) {
	if c.store == nil {
		return c.runner.Run(ctx, onProgress)
	}
	res, ok, err := c.store.Get(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache read failed")
	} else if ok {
		c.log.Debug().Str("run_id", res.RunID).Msg("serving cached scan")
		return res, nil
	}

	return c.Refresh(ctx, onProgress)
}

// Refresh always scans and stores a successful result.
func (c *Cached) Refresh(ctx context.Context, onProgress scanner.ProgressFunc) (scanner.Result, error) {
	res, err := c.runner.Run(ctx, onProgress)
	if err != nil || c.store == nil {
		return res, err
	}
	if err := c.store.Put(ctx, res); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed")
	}
	return res, nil
}
