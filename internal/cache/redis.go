package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/scanner"
)

// Redis stores the result as JSON under a single key with an expiry.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedis uses client as-is; the caller owns its lifecycle.
func NewRedis(client redis.UniversalClient, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = "sniper:snapshot"
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

// Close closes the client. Use it for stores built by Open, which own their client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context) (scanner.Result, bool, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return scanner.Result{}, false, nil
	}
	if err != nil {
		return scanner.Result{}, false, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	var res scanner.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return scanner.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return res, true, nil
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, res scanner.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
