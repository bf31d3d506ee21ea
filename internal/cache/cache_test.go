package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/scanner"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/signal"
)

type countingRunner struct {
	calls int
	err   error
}

func (r *countingRunner) Run(context.Context, scanner.ProgressFunc) (scanner.Result, error) {
	r.calls++
	if r.err != nil {
		return scanner.Result{}, r.err
	}
	return sampleResult(), nil
}

func sampleResult() scanner.Result {
	return scanner.Result{
		RunID:   "run-1",
		Route:   "bitget-v2",
		Version: "v2",
		Instruments: []signal.Instrument{{
			Enriched: signal.Enriched{
				Ticker:      signal.Ticker{Symbol: "BTCUSDT", Price: 64000, Change24h: 2.1, Volume: 1000},
				Amplitude1h: 1.2,
				Direction1h: -0.3,
			},
			Display:   "BTC",
			Diagnosis: "Normal",
			Bias:      "Wait",
		}},
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Took:      250 * time.Millisecond,
	}
}

func TestMemoryExpires(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mem := NewMemory(time.Minute)
	mem.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := mem.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mem.Put(ctx, sampleResult()))
	now = now.Add(59 * time.Second)
	res, ok, err := mem.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-1", res.RunID)

	now = now.Add(time.Second)
	_, ok, _ = mem.Get(ctx)
	assert.False(t, ok)
}

func TestRedisRoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedis(client, "", time.Minute)
	ctx := context.Background()

	_, ok, err := store.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, sampleResult()))
	assert.True(t, mr.Exists("sniper:snapshot"))
	assert.Equal(t, time.Minute, mr.TTL("sniper:snapshot"))

	res, ok, err := store.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResult().Instruments, res.Instruments)
	assert.True(t, sampleResult().StartedAt.Equal(res.StartedAt))

	mr.FastForward(time.Minute)
	_, ok, err = store.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	require.NoError(t, mr.Set("k", "not-json"))

	_, ok, err := NewRedis(client, "k", time.Minute).Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCachedServesFreshResult(t *testing.T) {
	runner := &countingRunner{}
	cached := NewCached(NewMemory(time.Minute), runner, zerolog.Nop())

	for i := 0; i < 3; i++ {
		res, err := cached.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "run-1", res.RunID)
	}
	assert.Equal(t, 1, runner.calls)
}

func TestCachedRefreshBypassesFreshEntry(t *testing.T) {
	runner := &countingRunner{}
	store := NewMemory(time.Minute)
	cached := NewCached(store, runner, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := cached.Refresh(context.Background(), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, runner.calls)

	_, err := cached.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	runner := &countingRunner{err: errors.New("exhausted")}
	cached := NewCached(NewMemory(time.Minute), runner, zerolog.Nop())

	_, err := cached.Run(context.Background(), nil)
	require.Error(t, err)
	_, err = cached.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestCachedSurvivesStoreOutage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	runner := &countingRunner{}
	cached := NewCached(NewRedis(client, "k", time.Minute), runner, zerolog.Nop())
	res, err := cached.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 1, runner.calls)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.Cache{Backend: config.CacheNone})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = Open(ctx, config.Cache{Backend: config.CacheMemory, TTLMs: 1000})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)

	mr := miniredis.RunT(t)
	store, err = Open(ctx, config.Cache{Backend: config.CacheRedis, RedisAddr: mr.Addr(), RedisKey: "x", TTLMs: 1000})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, store)

	_, err = Open(ctx, config.Cache{Backend: "memcached"})
	assert.Error(t, err)
}
