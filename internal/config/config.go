// Package config exposes strongly typed scanner configuration loaded from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override, e.g. SNIPER_APP_LOG_LEVEL.
const EnvPrefix = "SNIPER_"

// Latest-bar conventions understood by the candle enricher.
const (
	LatestByTimestamp = "timestamp"
	LatestLastElement = "last"
)

// Cache backends for the outer result cache.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name" env:"NAME"`
	Env         string `yaml:"env" env:"ENV"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
}

// HTTP configures the shared upstream transport.
type HTTP struct {
	TimeoutMs     int    `yaml:"timeout_ms" env:"TIMEOUT_MS"`
	MaxAttempts   int    `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	BackoffMinMs  int    `yaml:"backoff_min_ms" env:"BACKOFF_MIN_MS"`
	BackoffMaxMs  int    `yaml:"backoff_max_ms" env:"BACKOFF_MAX_MS"`
	UserAgent     string `yaml:"user_agent" env:"USER_AGENT"`
	RetryStatuses []int  `yaml:"retry_statuses" env:"RETRY_STATUSES" envSeparator:","`
}

// Timeout is the per-attempt request timeout.
func (h HTTP) Timeout() time.Duration { return time.Duration(h.TimeoutMs) * time.Millisecond }

// BackoffMin is the shortest wait between two attempts.
func (h HTTP) BackoffMin() time.Duration { return time.Duration(h.BackoffMinMs) * time.Millisecond }

// BackoffMax caps the exponential wait between two attempts.
func (h HTTP) BackoffMax() time.Duration { return time.Duration(h.BackoffMaxMs) * time.Millisecond }

// Candles configures the per-instrument enrichment step.
type Candles struct {
	Route             CandleRoute `yaml:"route"`
	LookbackHours     int         `yaml:"lookback_hours" env:"LOOKBACK_HOURS"`
	TimeoutMs         int         `yaml:"timeout_ms" env:"TIMEOUT_MS"`
	Concurrency       int         `yaml:"concurrency" env:"CONCURRENCY"`
	RequestIntervalMs int         `yaml:"request_interval_ms" env:"REQUEST_INTERVAL_MS"`
	Latest            string      `yaml:"latest" env:"LATEST"`
}

// Lookback is the candle window ending now.
func (c Candles) Lookback() time.Duration { return time.Duration(c.LookbackHours) * time.Hour }

// Timeout bounds one enrichment call including its retries.
func (c Candles) Timeout() time.Duration { return time.Duration(c.TimeoutMs) * time.Millisecond }

// RequestInterval is the minimum spacing between two candle requests across all workers.
func (c Candles) RequestInterval() time.Duration {
	return time.Duration(c.RequestIntervalMs) * time.Millisecond
}

// Scan configures ranking of the ticker snapshot.
type Scan struct {
	QuoteMarker       string `yaml:"quote_marker" env:"QUOTE_MARKER"`
	TopN              int    `yaml:"top_n" env:"TOP_N"`
	RefreshIntervalMs int    `yaml:"refresh_interval_ms" env:"REFRESH_INTERVAL_MS"`
}

// RefreshInterval is the cadence of the long-running scan loop.
func (s Scan) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalMs) * time.Millisecond
}

// Classifier groups the diagnosis and bias thresholds.
type Classifier struct {
	Mode               string  `yaml:"mode" env:"MODE"`
	RocketChange       float64 `yaml:"rocket_change" env:"ROCKET_CHANGE"`
	CapitulationChange float64 `yaml:"capitulation_change" env:"CAPITULATION_CHANGE"`
	ExtremeAmplitude   float64 `yaml:"extreme_amplitude" env:"EXTREME_AMPLITUDE"`
	HighAmplitude      float64 `yaml:"high_amplitude" env:"HIGH_AMPLITUDE"`
	PullbackChange     float64 `yaml:"pullback_change" env:"PULLBACK_CHANGE"`
	PullbackDirection  float64 `yaml:"pullback_direction" env:"PULLBACK_DIRECTION"`
	BounceChange       float64 `yaml:"bounce_change" env:"BOUNCE_CHANGE"`
	BounceDirection    float64 `yaml:"bounce_direction" env:"BOUNCE_DIRECTION"`
}

// Cache configures the optional time-bounded result cache used by the binary.
type Cache struct {
	Backend   string `yaml:"backend" env:"BACKEND"`
	TTLMs     int    `yaml:"ttl_ms" env:"TTL_MS"`
	RedisAddr string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisKey  string `yaml:"redis_key" env:"REDIS_KEY"`
}

// TTL is how long a cached scan result stays fresh.
func (c Cache) TTL() time.Duration { return time.Duration(c.TTLMs) * time.Millisecond }

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app" envPrefix:"APP_"`
	HTTP       HTTP       `yaml:"http" envPrefix:"HTTP_"`
	Routes     []Route    `yaml:"routes"`
	Candles    Candles    `yaml:"candles" envPrefix:"CANDLES_"`
	Scan       Scan       `yaml:"scan" envPrefix:"SCAN_"`
	Classifier Classifier `yaml:"classifier" envPrefix:"CLASSIFIER_"`
	Cache      Cache      `yaml:"cache" envPrefix:"CACHE_"`
}

// Default returns the compiled-in configuration targeting Bitget USDT-margined perpetuals.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "sniper-bitget",
			Env:         "development",
			MetricsAddr: ":9102",
			LogLevel:    "info",
		},
		HTTP: HTTP{
			TimeoutMs:     10_000,
			MaxAttempts:   3,
			BackoffMinMs:  500,
			BackoffMaxMs:  4_000,
			UserAgent:     DefaultUserAgent,
			RetryStatuses: []int{429, 500, 502, 503, 504},
		},
		Routes: BitgetRoutes(),
		Candles: Candles{
			Route:             BitgetV1Candles(),
			LookbackHours:     2,
			TimeoutMs:         5_000,
			Concurrency:       5,
			RequestIntervalMs: 50,
			Latest:            LatestByTimestamp,
		},
		Scan: Scan{
			QuoteMarker:       "USDT",
			TopN:              40,
			RefreshIntervalMs: 60_000,
		},
		Classifier: Classifier{
			Mode:               "sniper",
			RocketChange:       15,
			CapitulationChange: -10,
			ExtremeAmplitude:   3.5,
			HighAmplitude:      2.0,
			PullbackChange:     5,
			PullbackDirection:  -0.5,
			BounceChange:       -5,
			BounceDirection:    0.5,
		},
		Cache: Cache{
			Backend:  CacheMemory,
			TTLMs:    60_000,
			RedisKey: "sniper:snapshot",
		},
	}
}

// Load reads a YAML file over the defaults, then applies environment overrides.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := applyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FromEnv builds a configuration from the defaults and environment only.
func FromEnv() (*Config, error) {
	config := Default()
	if err := applyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(cfg *Config) error {
	_ = godotenv.Load() // best-effort
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports the first structural problem found in the configuration.
func (c *Config) Validate() error {
	if len(c.Routes) == 0 {
		return errors.New("config: at least one ticker route is required")
	}
	seen := make(map[string]struct{}, len(c.Routes))
	for i, route := range c.Routes {
		if err := route.validate(); err != nil {
			return fmt.Errorf("config: routes[%d]: %w", i, err)
		}
		if _, dup := seen[route.Name]; dup {
			return fmt.Errorf("config: duplicate route name %q", route.Name)
		}
		seen[route.Name] = struct{}{}
	}
	if err := c.Candles.Route.validate(); err != nil {
		return fmt.Errorf("config: candles.route: %w", err)
	}
	if c.HTTP.MaxAttempts < 1 {
		return errors.New("config: http.max_attempts must be at least 1")
	}
	if c.Scan.TopN <= 0 {
		return errors.New("config: scan.top_n must be positive")
	}
	if c.Candles.Concurrency <= 0 {
		return errors.New("config: candles.concurrency must be positive")
	}
	if c.Candles.LookbackHours <= 0 {
		return errors.New("config: candles.lookback_hours must be positive")
	}
	switch c.Candles.Latest {
	case LatestByTimestamp, LatestLastElement:
	default:
		return fmt.Errorf("config: unknown candles.latest %q", c.Candles.Latest)
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("config: cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown cache.backend %q", c.Cache.Backend)
	}
	return nil
}
