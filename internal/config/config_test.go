package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "sniper-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App.LogLevel: %s", cfg.App.LogLevel)
	}
	if cfg.HTTP.Timeout() != 2500*time.Millisecond {
		t.Fatalf("unexpected HTTP timeout: %s", cfg.HTTP.Timeout())
	}
	if cfg.HTTP.MaxAttempts != 4 {
		t.Fatalf("unexpected HTTP.MaxAttempts: %d", cfg.HTTP.MaxAttempts)
	}
	if len(cfg.HTTP.RetryStatuses) != 2 || cfg.HTTP.RetryStatuses[1] != 503 {
		t.Fatalf("unexpected retry statuses: %+v", cfg.HTTP.RetryStatuses)
	}
	if cfg.HTTP.UserAgent != DefaultUserAgent {
		t.Fatalf("expected default user agent to survive partial http section, got %q", cfg.HTTP.UserAgent)
	}
	if len(cfg.Routes) != 2 {
		t.Fatalf("expected routes from file to replace defaults, got %d", len(cfg.Routes))
	}
	primary := cfg.Routes[0]
	if primary.Name != "primary" || primary.Version != "v3" || primary.DataKey != "result" {
		t.Fatalf("unexpected primary route: %+v", primary)
	}
	if primary.Params["productType"] != "USDT-FUTURES" {
		t.Fatalf("unexpected primary params: %+v", primary.Params)
	}
	if len(primary.Aliases) != 3 || primary.Aliases[1].Factor() != 100 || primary.Aliases[0].Factor() != 1 {
		t.Fatalf("unexpected primary aliases: %+v", primary.Aliases)
	}
	if cfg.Routes[1].Envelope != EnvelopeArray || cfg.Routes[1].SymbolSuffix != "_PERP" {
		t.Fatalf("unexpected fallback route: %+v", cfg.Routes[1])
	}
	if cfg.Candles.Route.StartParam != "from" || cfg.Candles.Route.SymbolSuffix != "_PERP" {
		t.Fatalf("unexpected candle route: %+v", cfg.Candles.Route)
	}
	if cfg.Candles.Lookback() != 3*time.Hour {
		t.Fatalf("unexpected lookback: %s", cfg.Candles.Lookback())
	}
	if cfg.Candles.Concurrency != 8 || cfg.Candles.RequestInterval() != 25*time.Millisecond {
		t.Fatalf("unexpected candle pacing: %+v", cfg.Candles)
	}
	if cfg.Candles.Latest != LatestLastElement {
		t.Fatalf("unexpected latest convention: %s", cfg.Candles.Latest)
	}
	if cfg.Candles.TimeoutMs != 5000 {
		t.Fatalf("expected default candle timeout, got %d", cfg.Candles.TimeoutMs)
	}
	if cfg.Scan.QuoteMarker != "USDC" || cfg.Scan.TopN != 10 {
		t.Fatalf("unexpected scan section: %+v", cfg.Scan)
	}
	if cfg.Classifier.RocketChange != 15 || cfg.Classifier.HighAmplitude != 2.0 {
		t.Fatalf("expected default classifier thresholds, got %+v", cfg.Classifier)
	}
	if cfg.Cache.Backend != CacheNone {
		t.Fatalf("unexpected cache backend: %s", cfg.Cache.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Routes) != 2 || cfg.Routes[0].Version != "v2" || cfg.Routes[1].Version != "v1" {
		t.Fatalf("expected current generation before legacy, got %+v", cfg.Routes)
	}
	if cfg.Scan.TopN != 40 {
		t.Fatalf("expected default top_n 40, got %d", cfg.Scan.TopN)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SNIPER_SCAN_TOP_N", "7")
	t.Setenv("SNIPER_APP_LOG_LEVEL", "warn")
	t.Setenv("SNIPER_HTTP_RETRY_STATUSES", "500,502")

	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Scan.TopN != 7 {
		t.Fatalf("expected env top_n 7, got %d", cfg.Scan.TopN)
	}
	if cfg.App.LogLevel != "warn" {
		t.Fatalf("expected env log level warn, got %s", cfg.App.LogLevel)
	}
	if len(cfg.HTTP.RetryStatuses) != 2 || cfg.HTTP.RetryStatuses[0] != 500 {
		t.Fatalf("unexpected env retry statuses: %+v", cfg.HTTP.RetryStatuses)
	}
	if cfg.Scan.QuoteMarker != "USDC" {
		t.Fatalf("expected file value to survive, got %s", cfg.Scan.QuoteMarker)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Scan.TopN = 12
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Scan.TopN != 12 {
		t.Fatalf("expected top_n 12, got %d", loaded.Scan.TopN)
	}
	if loaded.Routes[1].Aliases[4].Source != "chgUTC" {
		t.Fatalf("alias table not preserved: %+v", loaded.Routes[1].Aliases)
	}
	if err := Save(path, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no routes":       func(c *Config) { c.Routes = nil },
		"duplicate route": func(c *Config) { c.Routes[1].Name = c.Routes[0].Name },
		"bad envelope":    func(c *Config) { c.Routes[0].Envelope = "xml" },
		"bad alias":       func(c *Config) { c.Routes[0].Aliases[0].Target = "bid" },
		"zero top n":      func(c *Config) { c.Scan.TopN = 0 },
		"zero attempts":   func(c *Config) { c.HTTP.MaxAttempts = 0 },
		"zero workers":    func(c *Config) { c.Candles.Concurrency = 0 },
		"bad latest":      func(c *Config) { c.Candles.Latest = "first" },
		"redis no addr":   func(c *Config) { c.Cache.Backend = CacheRedis },
		"unknown cache":   func(c *Config) { c.Cache.Backend = "memcached" },
		"candle no param": func(c *Config) { c.Candles.Route.SymbolParam = "" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestKnownSymbolSuffixes(t *testing.T) {
	routes := []Route{{SymbolSuffix: "_UMCBL"}, {SymbolSuffix: ""}, {SymbolSuffix: "_UMCBL"}}
	got := KnownSymbolSuffixes(routes, CandleRoute{SymbolSuffix: "USDT_UMCBL"})
	if len(got) != 2 || got[0] != "USDT_UMCBL" || got[1] != "_UMCBL" {
		t.Fatalf("unexpected suffixes: %+v", got)
	}
}
