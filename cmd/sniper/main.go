package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/cache"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/metrics"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/report"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/scanner"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML config")
	once := flag.Bool("once", false, "scan once and exit")
	showProgress := flag.Bool("progress", true, "print enrichment progress to stderr")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := util.NewLoggerTo(os.Stderr, cfg.App.LogLevel).With().Str("app", cfg.App.Name).Logger()

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !*once && cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	store, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("result cache disabled")
	}
	runner := cache.NewCached(store, scanner.FromConfig(cfg, log), log)

	var progress scanner.ProgressFunc
	if *showProgress {
		progress = report.Progress(os.Stderr)
	}

	if *once {
		res, err := runner.Run(ctx, progress)
		if err != nil {
			report.Failure(os.Stdout, err)
			os.Exit(1)
		}
		report.Table(os.Stdout, res)
		return
	}

	log.Info().Dur("interval", cfg.Scan.RefreshInterval()).Msg("scanner started")
	scanner.Loop(ctx, cfg.Scan.RefreshInterval(), runner.Refresh, progress, func(res scanner.Result, err error) {
		if err != nil {
			report.Failure(os.Stdout, err)
			return
		}
		report.Table(os.Stdout, res)
	})
	log.Info().Msg("shutting down")
}

// loadConfig falls back to defaults plus environment when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.FromEnv()
	}
	return cfg, err
}
