package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/cache"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/report"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/scanner"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	session := newSession(cfg)

	for {
		fmt.Println("\n=== Sniper Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit scan and candle knobs")
		fmt.Println("3) Edit classifier thresholds")
		fmt.Println("4) Save config")
		fmt.Println("5) Scan now")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(os.Stdout, cfg)
		case "2":
			editScan(reader, cfg)
			session.close()
			session = newSession(cfg)
		case "3":
			editClassifier(reader, cfg)
			session.close()
			session = newSession(cfg)
		case "4":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			session.scan(context.Background())
		case "6":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				session.close()
				session = newSession(cfg)
				fmt.Println("config reloaded")
			}
		case "0":
			session.close()
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

// session keeps the scan pipeline and its result cache across menu actions.
type session struct {
	store  cache.Store
	runner *cache.Cached
}

func newSession(cfg *config.Config) *session {
	log := util.NewLoggerTo(os.Stderr, cfg.App.LogLevel)
	if cfg.App.LogLevel == "" || strings.EqualFold(cfg.App.LogLevel, "info") {
		log = log.Level(zerolog.WarnLevel)
	}
	store, err := cache.Open(context.Background(), cfg.Cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "result cache disabled: %v\n", err)
	}
	return &session{store: store, runner: cache.NewCached(store, scanner.FromConfig(cfg, log), log)}
}

// close releases a store that holds a connection.
func (s *session) close() {
	if c, ok := s.store.(io.Closer); ok {
		_ = c.Close()
	}
}

func (s *session) scan(ctx context.Context) {
	res, err := s.runner.Run(ctx, report.Progress(os.Stdout))
	if err != nil {
		report.Failure(os.Stdout, err)
		return
	}
	report.Table(os.Stdout, res)
}

func printSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "\n--- Configuration Summary ---")
	for i, route := range cfg.Routes {
		fmt.Fprintf(w, "Route %d: %s (%s) %s\n", i+1, route.Name, route.Version, route.BaseURL)
	}
	fmt.Fprintf(w, "Candle route: %s (%s)\n", cfg.Candles.Route.Name, cfg.Candles.Route.Version)
	fmt.Fprintf(w, "Quote marker: %s | top %d by volume\n", cfg.Scan.QuoteMarker, cfg.Scan.TopN)
	fmt.Fprintf(w, "Candle workers: %d | spacing %s | timeout %s\n",
		cfg.Candles.Concurrency, cfg.Candles.RequestInterval(), cfg.Candles.Timeout())
	fmt.Fprintf(w, "Rocket above %+.2f%% | capitulation below %+.2f%%\n",
		cfg.Classifier.RocketChange, cfg.Classifier.CapitulationChange)
	fmt.Fprintf(w, "Extreme amplitude above %.2f%% | high above %.2f%%\n",
		cfg.Classifier.ExtremeAmplitude, cfg.Classifier.HighAmplitude)
	fmt.Fprintf(w, "Result cache: %s (%s)\n", cfg.Cache.Backend, cfg.Cache.TTL())
}

func editScan(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Scan / Candles ---")
	fmt.Printf("Quote marker [%s]: ", cfg.Scan.QuoteMarker)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.Scan.QuoteMarker = strings.ToUpper(strings.TrimSpace(line))
	}
	cfg.Scan.TopN = promptInt(reader, "Instruments to keep", cfg.Scan.TopN)
	cfg.Candles.Concurrency = promptInt(reader, "Candle workers", cfg.Candles.Concurrency)
	cfg.Candles.RequestIntervalMs = promptInt(reader, "Candle request spacing (ms)", cfg.Candles.RequestIntervalMs)
}

func editClassifier(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Classifier ---")
	c := &cfg.Classifier
	c.RocketChange = promptFloat(reader, "Rocket 24h change (%)", c.RocketChange)
	c.CapitulationChange = promptFloat(reader, "Capitulation 24h change (%)", c.CapitulationChange)
	c.ExtremeAmplitude = promptFloat(reader, "Extreme 1h amplitude (%)", c.ExtremeAmplitude)
	c.HighAmplitude = promptFloat(reader, "High 1h amplitude (%)", c.HighAmplitude)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	val := promptFloat(reader, label, float64(current))
	if val <= 0 {
		fmt.Printf("must be positive, keeping %d\n", current)
		return current
	}
	return int(val)
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
