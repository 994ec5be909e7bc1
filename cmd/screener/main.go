package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"Buffetology/internal/cache"
	"Buffetology/internal/collector"
	"Buffetology/internal/config"
	"Buffetology/internal/logger"
	"Buffetology/internal/metrics"
	"Buffetology/internal/model"
	"Buffetology/internal/notifier"
	"Buffetology/internal/recorder"
	"Buffetology/internal/report"
	"Buffetology/internal/scheduler"
	"Buffetology/internal/screener"
	"Buffetology/internal/server"
)

// options are the command-line flags and positional tickers.
type options struct {
	configPath string
	format     string
	limit      int
	workers    int
	out        string
	daemon     bool
	mock       bool
	clearCache bool
	statements string
	tickers    []string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config.yaml (default configs/config.yaml or $CONFIG_PATH)")
	flag.StringVar(&opts.format, "format", "", "output format: table, csv or json")
	flag.IntVar(&opts.limit, "limit", -1, "number of S&P 500 constituents to screen")
	flag.IntVar(&opts.workers, "workers", 0, "concurrent ticker analyses")
	flag.StringVar(&opts.out, "out", "", "write the report to this file instead of stdout")
	flag.BoolVar(&opts.daemon, "daemon", false, "run the scheduler and Telegram bot until interrupted")
	flag.BoolVar(&opts.mock, "mock", false, "use the built-in demo data instead of a live provider")
	flag.BoolVar(&opts.clearCache, "clear-cache", false, "remove every cached provider response and exit")
	flag.StringVar(&opts.statements, "statements", "", "print financial statements for TICKER as JSON and exit")
	flag.Parse()
	opts.tickers = flag.Args()

	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, opts, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "buffetology: %v\n", err)
		os.Exit(1)
	}
}

// run wires the components and executes one mode. Every opened resource is
// closed before it returns.
func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts.configPath, stderr)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, opts)

	log := logger.NewWithWriter(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}, stderr)
	log.Info().Msg("Buffetology starting...")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if opts.clearCache {
		return clearCache(ctx, cfg, log)
	}

	th, err := cfg.Thresholds()
	if err != nil {
		return fmt.Errorf("scoring thresholds: %w", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	cached := false
	if opts.mock {
		fetcher = collector.DemoFetcher()
	} else {
		fetcher, err = collector.New(cfg, log)
		if err != nil {
			return fmt.Errorf("init data provider: %w", err)
		}
		// A broken cache degrades to direct fetches.
		store, err := cache.New(cfg)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("cache unavailable, continuing without it")
		case store != nil:
			defer store.Close()
			fetcher = collector.NewCachedFetcher(fetcher, store, log)
			cached = true
		}
	}
	log.Info().Str("provider", fetcher.Name()).Bool("cache", cached).Msg("data source ready")

	if opts.statements != "" {
		if err := printStatements(ctx, fetcher, opts.statements, stdout); err != nil {
			return fmt.Errorf("fetch statements for %s: %w", opts.statements, err)
		}
		return nil
	}

	// Init metrics
	reg := prometheus.NewRegistry()
	sc, err := screener.New(fetcher, th,
		screener.WithWorkers(cfg.Analysis.Workers),
		screener.WithLogger(log),
		screener.WithMetrics(metrics.New(reg)),
	)
	if err != nil {
		return fmt.Errorf("init screener: %w", err)
	}

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	// Status server: health, metrics and the latest run
	if cfg.Metrics.Addr != "" {
		srv := server.New(server.Config{Addr: cfg.Metrics.Addr, Log: log, Recorder: rec, Gatherer: reg})
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("status server")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
	var n scheduler.Notifier
	if tn.Enabled() {
		n = tn
	}

	universe := scheduler.Universe{Custom: cfg.Analysis.CustomTickers, TopN: cfg.Analysis.SP500TopN}
	if len(opts.tickers) > 0 {
		universe = scheduler.Universe{Custom: opts.tickers}
	}
	sched := scheduler.NewScheduler(ctx, sc, n, rec, universe, cfg.Output.TopN, log)

	if opts.daemon {
		return runDaemon(ctx, sched, tn, cfg.Schedule.ScreenCron, log)
	}

	latest, err := sched.RunNow(ctx, model.TriggerCLI)
	if err != nil {
		return fmt.Errorf("screening run: %w", err)
	}
	if err := writeReport(stdout, latest.Results, cfg.Output.Format, cfg.Output.TopN, cfg.Output.Path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.limit >= 0 {
		cfg.Analysis.SP500TopN = opts.limit
	}
	if opts.workers > 0 {
		cfg.Analysis.Workers = opts.workers
	}
	if opts.out != "" {
		cfg.Output.Path = opts.out
	}
}

// loadConfig resolves the config path and falls back to the built-in defaults
// when the file does not exist.
func loadConfig(path string, stderr io.Writer) (*config.Config, error) {
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "config %s not found, using defaults\n", path)
		return config.Default(), nil
	}
	return cfg, err
}

func clearCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := cache.New(cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if store == nil {
		log.Info().Msg("cache disabled, nothing to clear")
		return nil
	}
	defer store.Close()
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	log.Info().Str("backend", cfg.Cache.Backend).Msg("cache cleared")
	return nil
}

func runDaemon(ctx context.Context, sched *scheduler.Scheduler, tn *notifier.TelegramNotifier, screenCron string, log zerolog.Logger) error {
	if err := sched.Register(screenCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("Telegram polling started")
	} else {
		log.Warn().Msg("Telegram not configured, bot commands disabled")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing screen now")
		go func() {
			if _, err := sched.RunNow(ctx, model.TriggerScheduled); err != nil {
				log.Error().Err(err).Msg("startup screen")
			}
		}()
	}

	log.Info().Msg("Buffetology is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	return nil
}

func writeReport(stdout io.Writer, results []model.AnalysisResult, format string, top int, path string) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return report.Render(w, results, format, top)
}

func printStatements(ctx context.Context, fetcher collector.Fetcher, ticker string, w io.Writer) error {
	sf, ok := fetcher.(collector.StatementFetcher)
	if !ok {
		return fmt.Errorf("provider %s does not serve financial statements", fetcher.Name())
	}
	st, err := sf.FetchStatements(ctx, ticker)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}
