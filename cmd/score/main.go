// Package main provides the scoring entry point.
// Executes: collect balances → extract features → score → checkpoint → report
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"wallet-risk-scorer/internal/balances"
	"wallet-risk-scorer/internal/collector"
	"wallet-risk-scorer/internal/config"
	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/observability"
	"wallet-risk-scorer/internal/orchestrator"
	"wallet-risk-scorer/internal/reporting"
	"wallet-risk-scorer/internal/storage"
	"wallet-risk-scorer/internal/storage/clickhouse"
	"wallet-risk-scorer/internal/storage/file"
	"wallet-risk-scorer/internal/storage/memory"
	"wallet-risk-scorer/internal/storage/migrations"
	"wallet-risk-scorer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (defaults apply when empty)")
	walletList := flag.String("wallets", "", "Comma-separated wallet addresses")
	walletsFile := flag.String("wallets-file", "", "File with one wallet address per line")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated reports")
	runID := flag.String("run-id", "", "Run identifier for archived results (default: timestamp)")
	retryFailed := flag.Bool("retry-failed", false, "Re-score wallets checkpointed as failed")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty disables)")
	verbose := flag.Bool("verbose", false, "Debug logging")
	flag.Parse()

	logger := newLogger(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}
	if cfg.APIKey == "" {
		logger.Fatal().Msgf("%s is not set", config.APIKeyEnv)
	}

	wallets, err := collectWallets(*walletList, *walletsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("wallet input failed")
	}
	if len(wallets) == 0 {
		logger.Fatal().Msg("no wallets given: use -wallets or -wallets-file")
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("cancelling run")
		cancel()
	}()

	metrics := observability.NewMetrics("")
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	checkpoints, closeStore, err := openCheckpointStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("checkpoint store init failed")
	}
	defer closeStore()

	archive, closeArchive, err := openArchive(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("archive init failed")
	}
	defer closeArchive()

	clientOpts := []balances.ClientOption{
		balances.WithTimeout(cfg.API.GetTimeout()),
		balances.WithRetryPolicy(cfg.RetryPolicy()),
		balances.WithLogger(logger),
		balances.WithMetrics(metrics),
	}
	if cfg.API.RateLimitRPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.API.RateLimitRPS), 1)
		clientOpts = append(clientOpts, balances.WithRateLimiter(limiter))
	}
	client := balances.NewClient(cfg.API.BaseURL, cfg.APIKey, clientOpts...)
	coll := collector.New(client, cfg.ChainIDs(), logger).WithMetrics(metrics)

	orch, err := orchestrator.New(orchestrator.Options{
		Source:      coll,
		Params:      cfg.Scoring,
		Checkpoints: checkpoints,
		Archive:     archive,
		Metrics:     metrics,
		Workers:     cfg.Workers,
		RetryFailed: *retryFailed,
		RunID:       *runID,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("orchestrator init failed")
	}

	result, err := orch.Run(ctx, wallets)
	if err != nil {
		logger.Fatal().Err(err).Msg("scoring run failed")
	}

	report := reporting.NewGenerator(checkpoints).Build(result.Results, orch.RunID())
	if err := writeReports(report, *outputDir); err != nil {
		logger.Fatal().Err(err).Msg("report write failed")
	}

	logger.Info().
		Int("processed", result.Processed).
		Int("skipped", result.Skipped).
		Int("scored", result.Scored).
		Int("failed", result.Failed).
		Str("output_dir", *outputDir).
		Msg("done")
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// collectWallets merges the -wallets flag and the wallets file. Blank
// lines and # comments in the file are ignored.
func collectWallets(list, path string) ([]domain.WalletAddress, error) {
	var out []domain.WalletAddress

	for _, raw := range strings.Split(list, ",") {
		if w := domain.NewWalletAddress(raw); !w.IsZero() {
			out = append(out, w)
		}
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open wallets file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if w := domain.NewWalletAddress(line); !w.IsZero() {
				out = append(out, w)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read wallets file: %w", err)
		}
	}

	return out, nil
}

func openCheckpointStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (storage.CheckpointStore, func(), error) {
	switch cfg.Checkpoint.Backend {
	case "memory":
		logger.Warn().Msg("memory checkpoints: resume will not survive a restart")
		return memory.NewCheckpointStore(), func() {}, nil

	case "file":
		store, err := file.Open(cfg.Checkpoint.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Checkpoint.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewCheckpointStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Checkpoint.Backend)
	}
}

func openArchive(ctx context.Context, cfg config.Config) (storage.ResultArchive, func(), error) {
	if !cfg.Archive.Enabled {
		return nil, func() {}, nil
	}

	conn, err := clickhouse.NewConn(ctx, cfg.Archive.ClickhouseDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return clickhouse.NewResultArchiveStore(conn), func() { _ = conn.Close() }, nil
}

func writeReports(report *reporting.Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	csvPath := filepath.Join(dir, "risk_scores.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report)), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	mdPath := filepath.Join(dir, "RISK_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	return nil
}
