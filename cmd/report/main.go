// Package main renders reports from checkpointed results without
// touching the balance API. Useful after an interrupted run or to
// re-render with no refetch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"wallet-risk-scorer/internal/config"
	"wallet-risk-scorer/internal/reporting"
	"wallet-risk-scorer/internal/storage"
	"wallet-risk-scorer/internal/storage/file"
	"wallet-risk-scorer/internal/storage/migrations"
	"wallet-risk-scorer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (defaults apply when empty)")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated reports")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	checkpoints, closeStore, err := openCheckpointStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("checkpoint store init failed")
	}
	defer closeStore()

	report, err := reporting.NewGenerator(checkpoints).Generate(ctx, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("report generation failed")
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create output dir failed")
	}
	csvPath := filepath.Join(*outputDir, "risk_scores.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report)), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("csv write failed")
	}
	mdPath := filepath.Join(*outputDir, "RISK_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatal().Err(err).Msg("markdown write failed")
	}

	logger.Info().
		Int("wallets", report.Summary.TotalWallets).
		Int("scored", report.Summary.Scored).
		Int("failed", report.Summary.Failed).
		Str("csv", csvPath).
		Str("markdown", mdPath).
		Msg("reports written")
}

// openCheckpointStore opens the configured backend read-side. The memory
// backend has nothing to report on, so it is rejected here.
func openCheckpointStore(ctx context.Context, cfg config.Config) (storage.CheckpointStore, func(), error) {
	switch cfg.Checkpoint.Backend {
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
		return nil, nil, fmt.Errorf("checkpoint backend %q has no persisted results to report on", cfg.Checkpoint.Backend)
	}
}
