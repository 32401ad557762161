// Package orchestrator drives the scoring pipeline for a batch of wallets.
// Flow per wallet: collect balances → extract features → score → checkpoint.
// Wallets with a recorded checkpoint are skipped, so an interrupted run can
// be restarted with the same input and only the remainder is fetched.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/features"
	"wallet-risk-scorer/internal/observability"
	"wallet-risk-scorer/internal/scoring"
	"wallet-risk-scorer/internal/storage"
)

// DefaultWorkers is the worker pool size used when Options.Workers is 0.
const DefaultWorkers = 4

// SnapshotSource produces a balance snapshot for one wallet.
// Implemented by collector.Collector.
type SnapshotSource interface {
	Collect(ctx context.Context, wallet domain.WalletAddress) (*domain.WalletSnapshot, error)
}

// Orchestrator coordinates collection, scoring and checkpointing.
type Orchestrator struct {
	source      SnapshotSource
	params      scoring.Params
	checkpoints storage.CheckpointStore
	archive     storage.ResultArchive
	metrics     *observability.Metrics
	workers     int
	retryFailed bool
	runID       string
	logger      zerolog.Logger
	now         func() time.Time
}

// Options for creating an Orchestrator.
type Options struct {
	// Required
	Source      SnapshotSource
	Params      scoring.Params
	Checkpoints storage.CheckpointStore

	// Optional
	Archive     storage.ResultArchive  // append-only result history, nil to disable
	Metrics     *observability.Metrics // nil to disable
	Workers     int                    // concurrent wallets, DefaultWorkers when 0
	RetryFailed bool                   // re-score wallets checkpointed as failed
	RunID       string                 // tag for archived results
	Logger      zerolog.Logger
}

// New creates a new Orchestrator. Params are validated here so a
// misconfigured run fails before any wallet is fetched.
func New(opts Options) (*Orchestrator, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("orchestrator: source is required")
	}
	if opts.Checkpoints == nil {
		return nil, fmt.Errorf("orchestrator: checkpoint store is required")
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	runID := opts.RunID
	if runID == "" {
		runID = time.Now().UTC().Format("20060102T150405Z")
	}

	return &Orchestrator{
		source:      opts.Source,
		params:      opts.Params,
		checkpoints: opts.Checkpoints,
		archive:     opts.Archive,
		metrics:     opts.Metrics,
		workers:     workers,
		retryFailed: opts.RetryFailed,
		runID:       runID,
		logger:      opts.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock sets a custom clock for deterministic results in tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// RunID returns the identifier archived results are tagged with.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// RunResult summarizes one orchestrator run.
type RunResult struct {
	Processed int                  // wallets fetched and recorded this run
	Skipped   int                  // wallets with an existing checkpoint
	Scored    int                  // processed wallets that got a numeric score
	Failed    int                  // processed wallets whose snapshot failed entirely
	Results   []*domain.RiskResult // one entry per unique input wallet, input order
}

// Run scores every wallet in the batch. Duplicate addresses are collapsed
// to one entry. A chain or wallet fetch failure never aborts the batch; a
// checkpoint write failure does, because continuing would break resume
// guarantees.
func (o *Orchestrator) Run(ctx context.Context, wallets []domain.WalletAddress) (*RunResult, error) {
	start := o.now()

	batch := dedupe(wallets)
	o.logger.Info().
		Int("wallets", len(batch)).
		Int("workers", o.workers).
		Str("run_id", o.runID).
		Msg("starting scoring run")

	recorded, err := o.checkpoints.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoints: %w", err)
	}

	var (
		mu     sync.Mutex
		result = &RunResult{Results: make([]*domain.RiskResult, len(batch))}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i, wallet := range batch {
		if prev, ok := recorded[wallet]; ok && (prev.Scored() || !o.retryFailed) {
			result.Skipped++
			result.Results[i] = prev
			o.metrics.RecordSkipped()
			o.logger.Debug().Str("wallet", wallet.String()).Msg("checkpoint hit, skipping")
			continue
		}

		g.Go(func() error {
			res, err := o.scoreWallet(gctx, wallet)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Processed++
			if res.Scored() {
				result.Scored++
			} else {
				result.Failed++
			}
			result.Results[i] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.metrics.RecordRun("error", o.now().Sub(start).Seconds())
		return nil, err
	}

	o.metrics.RecordRun("ok", o.now().Sub(start).Seconds())
	o.logger.Info().
		Int("processed", result.Processed).
		Int("skipped", result.Skipped).
		Int("scored", result.Scored).
		Int("failed", result.Failed).
		Dur("elapsed", o.now().Sub(start)).
		Msg("scoring run finished")

	return result, nil
}

// scoreWallet runs the collect → extract → score → checkpoint sequence for
// one wallet. Every terminal outcome, including a fully failed snapshot,
// is checkpointed so a rerun does not refetch the wallet.
func (o *Orchestrator) scoreWallet(ctx context.Context, wallet domain.WalletAddress) (*domain.RiskResult, error) {
	snapshot, err := o.source.Collect(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", wallet, err)
	}

	res := &domain.RiskResult{
		Wallet:       wallet,
		Status:       snapshot.Status,
		FailedChains: snapshot.FailedChains,
		ScoredAt:     o.now(),
	}

	if snapshot.Status == domain.SnapshotFailed {
		o.metrics.RecordFailed()
		o.logger.Warn().Str("wallet", wallet.String()).Msg("no chain reachable, recording failure")
	} else {
		fv := features.Extract(snapshot, o.params.Thresholds.MinAssetValueUSD)
		res.Score, res.Tier = scoring.Score(fv, o.params)
		o.metrics.RecordScore(res.Score, res.Tier.String())
		o.logger.Info().
			Str("wallet", wallet.String()).
			Int("score", res.Score).
			Str("tier", res.Tier.String()).
			Str("status", snapshot.Status.String()).
			Float64("total_usd", fv.TotalValueUSD).
			Int("assets", fv.AssetCount).
			Msg("wallet scored")
	}

	err = o.checkpoints.Record(ctx, wallet, res)
	o.metrics.RecordCheckpointWrite(err)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", wallet, err)
	}

	// Archive failures are logged but never fatal: the checkpoint is the
	// source of truth, the archive is best-effort history.
	if o.archive != nil {
		if err := o.archive.Append(ctx, o.runID, res); err != nil {
			o.logger.Warn().Str("wallet", wallet.String()).Err(err).Msg("archive append failed")
		}
	}

	return res, nil
}

// dedupe collapses duplicate addresses, keeping first-seen order.
func dedupe(wallets []domain.WalletAddress) []domain.WalletAddress {
	seen := make(map[domain.WalletAddress]struct{}, len(wallets))
	out := make([]domain.WalletAddress, 0, len(wallets))
	for _, w := range wallets {
		if w.IsZero() {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
