// Package collector turns a wallet address into a balance snapshot across
// a set of chains. Chain queries run concurrently; each chain fails or
// succeeds on its own and the snapshot records which chains failed.
package collector

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/observability"
)

// BalanceSource fetches all holdings for one wallet on one chain.
// Implemented by balances.Client; tests use balances/stub.
type BalanceSource interface {
	FetchChainBalances(ctx context.Context, chain domain.ChainID, wallet domain.WalletAddress) ([]domain.ChainBalanceEntry, error)
}

// Collector builds wallet snapshots from a balance source.
type Collector struct {
	source  BalanceSource
	chains  []domain.ChainID
	now     func() time.Time
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New creates a collector over the given chains.
func New(source BalanceSource, chains []domain.ChainID, logger zerolog.Logger) *Collector {
	return &Collector{
		source: source,
		chains: chains,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// WithClock sets a custom clock for deterministic snapshots in tests.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// WithMetrics sets the metrics sink for per-chain failure counters.
func (c *Collector) WithMetrics(m *observability.Metrics) *Collector {
	c.metrics = m
	return c
}

// Collect fetches balances for one wallet on every configured chain and
// merges the outcomes into a snapshot. Retry handling lives inside the
// source; by the time a chain's fetch returns an error here, that chain
// is failed for this run. Collect itself only fails on cancellation.
func (c *Collector) Collect(ctx context.Context, wallet domain.WalletAddress) (*domain.WalletSnapshot, error) {
	var (
		mu      sync.Mutex
		entries []domain.ChainBalanceEntry
		failed  []domain.ChainID
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, chain := range c.chains {
		g.Go(func() error {
			chainEntries, err := c.source.FetchChainBalances(gctx, chain, wallet)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.metrics.RecordChainFailure(strconv.FormatInt(int64(chain), 10))
				c.logger.Warn().
					Int64("chain", int64(chain)).
					Str("wallet", wallet.String()).
					Err(err).
					Msg("chain fetch failed")
				mu.Lock()
				failed = append(failed, chain)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			entries = append(entries, chainEntries...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Concurrent merges arrive in arbitrary order; sort for a
	// deterministic snapshot.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Chain != entries[j].Chain {
			return entries[i].Chain < entries[j].Chain
		}
		return entries[i].ContractAddress < entries[j].ContractAddress
	})
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })

	return &domain.WalletSnapshot{
		Wallet:       wallet,
		Entries:      entries,
		Status:       statusFor(len(c.chains), len(failed)),
		FailedChains: failed,
		FetchedAt:    c.now(),
	}, nil
}

// statusFor derives the snapshot status from the failed-chain count.
func statusFor(requested, failed int) domain.SnapshotStatus {
	switch {
	case failed == 0:
		return domain.SnapshotComplete
	case failed < requested:
		return domain.SnapshotPartial
	default:
		return domain.SnapshotFailed
	}
}
