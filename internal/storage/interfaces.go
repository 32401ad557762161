// Package storage defines the persistence contracts for the scoring
// pipeline: the checkpoint store that makes runs resumable and the
// optional result archive for offline analysis.
package storage

import (
	"context"

	"wallet-risk-scorer/internal/domain"
)

// CheckpointStore persists per-wallet results incrementally so an
// interrupted run can resume without re-querying wallets that already
// have a terminal outcome (scored or failed).
//
// Record must be durable before it returns and safe under concurrent
// calls from multiple workers. Records are upserts keyed by wallet: a
// later record for the same wallet replaces the earlier one.
type CheckpointStore interface {
	// Has reports whether a result is already recorded for the wallet.
	Has(ctx context.Context, wallet domain.WalletAddress) (bool, error)

	// Record persists the result for a wallet.
	Record(ctx context.Context, wallet domain.WalletAddress, result *domain.RiskResult) error

	// Load returns all recorded results keyed by wallet.
	Load(ctx context.Context) (map[domain.WalletAddress]*domain.RiskResult, error)
}

// ResultArchive keeps an append-only history of every scored result,
// tagged with the run that produced it. Unlike the checkpoint store it is
// never consulted for resume decisions and never overwritten.
type ResultArchive interface {
	// Append stores one result under the given run identifier.
	Append(ctx context.Context, runID string, result *domain.RiskResult) error

	// GetByWallet returns all archived results for a wallet, oldest first.
	GetByWallet(ctx context.Context, wallet domain.WalletAddress) ([]*domain.RiskResult, error)
}
