// Package reporting renders checkpointed risk results as CSV and
// Markdown reports.
package reporting

import (
	"time"

	"wallet-risk-scorer/internal/domain"
)

// Report is the rendered view of one scoring batch.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	// Summary
	Summary Summary

	// Scored wallets, highest risk first
	Rows []ResultRow

	// Wallets with no score (snapshot failed on every chain)
	Failures []FailureRow
}

// Summary aggregates the batch.
type Summary struct {
	TotalWallets int
	Scored       int
	Failed       int
	MeanScore    float64 // over scored wallets only
	MedianScore  float64
	TierCounts   []TierCount // fixed tier order, zero counts included
}

// TierCount is the number of wallets in one tier.
type TierCount struct {
	Tier  domain.RiskTier
	Count int
}

// ResultRow is one scored wallet in the report.
type ResultRow struct {
	Wallet       domain.WalletAddress
	Score        int
	Tier         domain.RiskTier
	Status       domain.SnapshotStatus
	FailedChains []domain.ChainID
	ScoredAt     time.Time
}

// FailureRow is one wallet that could not be scored.
type FailureRow struct {
	Wallet       domain.WalletAddress
	FailedChains []domain.ChainID
	ScoredAt     time.Time
}
