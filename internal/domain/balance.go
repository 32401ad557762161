package domain

import "time"

// ChainBalanceEntry represents one token holding on one chain.
type ChainBalanceEntry struct {
	Chain           ChainID  // network the holding lives on
	ContractAddress string   // token contract address
	Symbol          string   // ticker symbol as reported by the API
	Quantity        float64  // token quantity in whole units
	QuoteRate       *float64 // USD unit price, nil when the API has no quote
	QuoteUSD        float64  // Quantity × QuoteRate, clamped to ≥ 0
}

// Priced reports whether the entry carries a positive USD value.
// Unpriced and zero-value entries are excluded from feature extraction.
func (e ChainBalanceEntry) Priced() bool {
	return e.QuoteRate != nil && e.QuoteUSD > 0
}

// SnapshotStatus describes how much of the requested chain set a
// snapshot actually covers.
type SnapshotStatus string

const (
	// SnapshotComplete means every requested chain was fetched.
	SnapshotComplete SnapshotStatus = "complete"
	// SnapshotPartial means at least one chain failed and at least one succeeded.
	SnapshotPartial SnapshotStatus = "partial"
	// SnapshotFailed means no chain could be fetched.
	SnapshotFailed SnapshotStatus = "failed"
)

// String returns the string representation of the status.
func (s SnapshotStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s SnapshotStatus) IsValid() bool {
	return s == SnapshotComplete || s == SnapshotPartial || s == SnapshotFailed
}

// WalletSnapshot aggregates the balance entries collected for one wallet
// across all requested chains at one point in time. Immutable once produced
// by the collector.
type WalletSnapshot struct {
	Wallet       WalletAddress
	Entries      []ChainBalanceEntry
	Status       SnapshotStatus
	FailedChains []ChainID
	FetchedAt    time.Time
}
