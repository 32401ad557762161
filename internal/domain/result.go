package domain

import "time"

// RiskTier is the named bucket a risk score falls into.
type RiskTier string

const (
	TierVeryLow  RiskTier = "VeryLow"  // [0,200]
	TierLow      RiskTier = "Low"      // (200,400]
	TierMedium   RiskTier = "Medium"   // (400,600]
	TierHigh     RiskTier = "High"     // (600,800]
	TierVeryHigh RiskTier = "VeryHigh" // (800,1000]
)

// String returns the string representation of the tier.
func (t RiskTier) String() string {
	return string(t)
}

// RiskResult is the terminal artifact for one wallet. Written once to the
// checkpoint store, never mutated.
//
// When Status is SnapshotFailed no balance data was available: Score and Tier
// carry no meaning and consumers must check Status before reading them.
type RiskResult struct {
	Wallet       WalletAddress  `json:"wallet"`
	Score        int            `json:"score"` // ∈ [0,1000], lower = safer
	Tier         RiskTier       `json:"tier,omitempty"`
	Status       SnapshotStatus `json:"status"`
	FailedChains []ChainID      `json:"failed_chains,omitempty"`
	ScoredAt     time.Time      `json:"scored_at"`
}

// Scored reports whether the result carries a meaningful score.
func (r *RiskResult) Scored() bool {
	return r.Status != SnapshotFailed
}
