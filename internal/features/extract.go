// Package features reduces a wallet snapshot to the scalar features the
// scorer consumes.
package features

import "wallet-risk-scorer/internal/domain"

// Extract derives the feature vector from a snapshot. It is a total
// function: partial and failed snapshots simply produce features from
// whatever entries are present (possibly all zeros). Whether a failed
// snapshot should be scored at all is the orchestrator's decision.
//
// minAssetValueUSD is the strict lower bound an entry's USD value must
// exceed to count as a distinct asset (0 means any positive value counts).
// It gates AssetCount only: every positive-value entry still contributes
// to TotalValueUSD and to the largest-holding numerator, so dust cannot
// distort the portfolio total or the concentration ratio.
func Extract(s *domain.WalletSnapshot, minAssetValueUSD float64) domain.FeatureVector {
	var fv domain.FeatureVector
	if s == nil {
		return fv
	}

	var largest float64
	for _, e := range s.Entries {
		if !e.Priced() || e.QuoteUSD <= 0 {
			continue
		}
		fv.TotalValueUSD += e.QuoteUSD
		if e.QuoteUSD > largest {
			largest = e.QuoteUSD
		}
		if e.QuoteUSD > minAssetValueUSD {
			fv.AssetCount++
		}
	}

	// No holdings ⇒ zero concentration by convention, not an error.
	if fv.TotalValueUSD > 0 {
		fv.ConcentrationRatio = largest / fv.TotalValueUSD
	}

	return fv
}
