package scoring

import (
	"math"

	"wallet-risk-scorer/internal/domain"
)

// maxScore is the upper bound of the risk scale. 0 = safest.
const maxScore = 1000

// Score combines the weighted safety values into a final risk score and
// tier. Safety 1.0 maps to score 0, safety 0.0 to score 1000.
func Score(fv domain.FeatureVector, p Params) (int, domain.RiskTier) {
	nf := Normalize(fv, p.Thresholds)

	safety := p.Weights.Size*nf.SizeSafety +
		p.Weights.Diversification*nf.DiversificationSafety +
		p.Weights.Concentration*nf.ConcentrationSafety

	score := int(math.Round((1 - safety) * maxScore))
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}

	return score, TierFor(score)
}

// TierFor buckets a score into its named tier. Bounds are inclusive on the
// upper edge, so 200 is still VeryLow and 1000 is VeryHigh.
func TierFor(score int) domain.RiskTier {
	switch {
	case score <= 200:
		return domain.TierVeryLow
	case score <= 400:
		return domain.TierLow
	case score <= 600:
		return domain.TierMedium
	case score <= 800:
		return domain.TierHigh
	default:
		return domain.TierVeryHigh
	}
}
