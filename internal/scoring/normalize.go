package scoring

import (
	"math"

	"wallet-risk-scorer/internal/domain"
)

// Normalize maps a raw feature vector onto per-feature safety values.
// Each map is independent and clamped to [0,1] to guard against
// floating-point edge effects at the thresholds.
func Normalize(fv domain.FeatureVector, t Thresholds) domain.NormalizedFeatures {
	return domain.NormalizedFeatures{
		SizeSafety:            normalizeSize(fv.TotalValueUSD, t),
		DiversificationSafety: normalizeDiversification(fv.AssetCount, t),
		ConcentrationSafety:   normalizeConcentration(fv.ConcentrationRatio, t),
	}
}

// normalizeSize maps portfolio USD value onto [0,1] using logarithmic
// interpolation between the min and max portfolio thresholds. Portfolio
// sizes span several orders of magnitude; a linear map would saturate.
func normalizeSize(valueUSD float64, t Thresholds) float64 {
	if valueUSD <= t.MinPortfolioUSD {
		return 0
	}
	if valueUSD >= t.MaxPortfolioUSD {
		return 1
	}
	logValue := math.Log10(valueUSD)
	logMin := math.Log10(t.MinPortfolioUSD)
	logMax := math.Log10(t.MaxPortfolioUSD)
	return clamp01((logValue - logMin) / (logMax - logMin))
}

// normalizeDiversification maps distinct asset count linearly onto [0,1].
func normalizeDiversification(count int, t Thresholds) float64 {
	if count <= t.MinAssets {
		return 0
	}
	if count >= t.MaxAssets {
		return 1
	}
	return clamp01(float64(count-t.MinAssets) / float64(t.MaxAssets-t.MinAssets))
}

// normalizeConcentration maps the concentration ratio inversely onto [0,1]:
// 100% in one asset is the riskiest, at or below the low-concentration
// threshold is the safest.
func normalizeConcentration(ratio float64, t Thresholds) float64 {
	if ratio >= 1 {
		return 0
	}
	if ratio <= t.LowConcentration {
		return 1
	}
	return clamp01((1 - ratio) / (1 - t.LowConcentration))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
