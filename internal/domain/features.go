package domain

// FeatureVector holds the three scalar features a snapshot reduces to.
// Derived deterministically; a given snapshot always produces the same vector.
type FeatureVector struct {
	TotalValueUSD      float64 // sum of USD value over priced entries, ≥ 0
	AssetCount         int     // entries with USD value above the inclusion threshold
	ConcentrationRatio float64 // largest single-entry USD value / TotalValueUSD, ∈ [0,1]
}

// NormalizedFeatures holds the per-feature safety values, each ∈ [0,1]
// where 1 = safest.
type NormalizedFeatures struct {
	SizeSafety            float64
	DiversificationSafety float64
	ConcentrationSafety   float64
}
