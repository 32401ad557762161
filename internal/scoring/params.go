// Package scoring turns a feature vector into a bounded risk score.
// Flow: normalize each feature to a [0,1] safety value → combine with
// fixed weights → invert and scale to an integer score in [0,1000] →
// bucket into a named tier.
package scoring

import (
	"errors"
	"fmt"
	"math"
)

// weightSumTolerance bounds the floating-point slack allowed when
// checking that the three weights sum to 1.0.
const weightSumTolerance = 1e-9

// ErrInvalidParams is wrapped by every validation failure so callers can
// detect configuration errors with errors.Is.
var ErrInvalidParams = errors.New("invalid scoring params")

// Weights are the fixed per-feature weights. They must sum to 1.0.
type Weights struct {
	Size            float64 `yaml:"size"`
	Diversification float64 `yaml:"diversification"`
	Concentration   float64 `yaml:"concentration"`
}

// Thresholds are the normalization cut-offs for the three piecewise maps.
type Thresholds struct {
	MinPortfolioUSD  float64 `yaml:"minPortfolioUSD"`  // ≤ this → size safety 0
	MaxPortfolioUSD  float64 `yaml:"maxPortfolioUSD"`  // ≥ this → size safety 1
	MinAssets        int     `yaml:"minAssets"`        // ≤ this → diversification safety 0
	MaxAssets        int     `yaml:"maxAssets"`        // ≥ this → diversification safety 1
	LowConcentration float64 `yaml:"lowConcentration"` // ≤ this ratio → concentration safety 1
	MinAssetValueUSD float64 `yaml:"minAssetValueUSD"` // entries must exceed this to count as assets
}

// Params bundles weights and thresholds for one scoring run.
type Params struct {
	Weights    Weights    `yaml:"weights"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// DefaultParams returns the parameter set the scorer ships with:
// 35% portfolio size, 35% diversification, 30% concentration, with
// $100/$1M portfolio bounds, 1/15 asset bounds and a 10% concentration floor.
func DefaultParams() Params {
	return Params{
		Weights: Weights{
			Size:            0.35,
			Diversification: 0.35,
			Concentration:   0.30,
		},
		Thresholds: Thresholds{
			MinPortfolioUSD:  100,
			MaxPortfolioUSD:  1_000_000,
			MinAssets:        1,
			MaxAssets:        15,
			LowConcentration: 0.10,
			MinAssetValueUSD: 0,
		},
	}
}

// Validate checks the parameter set at startup. A violation here is fatal
// for the whole run, never a per-wallet condition.
func (p Params) Validate() error {
	sum := p.Weights.Size + p.Weights.Diversification + p.Weights.Concentration
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", ErrInvalidParams, sum)
	}
	if p.Weights.Size < 0 || p.Weights.Diversification < 0 || p.Weights.Concentration < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidParams)
	}
	if p.Thresholds.MinPortfolioUSD <= 0 {
		return fmt.Errorf("%w: minPortfolioUSD must be > 0 (log scale), got %v",
			ErrInvalidParams, p.Thresholds.MinPortfolioUSD)
	}
	if p.Thresholds.MaxPortfolioUSD <= p.Thresholds.MinPortfolioUSD {
		return fmt.Errorf("%w: portfolio thresholds inverted: min %v, max %v",
			ErrInvalidParams, p.Thresholds.MinPortfolioUSD, p.Thresholds.MaxPortfolioUSD)
	}
	if p.Thresholds.MaxAssets <= p.Thresholds.MinAssets {
		return fmt.Errorf("%w: asset thresholds inverted: min %d, max %d",
			ErrInvalidParams, p.Thresholds.MinAssets, p.Thresholds.MaxAssets)
	}
	if p.Thresholds.LowConcentration <= 0 || p.Thresholds.LowConcentration >= 1 {
		return fmt.Errorf("%w: lowConcentration must be in (0,1), got %v",
			ErrInvalidParams, p.Thresholds.LowConcentration)
	}
	if p.Thresholds.MinAssetValueUSD < 0 {
		return fmt.Errorf("%w: minAssetValueUSD must be ≥ 0, got %v",
			ErrInvalidParams, p.Thresholds.MinAssetValueUSD)
	}
	return nil
}
