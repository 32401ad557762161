package reporting

import (
	"context"
	"sort"
	"time"

	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/storage"
)

// tierOrder fixes the tier sequence used in summaries.
var tierOrder = []domain.RiskTier{
	domain.TierVeryLow,
	domain.TierLow,
	domain.TierMedium,
	domain.TierHigh,
	domain.TierVeryHigh,
}

// Generator produces reports from checkpointed results.
type Generator struct {
	checkpoints storage.CheckpointStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(checkpoints storage.CheckpointStore) *Generator {
	return &Generator{
		checkpoints: checkpoints,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report over every checkpointed result.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	recorded, err := g.checkpoints.Load(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.RiskResult, 0, len(recorded))
	for _, r := range recorded {
		results = append(results, r)
	}
	return g.Build(results, runID), nil
}

// Build assembles a report from an in-memory result set. Scored rows are
// ordered riskiest first; ties break on wallet address so output is stable.
func (g *Generator) Build(results []*domain.RiskResult, runID string) *Report {
	report := &Report{
		GeneratedAt: g.now(),
		RunID:       runID,
	}

	counts := make(map[domain.RiskTier]int, len(tierOrder))
	var scores []int

	for _, r := range results {
		if r == nil {
			continue
		}
		report.Summary.TotalWallets++
		if !r.Scored() {
			report.Summary.Failed++
			report.Failures = append(report.Failures, FailureRow{
				Wallet:       r.Wallet,
				FailedChains: r.FailedChains,
				ScoredAt:     r.ScoredAt,
			})
			continue
		}
		report.Summary.Scored++
		counts[r.Tier]++
		scores = append(scores, r.Score)
		report.Rows = append(report.Rows, ResultRow{
			Wallet:       r.Wallet,
			Score:        r.Score,
			Tier:         r.Tier,
			Status:       r.Status,
			FailedChains: r.FailedChains,
			ScoredAt:     r.ScoredAt,
		})
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].Score != report.Rows[j].Score {
			return report.Rows[i].Score > report.Rows[j].Score
		}
		return report.Rows[i].Wallet < report.Rows[j].Wallet
	})
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Wallet < report.Failures[j].Wallet
	})

	for _, tier := range tierOrder {
		report.Summary.TierCounts = append(report.Summary.TierCounts, TierCount{
			Tier:  tier,
			Count: counts[tier],
		})
	}
	report.Summary.MeanScore = mean(scores)
	report.Summary.MedianScore = median(scores)

	return report
}

func mean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

func median(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := make([]int, len(scores))
	copy(sorted, scores)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return float64(sorted[mid-1]+sorted[mid]) / 2
	}
	return float64(sorted[mid])
}
