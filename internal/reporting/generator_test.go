package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/storage/memory"
)

var reportClock = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

func seedResults(t *testing.T) *memory.CheckpointStore {
	t.Helper()
	ctx := context.Background()
	store := memory.NewCheckpointStore()

	results := []*domain.RiskResult{
		{Wallet: "0xsafe", Score: 120, Tier: domain.TierVeryLow, Status: domain.SnapshotComplete, ScoredAt: reportClock()},
		{Wallet: "0xmid", Score: 540, Tier: domain.TierMedium, Status: domain.SnapshotComplete, ScoredAt: reportClock()},
		{Wallet: "0xrisky", Score: 910, Tier: domain.TierVeryHigh, Status: domain.SnapshotPartial, FailedChains: []domain.ChainID{137}, ScoredAt: reportClock()},
		{Wallet: "0xdead", Status: domain.SnapshotFailed, FailedChains: []domain.ChainID{1, 137}, ScoredAt: reportClock()},
	}
	for _, r := range results {
		if err := store.Record(ctx, r.Wallet, r); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	return store
}

func TestGenerator_Generate(t *testing.T) {
	store := seedResults(t)
	gen := NewGenerator(store).WithClock(reportClock)

	report, err := gen.Generate(context.Background(), "run-test")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if report.Summary.TotalWallets != 4 {
		t.Errorf("expected 4 wallets, got %d", report.Summary.TotalWallets)
	}
	if report.Summary.Scored != 3 || report.Summary.Failed != 1 {
		t.Errorf("unexpected scored/failed split: %+v", report.Summary)
	}
	if len(report.Rows) != 3 || len(report.Failures) != 1 {
		t.Fatalf("expected 3 rows and 1 failure, got %d/%d", len(report.Rows), len(report.Failures))
	}

	// Riskiest first.
	if report.Rows[0].Wallet != "0xrisky" || report.Rows[2].Wallet != "0xsafe" {
		t.Errorf("rows not sorted by descending score: %v", report.Rows)
	}
	if report.Failures[0].Wallet != "0xdead" {
		t.Errorf("expected failure row for 0xdead, got %v", report.Failures)
	}

	if report.Summary.MedianScore != 540 {
		t.Errorf("expected median 540, got %v", report.Summary.MedianScore)
	}
	wantMean := float64(120+540+910) / 3
	if report.Summary.MeanScore != wantMean {
		t.Errorf("expected mean %v, got %v", wantMean, report.Summary.MeanScore)
	}
}

func TestGenerator_TierCountsCoverAllTiers(t *testing.T) {
	store := seedResults(t)
	gen := NewGenerator(store).WithClock(reportClock)

	report, err := gen.Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(report.Summary.TierCounts) != 5 {
		t.Fatalf("expected 5 tier buckets, got %d", len(report.Summary.TierCounts))
	}
	counts := make(map[domain.RiskTier]int)
	for _, tc := range report.Summary.TierCounts {
		counts[tc.Tier] = tc.Count
	}
	if counts[domain.TierVeryLow] != 1 || counts[domain.TierMedium] != 1 || counts[domain.TierVeryHigh] != 1 {
		t.Errorf("unexpected tier counts: %v", counts)
	}
	if counts[domain.TierLow] != 0 || counts[domain.TierHigh] != 0 {
		t.Errorf("expected zero counts for empty tiers, got %v", counts)
	}
}

func TestGenerator_EmptyStore(t *testing.T) {
	gen := NewGenerator(memory.NewCheckpointStore()).WithClock(reportClock)

	report, err := gen.Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.Summary.TotalWallets != 0 || len(report.Rows) != 0 {
		t.Errorf("expected empty report, got %+v", report.Summary)
	}
	if report.Summary.MeanScore != 0 || report.Summary.MedianScore != 0 {
		t.Errorf("expected zero stats for empty report")
	}
}

func TestRenderCSV(t *testing.T) {
	store := seedResults(t)
	gen := NewGenerator(store).WithClock(reportClock)

	report, err := gen.Generate(context.Background(), "run-test")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	csv := RenderCSV(report)
	lines := strings.Split(strings.TrimSpace(csv), "\n")

	// Header + 3 scored + 1 failed.
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), csv)
	}
	if lines[0] != "wallet,score,tier,status,failed_chains,scored_at" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0xrisky,910,VeryHigh,partial,137,") {
		t.Errorf("unexpected first row: %s", lines[1])
	}

	// Failed wallet has empty score and tier columns.
	failedLine := lines[4]
	if !strings.HasPrefix(failedLine, "0xdead,,,failed,1;137,") {
		t.Errorf("unexpected failure row: %s", failedLine)
	}
}

func TestRenderMarkdown(t *testing.T) {
	store := seedResults(t)
	gen := NewGenerator(store).WithClock(reportClock)

	report, err := gen.Generate(context.Background(), "run-test")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Wallet Risk Report",
		"Run: run-test",
		"| Total Wallets | 4 |",
		"| 0xrisky | 910 | VeryHigh | partial | 137 |",
		"## Unscored Wallets",
		"| 0xdead | 1;137 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	gen := NewGenerator(memory.NewCheckpointStore()).WithClock(reportClock)

	report, err := gen.Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "No wallets scored.") {
		t.Errorf("expected empty-state message:\n%s", md)
	}
	if strings.Contains(md, "Unscored Wallets") {
		t.Errorf("empty report should not have a failures section:\n%s", md)
	}
}
