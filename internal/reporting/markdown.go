package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Wallet Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Wallets | %d |\n", r.Summary.TotalWallets))
	sb.WriteString(fmt.Sprintf("| Scored | %d |\n", r.Summary.Scored))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", r.Summary.Failed))
	if r.Summary.Scored > 0 {
		sb.WriteString(fmt.Sprintf("| Mean Score | %.1f |\n", r.Summary.MeanScore))
		sb.WriteString(fmt.Sprintf("| Median Score | %.1f |\n", r.Summary.MedianScore))
	}
	sb.WriteString("\n")

	// Tier distribution
	sb.WriteString("## Tier Distribution\n\n")
	sb.WriteString("| Tier | Wallets |\n")
	sb.WriteString("|------|--------|\n")
	for _, tc := range r.Summary.TierCounts {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", tc.Tier, tc.Count))
	}
	sb.WriteString("\n")

	// Scored wallets
	sb.WriteString("## Scored Wallets\n\n")
	if len(r.Rows) > 0 {
		sb.WriteString("| Wallet | Score | Tier | Status | Failed Chains |\n")
		sb.WriteString("|--------|-------|------|--------|---------------|\n")
		for _, row := range r.Rows {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
				row.Wallet, row.Score, row.Tier, row.Status, joinChains(row.FailedChains)))
		}
	} else {
		sb.WriteString("No wallets scored.\n")
	}
	sb.WriteString("\n")

	// Failures
	if len(r.Failures) > 0 {
		sb.WriteString("## Unscored Wallets\n\n")
		sb.WriteString("| Wallet | Failed Chains |\n")
		sb.WriteString("|--------|---------------|\n")
		for _, row := range r.Failures {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", row.Wallet, joinChains(row.FailedChains)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
