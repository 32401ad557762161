package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wallet-risk-scorer/internal/domain"
)

// RenderCSV renders the report rows as CSV. Failed wallets appear with an
// empty score and tier so downstream consumers never mistake them for a
// zero-risk result.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("wallet,score,tier,status,failed_chains,scored_at\n")

	for _, row := range r.Rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%s,%s\n",
			row.Wallet,
			row.Score,
			row.Tier,
			row.Status,
			joinChains(row.FailedChains),
			row.ScoredAt.UTC().Format(time.RFC3339),
		))
	}
	for _, row := range r.Failures {
		sb.WriteString(fmt.Sprintf("%s,,,failed,%s,%s\n",
			row.Wallet,
			joinChains(row.FailedChains),
			row.ScoredAt.UTC().Format(time.RFC3339),
		))
	}

	return sb.String()
}

// joinChains renders chain IDs semicolon-separated to keep the CSV
// single-delimiter.
func joinChains(chains []domain.ChainID) string {
	if len(chains) == 0 {
		return ""
	}
	parts := make([]string, len(chains))
	for i, c := range chains {
		parts[i] = strconv.FormatInt(int64(c), 10)
	}
	return strings.Join(parts, ";")
}
