package clickhouse

import (
	"context"
	"sort"

	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/storage"
)

// ResultArchiveStore is a ClickHouse implementation of storage.ResultArchive.
type ResultArchiveStore struct {
	conn *Conn
}

// NewResultArchiveStore creates a new ClickHouse result archive.
func NewResultArchiveStore(conn *Conn) *ResultArchiveStore {
	return &ResultArchiveStore{conn: conn}
}

// Append stores one result under the given run identifier.
func (s *ResultArchiveStore) Append(ctx context.Context, runID string, result *domain.RiskResult) error {
	if runID == "" || result == nil || result.Wallet.IsZero() {
		return storage.ErrInvalidInput
	}

	failed := make([]int64, len(result.FailedChains))
	for i, c := range result.FailedChains {
		failed[i] = int64(c)
	}

	return s.conn.Exec(ctx, `
		INSERT INTO risk_results (run_id, wallet, score, tier, status, failed_chains, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, result.Wallet.String(), int32(result.Score), result.Tier.String(),
		result.Status.String(), failed, result.ScoredAt)
}

// GetByWallet returns all archived results for a wallet, oldest first.
func (s *ResultArchiveStore) GetByWallet(ctx context.Context, wallet domain.WalletAddress) ([]*domain.RiskResult, error) {
	if wallet.IsZero() {
		return nil, storage.ErrInvalidInput
	}

	rows, err := s.conn.Query(ctx, `
		SELECT wallet, score, tier, status, failed_chains, scored_at
		FROM risk_results
		WHERE wallet = ?
		ORDER BY scored_at ASC
	`, wallet.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.RiskResult
	for rows.Next() {
		var (
			walletStr string
			score     int32
			tierStr   string
			statusStr string
			failed    []int64
			result    domain.RiskResult
		)
		if err := rows.Scan(&walletStr, &score, &tierStr, &statusStr, &failed, &result.ScoredAt); err != nil {
			return nil, err
		}
		result.Wallet = domain.WalletAddress(walletStr)
		result.Score = int(score)
		result.Tier = domain.RiskTier(tierStr)
		result.Status = domain.SnapshotStatus(statusStr)
		for _, c := range failed {
			result.FailedChains = append(result.FailedChains, domain.ChainID(c))
		}
		results = append(results, &result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ScoredAt.Before(results[j].ScoredAt)
	})
	return results, rows.Err()
}
