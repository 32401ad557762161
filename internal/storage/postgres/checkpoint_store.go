// Package postgres provides the PostgreSQL-backed checkpoint store used
// for durable, multi-process-safe resume state.
package postgres

import (
	"context"

	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/storage"
)

// CheckpointStore is a PostgreSQL implementation of storage.CheckpointStore.
// One row per wallet in wallet_checkpoints; Record upserts, so re-scoring a
// wallet replaces its previous result. Durability comes from Postgres
// itself: when Exec returns the row is committed.
type CheckpointStore struct {
	pool *Pool
}

// NewCheckpointStore creates a new PostgreSQL checkpoint store.
func NewCheckpointStore(pool *Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

// Has reports whether a result is recorded for the wallet.
func (s *CheckpointStore) Has(ctx context.Context, wallet domain.WalletAddress) (bool, error) {
	if wallet.IsZero() {
		return false, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM wallet_checkpoints WHERE wallet = $1)
	`, wallet.String())

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Record persists the result for a wallet, replacing any earlier record.
func (s *CheckpointStore) Record(ctx context.Context, wallet domain.WalletAddress, result *domain.RiskResult) error {
	if wallet.IsZero() || result == nil {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallet_checkpoints (wallet, score, tier, status, failed_chains, scored_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (wallet) DO UPDATE
		SET score = EXCLUDED.score,
		    tier = EXCLUDED.tier,
		    status = EXCLUDED.status,
		    failed_chains = EXCLUDED.failed_chains,
		    scored_at = EXCLUDED.scored_at,
		    updated_at = NOW()
	`, wallet.String(), result.Score, result.Tier.String(), result.Status.String(),
		chainsToInt64(result.FailedChains), result.ScoredAt)

	return err
}

// Load returns all recorded results keyed by wallet.
func (s *CheckpointStore) Load(ctx context.Context) (map[domain.WalletAddress]*domain.RiskResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT wallet, score, tier, status, failed_chains, scored_at
		FROM wallet_checkpoints
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.WalletAddress]*domain.RiskResult)
	for rows.Next() {
		var (
			walletStr string
			tierStr   string
			statusStr string
			failed    []int64
			result    domain.RiskResult
		)
		if err := rows.Scan(&walletStr, &result.Score, &tierStr, &statusStr, &failed, &result.ScoredAt); err != nil {
			return nil, err
		}
		result.Wallet = domain.WalletAddress(walletStr)
		result.Tier = domain.RiskTier(tierStr)
		result.Status = domain.SnapshotStatus(statusStr)
		result.FailedChains = chainsFromInt64(failed)
		out[result.Wallet] = &result
	}
	return out, rows.Err()
}

// chainsToInt64 always returns a non-nil slice: the failed_chains column
// is NOT NULL, and pgx encodes a nil []int64 as SQL NULL.
func chainsToInt64(chains []domain.ChainID) []int64 {
	out := make([]int64, len(chains))
	for i, c := range chains {
		out[i] = int64(c)
	}
	return out
}

func chainsFromInt64(raw []int64) []domain.ChainID {
	if len(raw) == 0 {
		return nil
	}
	out := make([]domain.ChainID, len(raw))
	for i, c := range raw {
		out[i] = domain.ChainID(c)
	}
	return out
}
