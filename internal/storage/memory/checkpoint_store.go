// Package memory provides in-memory storage implementations for tests
// and dry runs.
package memory

import (
	"context"
	"sync"

	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/storage"
)

// CheckpointStore is an in-memory implementation of storage.CheckpointStore.
type CheckpointStore struct {
	mu      sync.RWMutex
	results map[domain.WalletAddress]*domain.RiskResult
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		results: make(map[domain.WalletAddress]*domain.RiskResult),
	}
}

// Has reports whether a result is recorded for the wallet.
func (s *CheckpointStore) Has(_ context.Context, wallet domain.WalletAddress) (bool, error) {
	if wallet.IsZero() {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.results[wallet]
	return ok, nil
}

// Record persists the result for a wallet, replacing any earlier record.
func (s *CheckpointStore) Record(_ context.Context, wallet domain.WalletAddress, result *domain.RiskResult) error {
	if wallet.IsZero() || result == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *result
	s.results[wallet] = &copied
	return nil
}

// Load returns a copy of all recorded results.
func (s *CheckpointStore) Load(_ context.Context) (map[domain.WalletAddress]*domain.RiskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.WalletAddress]*domain.RiskResult, len(s.results))
	for wallet, result := range s.results {
		copied := *result
		out[wallet] = &copied
	}
	return out, nil
}
