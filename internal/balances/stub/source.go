// Package stub provides an in-memory balance source for tests and
// offline runs.
package stub

import (
	"context"
	"sync"

	"wallet-risk-scorer/internal/balances"
	"wallet-risk-scorer/internal/domain"
)

type chainKey struct {
	chain  domain.ChainID
	wallet domain.WalletAddress
}

// Source implements collector.BalanceSource from fixed data.
type Source struct {
	mu      sync.Mutex
	entries map[chainKey][]domain.ChainBalanceEntry
	errs    map[chainKey]error
	calls   map[chainKey]int
}

// NewSource creates an empty stub source.
func NewSource() *Source {
	return &Source{
		entries: make(map[chainKey][]domain.ChainBalanceEntry),
		errs:    make(map[chainKey]error),
		calls:   make(map[chainKey]int),
	}
}

// SetBalances fixes the entries returned for (chain, wallet).
func (s *Source) SetBalances(chain domain.ChainID, wallet domain.WalletAddress, entries []domain.ChainBalanceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chainKey{chain, wallet}] = entries
}

// SetError makes (chain, wallet) fail with the given error.
func (s *Source) SetError(chain domain.ChainID, wallet domain.WalletAddress, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[chainKey{chain, wallet}] = err
}

// FailChain makes every wallet on the chain fail with a transient
// retries-exhausted error.
func (s *Source) FailChain(chain domain.ChainID, wallet domain.WalletAddress) {
	s.SetError(chain, wallet, &balances.FetchError{
		Kind:   balances.KindTransient,
		Chain:  chain,
		Wallet: wallet,
	})
}

// Calls returns how many times (chain, wallet) was queried.
func (s *Source) Calls(chain domain.ChainID, wallet domain.WalletAddress) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[chainKey{chain, wallet}]
}

// TotalCalls returns the total number of queries across all keys.
func (s *Source) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// FetchChainBalances returns the configured entries or error for the key.
func (s *Source) FetchChainBalances(_ context.Context, chain domain.ChainID, wallet domain.WalletAddress) ([]domain.ChainBalanceEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chainKey{chain, wallet}
	s.calls[key]++

	if err, ok := s.errs[key]; ok {
		return nil, err
	}
	return s.entries[key], nil
}
