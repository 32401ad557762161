// Package file provides a checkpoint store backed by an append-only
// JSONL log. Each Record appends one line and syncs it to disk before
// returning; on load the last line per wallet wins, so a crash between
// runs can at worst cause a wallet to be re-scored, never lost.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/storage"
)

// CheckpointStore is a file-backed implementation of storage.CheckpointStore.
type CheckpointStore struct {
	mu   sync.Mutex
	path string
	file *os.File
	// seen mirrors the wallets present in the log so Has never touches disk.
	seen map[domain.WalletAddress]*domain.RiskResult
}

// checkpointLine is the on-disk representation of one record.
type checkpointLine struct {
	Wallet domain.WalletAddress `json:"wallet"`
	Result *domain.RiskResult   `json:"result"`
}

// Open opens (or creates) the checkpoint log at path and replays it into
// memory. The file stays open for appends until Close.
func Open(path string) (*CheckpointStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint log %s: %w", path, err)
	}

	s := &CheckpointStore{
		path: path,
		file: f,
		seen: make(map[domain.WalletAddress]*domain.RiskResult),
	}
	if err := s.replay(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// replay reads the whole log and keeps the last record per wallet.
// A truncated final line (crash mid-write) is tolerated and skipped.
func (s *CheckpointStore) replay() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek checkpoint log: %w", err)
	}

	scanner := bufio.NewScanner(s.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec checkpointLine
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.Wallet.IsZero() || rec.Result == nil {
			continue
		}
		s.seen[rec.Wallet] = rec.Result
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read checkpoint log %s: %w", s.path, err)
	}

	end, err := s.file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek checkpoint log: %w", err)
	}

	// Terminate a dangling partial line so the next append starts clean.
	if end > 0 {
		buf := make([]byte, 1)
		if _, err := s.file.ReadAt(buf, end-1); err == nil && buf[0] != '\n' {
			if _, err := s.file.Write([]byte{'\n'}); err != nil {
				return fmt.Errorf("terminate checkpoint log: %w", err)
			}
		}
	}
	return nil
}

// Has reports whether a result is recorded for the wallet.
func (s *CheckpointStore) Has(_ context.Context, wallet domain.WalletAddress) (bool, error) {
	if wallet.IsZero() {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[wallet]
	return ok, nil
}

// Record appends the result to the log and syncs it to disk. Writes are
// serialized under the store mutex so concurrent workers never interleave
// partial lines.
func (s *CheckpointStore) Record(_ context.Context, wallet domain.WalletAddress, result *domain.RiskResult) error {
	if wallet.IsZero() || result == nil {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(checkpointLine{Wallet: wallet, Result: result})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("append checkpoint: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync checkpoint log: %w", err)
	}

	copied := *result
	s.seen[wallet] = &copied
	return nil
}

// Load returns all recorded results keyed by wallet.
func (s *CheckpointStore) Load(_ context.Context) (map[domain.WalletAddress]*domain.RiskResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[domain.WalletAddress]*domain.RiskResult, len(s.seen))
	for wallet, result := range s.seen {
		copied := *result
		out[wallet] = &copied
	}
	return out, nil
}

// Close closes the underlying log file.
func (s *CheckpointStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
