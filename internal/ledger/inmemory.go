package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryRecorder struct {
	mu      sync.RWMutex
	byWallet map[string][]Entry
}

// NewInMemory creates a concurrency-safe in-memory recorder useful for unit
// tests and development without a database.
func NewInMemory() Recorder {
	return &inMemoryRecorder{byWallet: make(map[string][]Entry)}
}

func (r *inMemoryRecorder) Append(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.byWallet[entry.WalletID] = append(r.byWallet[entry.WalletID], entry)
	return nil
}

// History returns entries newest-first.
func (r *inMemoryRecorder) History(_ context.Context, walletID string, limit int) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.byWallet[walletID]
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}

	out := make([]Entry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}
