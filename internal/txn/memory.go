package txn

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps transactions in process memory for tests and
// database-less development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Transaction
}

// NewMemoryStore constructs an empty in-memory transaction store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Transaction)}
}

func (s *MemoryStore) Create(_ context.Context, t Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Metadata == nil {
		t.Metadata = make(map[string]string)
	}
	s.rows[t.ID] = t
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.rows[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return clone(t), nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id string, u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	apply(&t, u)
	s.rows[id] = t
	return nil
}

func (s *MemoryStore) Transition(_ context.Context, id string, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.rows[id]
	if !ok {
		return false, ErrNotFound
	}
	if t.Status != from {
		return false, nil
	}
	t.Status = to
	t.UpdatedAt = time.Now().UTC()
	s.rows[id] = t
	return true, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, serviceType ServiceType, limit int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Transaction
	for _, t := range s.rows {
		if t.UserID != userID {
			continue
		}
		if serviceType != "" && t.ServiceType != serviceType {
			continue
		}
		out = append(out, clone(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListPending(_ context.Context, updatedBefore time.Time, limit int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Transaction
	for _, t := range s.rows {
		if t.Status != StatusPending || !t.UpdatedAt.Before(updatedBefore) {
			continue
		}
		out = append(out, clone(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func apply(t *Transaction, u Update) {
	t.Status = u.Status
	if u.ProviderTransactionID != "" {
		t.ProviderTransactionID = u.ProviderTransactionID
	}
	if u.Message != "" {
		if t.Metadata == nil {
			t.Metadata = make(map[string]string)
		}
		t.Metadata["message"] = u.Message
	}
	t.UpdatedAt = time.Now().UTC()
}

func clone(t Transaction) Transaction {
	md := make(map[string]string, len(t.Metadata))
	for k, v := range t.Metadata {
		md[k] = v
	}
	t.Metadata = md
	return t
}
