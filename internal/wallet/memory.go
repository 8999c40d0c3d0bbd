package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rechargehub/rechargehub/internal/ledger"
)

// MemoryStore keeps wallets in process memory. Each wallet carries its own
// mutex held across the full read-modify-write, so operations on one wallet
// serialize while different wallets proceed independently. Used in tests and
// for development without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	wallets  map[string]*memWallet
	recorder ledger.Recorder
}

type memWallet struct {
	mu sync.Mutex
	w  Wallet
	// active tracks transaction ids with an outstanding lock; settled
	// tracks ids whose lock was already released, to reject double
	// settlement.
	active  map[string]int64
	settled map[string]bool
}

// NewMemoryStore constructs an in-memory wallet store writing audit entries
// to the provided recorder.
func NewMemoryStore(recorder ledger.Recorder) *MemoryStore {
	return &MemoryStore{wallets: make(map[string]*memWallet), recorder: recorder}
}

func (s *MemoryStore) Create(_ context.Context, userID string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.wallets[userID]; ok {
		return existing.w, nil
	}
	mw := &memWallet{
		w: Wallet{
			ID:        uuid.NewString(),
			UserID:    userID,
			UpdatedAt: time.Now().UTC(),
		},
		active:  make(map[string]int64),
		settled: make(map[string]bool),
	}
	s.wallets[userID] = mw
	return mw.w, nil
}

func (s *MemoryStore) Get(_ context.Context, userID string) (Wallet, error) {
	mw, err := s.lookup(userID)
	if err != nil {
		return Wallet{}, err
	}
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.w, nil
}

func (s *MemoryStore) Lock(ctx context.Context, userID string, amount int64, transactionID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	mw, err := s.lookup(userID)
	if err != nil {
		return err
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	if mw.w.Available() < amount {
		return ErrInsufficientFunds
	}
	mw.w.LockedBalance += amount
	mw.w.UpdatedAt = time.Now().UTC()
	mw.active[transactionID] = amount

	return s.recorder.Append(ctx, ledger.Entry{
		WalletID:      mw.w.ID,
		TransactionID: transactionID,
		Type:          ledger.TypeLock,
		Amount:        amount,
		BalanceAfter:  mw.w.Balance,
		Description:   fmt.Sprintf("funds locked for transaction %s", transactionID),
	})
}

func (s *MemoryStore) ConfirmDebit(ctx context.Context, userID string, amount int64, transactionID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	mw, err := s.lookup(userID)
	if err != nil {
		return err
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	if _, held := mw.active[transactionID]; !held {
		return ErrAlreadySettled
	}
	mw.w.Balance -= amount
	mw.w.LockedBalance -= amount
	if mw.w.LockedBalance < 0 {
		mw.w.LockedBalance = 0
	}
	mw.w.UpdatedAt = time.Now().UTC()
	delete(mw.active, transactionID)
	mw.settled[transactionID] = true

	return s.recorder.Append(ctx, ledger.Entry{
		WalletID:      mw.w.ID,
		TransactionID: transactionID,
		Type:          ledger.TypeDebit,
		Amount:        amount,
		BalanceAfter:  mw.w.Balance,
		Description:   fmt.Sprintf("debited for transaction %s", transactionID),
	})
}

func (s *MemoryStore) Refund(ctx context.Context, userID string, amount int64, transactionID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	mw, err := s.lookup(userID)
	if err != nil {
		return err
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	if _, held := mw.active[transactionID]; !held {
		return ErrAlreadySettled
	}
	mw.w.LockedBalance -= amount
	if mw.w.LockedBalance < 0 {
		mw.w.LockedBalance = 0
	}
	mw.w.UpdatedAt = time.Now().UTC()
	delete(mw.active, transactionID)
	mw.settled[transactionID] = true

	return s.recorder.Append(ctx, ledger.Entry{
		WalletID:      mw.w.ID,
		TransactionID: transactionID,
		Type:          ledger.TypeUnlock,
		Amount:        amount,
		BalanceAfter:  mw.w.Balance,
		Description:   fmt.Sprintf("funds released for failed transaction %s", transactionID),
	})
}

func (s *MemoryStore) Credit(ctx context.Context, userID string, amount int64, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	mw, err := s.lookup(userID)
	if err != nil {
		return err
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.w.Balance += amount
	mw.w.UpdatedAt = time.Now().UTC()

	return s.recorder.Append(ctx, ledger.Entry{
		WalletID:     mw.w.ID,
		Type:         ledger.TypeCredit,
		Amount:       amount,
		BalanceAfter: mw.w.Balance,
		Description:  description,
	})
}

func (s *MemoryStore) History(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	mw, err := s.lookup(userID)
	if err != nil {
		return nil, err
	}
	return s.recorder.History(ctx, mw.w.ID, limit)
}

func (s *MemoryStore) lookup(userID string) (*memWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mw, ok := s.wallets[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return mw, nil
}
