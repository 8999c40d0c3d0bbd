package wallet

import (
	"context"
	"errors"

	"github.com/rechargehub/rechargehub/internal/ledger"
)

var (
	// ErrNotFound indicates no wallet exists for the user.
	ErrNotFound = errors.New("wallet not found")

	// ErrInsufficientFunds occurs when the available balance cannot cover a
	// requested lock.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadySettled guards against releasing the same lock twice: the
	// named transaction's reservation was already debited or unlocked.
	ErrAlreadySettled = errors.New("transaction already settled")

	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Store is the only component allowed to mutate wallet balances. Every
// mutating operation is a read-modify-write serialized per wallet, and
// appends a matching ledger entry through the recorder.
type Store interface {
	// Create provisions an empty wallet for the user if none exists.
	Create(ctx context.Context, userID string) (Wallet, error)

	// Get returns the wallet including its current balances.
	Get(ctx context.Context, userID string) (Wallet, error)

	// Lock reserves amount against a pending transaction, raising the
	// locked balance without touching the balance itself.
	Lock(ctx context.Context, userID string, amount int64, transactionID string) error

	// ConfirmDebit resolves a lock into a spend: balance and locked balance
	// both drop by amount. Repeat calls for a settled transaction return
	// ErrAlreadySettled without mutating anything.
	ConfirmDebit(ctx context.Context, userID string, amount int64, transactionID string) error

	// Refund releases a lock without spending: locked balance drops by
	// amount, balance is untouched.
	Refund(ctx context.Context, userID string, amount int64, transactionID string) error

	// Credit adds funds with no transaction attached (administrative top-up).
	Credit(ctx context.Context, userID string, amount int64, description string) error

	// History returns the wallet's ledger entries newest-first.
	History(ctx context.Context, userID string, limit int) ([]ledger.Entry, error)
}
