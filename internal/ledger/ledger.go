package ledger

import (
	"context"
	"time"
)

// EntryType classifies a balance-affecting event.
type EntryType string

const (
	// TypeCredit increases the wallet balance (top-ups, adjustments).
	TypeCredit EntryType = "CREDIT"
	// TypeDebit decreases the balance after a successful settlement.
	TypeDebit EntryType = "DEBIT"
	// TypeLock reserves funds against a pending operation; balance unchanged.
	TypeLock EntryType = "LOCK"
	// TypeUnlock releases a reservation without spending it.
	TypeUnlock EntryType = "UNLOCK"
	// TypeRefund returns previously debited funds to the balance.
	TypeRefund EntryType = "REFUND"
)

// Entry is one immutable audit record. TransactionID is empty for
// administrative credits that have no transaction attached.
type Entry struct {
	ID            string
	WalletID      string
	TransactionID string
	Type          EntryType
	Amount        int64
	BalanceAfter  int64
	Description   string
	CreatedAt     time.Time
}

// Recorder persists the append-only audit trail. It is invoked by the
// wallet store only; there is no update or delete operation.
type Recorder interface {
	Append(ctx context.Context, entry Entry) error
	History(ctx context.Context, walletID string, limit int) ([]Entry, error)
}

// Replay folds entries in creation order (oldest first) and returns the
// balance and locked balance they reproduce. Used to verify that the audit
// trail matches the live wallet row.
func Replay(entries []Entry) (balance, locked int64) {
	for _, e := range entries {
		switch e.Type {
		case TypeCredit, TypeRefund:
			balance += e.Amount
		case TypeDebit:
			balance -= e.Amount
			locked -= e.Amount
		case TypeLock:
			locked += e.Amount
		case TypeUnlock:
			locked -= e.Amount
		}
		if locked < 0 {
			locked = 0
		}
	}
	return balance, locked
}
