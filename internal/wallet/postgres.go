package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rechargehub/rechargehub/internal/ledger"
)

// PostgresStore persists wallets in PostgreSQL. Every mutation runs in a
// single transaction holding a row lock on the wallet (SELECT ... FOR
// UPDATE), and the matching ledger entry is written inside the same
// transaction so balance and audit trail cannot diverge.
type PostgresStore struct {
	db       *pgxpool.Pool
	recorder *ledger.PostgresRecorder
}

// NewPostgresStore builds a wallet store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool, recorder *ledger.PostgresRecorder) *PostgresStore {
	return &PostgresStore{db: db, recorder: recorder}
}

func (s *PostgresStore) Create(ctx context.Context, userID string) (Wallet, error) {
	_, err := s.db.Exec(ctx, `INSERT INTO wallets (id, user_id, balance, locked_balance, updated_at)
        VALUES ($1, $2, 0, 0, $3) ON CONFLICT (user_id) DO NOTHING`, uuid.NewString(), userID, time.Now().UTC())
	if err != nil {
		return Wallet{}, err
	}
	return s.Get(ctx, userID)
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT id::text, user_id::text, balance, locked_balance, updated_at
        FROM wallets WHERE user_id = $1`, userID)
	var w Wallet
	if err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.LockedBalance, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.UpdatedAt = w.UpdatedAt.UTC()
	return w, nil
}

func (s *PostgresStore) Lock(ctx context.Context, userID string, amount int64, transactionID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.mutate(ctx, userID, func(tx pgx.Tx, w *Wallet) (ledger.Entry, error) {
		if w.Available() < amount {
			return ledger.Entry{}, ErrInsufficientFunds
		}
		w.LockedBalance += amount
		return ledger.Entry{
			TransactionID: transactionID,
			Type:          ledger.TypeLock,
			Amount:        amount,
			Description:   fmt.Sprintf("funds locked for transaction %s", transactionID),
		}, nil
	})
}

func (s *PostgresStore) ConfirmDebit(ctx context.Context, userID string, amount int64, transactionID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.mutate(ctx, userID, func(tx pgx.Tx, w *Wallet) (ledger.Entry, error) {
		if err := lockIsHeld(ctx, tx, transactionID); err != nil {
			return ledger.Entry{}, err
		}
		w.Balance -= amount
		w.LockedBalance -= amount
		if w.LockedBalance < 0 {
			w.LockedBalance = 0
		}
		return ledger.Entry{
			TransactionID: transactionID,
			Type:          ledger.TypeDebit,
			Amount:        amount,
			Description:   fmt.Sprintf("debited for transaction %s", transactionID),
		}, nil
	})
}

func (s *PostgresStore) Refund(ctx context.Context, userID string, amount int64, transactionID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.mutate(ctx, userID, func(tx pgx.Tx, w *Wallet) (ledger.Entry, error) {
		if err := lockIsHeld(ctx, tx, transactionID); err != nil {
			return ledger.Entry{}, err
		}
		w.LockedBalance -= amount
		if w.LockedBalance < 0 {
			w.LockedBalance = 0
		}
		return ledger.Entry{
			TransactionID: transactionID,
			Type:          ledger.TypeUnlock,
			Amount:        amount,
			Description:   fmt.Sprintf("funds released for failed transaction %s", transactionID),
		}, nil
	})
}

func (s *PostgresStore) Credit(ctx context.Context, userID string, amount int64, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.mutate(ctx, userID, func(tx pgx.Tx, w *Wallet) (ledger.Entry, error) {
		w.Balance += amount
		return ledger.Entry{
			Type:        ledger.TypeCredit,
			Amount:      amount,
			Description: description,
		}, nil
	})
}

func (s *PostgresStore) History(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	w, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.recorder.History(ctx, w.ID, limit)
}

// mutate runs one read-modify-write under a wallet row lock. The apply
// callback adjusts the in-memory copy and describes the ledger entry; the
// balance update and the entry commit together.
func (s *PostgresStore) mutate(ctx context.Context, userID string, apply func(pgx.Tx, *Wallet) (ledger.Entry, error)) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT id::text, user_id::text, balance, locked_balance, updated_at
        FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	var w Wallet
	if err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.LockedBalance, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	entry, err := apply(tx, &w)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1, locked_balance = $2, updated_at = $3
        WHERE id = $4`, w.Balance, w.LockedBalance, time.Now().UTC(), w.ID); err != nil {
		return err
	}

	entry.WalletID = w.ID
	entry.BalanceAfter = w.Balance
	if err := s.recorder.AppendIn(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// lockIsHeld verifies a LOCK entry exists for the transaction and that its
// reservation has not already been released by a DEBIT or UNLOCK.
func lockIsHeld(ctx context.Context, tx pgx.Tx, transactionID string) error {
	var locks, released int
	err := tx.QueryRow(ctx, `SELECT
        COUNT(*) FILTER (WHERE type = 'LOCK'),
        COUNT(*) FILTER (WHERE type IN ('DEBIT', 'UNLOCK'))
        FROM wallet_ledger WHERE transaction_id = $1`, transactionID).Scan(&locks, &released)
	if err != nil {
		return err
	}
	if locks == 0 || released > 0 {
		return ErrAlreadySettled
	}
	return nil
}
