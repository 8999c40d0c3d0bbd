package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder persists ledger entries in the wallet_ledger table.
type PostgresRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresRecorder constructs a Postgres-backed recorder.
func NewPostgresRecorder(db *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

const insertEntry = `INSERT INTO wallet_ledger (id, wallet_id, transaction_id, type, amount, balance_after, description, created_at)
    VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)`

// Append inserts one entry using the pool directly.
func (r *PostgresRecorder) Append(ctx context.Context, entry Entry) error {
	_, err := r.db.Exec(ctx, insertEntry, args(entry)...)
	return err
}

// AppendIn inserts one entry inside an open transaction so the balance
// mutation and its audit record commit or roll back together.
func (r *PostgresRecorder) AppendIn(ctx context.Context, tx pgx.Tx, entry Entry) error {
	_, err := tx.Exec(ctx, insertEntry, args(entry)...)
	return err
}

func args(entry Entry) []any {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return []any{entry.ID, entry.WalletID, entry.TransactionID, string(entry.Type),
		entry.Amount, entry.BalanceAfter, entry.Description, entry.CreatedAt}
}

// History returns entries for a wallet ordered newest-first.
func (r *PostgresRecorder) History(ctx context.Context, walletID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT id::text, wallet_id::text, COALESCE(transaction_id::text, ''), type, amount, balance_after, description, created_at
        FROM wallet_ledger WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.WalletID, &e.TransactionID, &kind, &e.Amount, &e.BalanceAfter, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EntryType(kind)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
