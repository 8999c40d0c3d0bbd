package txn

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists transactions in PostgreSQL. The reconciliation
// check-and-set relies on a conditional UPDATE so two concurrent callers
// cannot both move a row out of PENDING.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a transaction store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `id::text, user_id::text, kind, service_type, amount, status, operator_id,
    identifier, reference_id, provider_transaction_id, metadata, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, t Transaction) error {
	if t.Metadata == nil {
		t.Metadata = make(map[string]string)
	}
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	_, err = s.db.Exec(ctx, `INSERT INTO transactions
        (id, user_id, kind, service_type, amount, status, operator_id, identifier, reference_id, provider_transaction_id, metadata, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.UserID, string(t.Kind), string(t.ServiceType), t.Amount, string(t.Status),
		t.OperatorID, t.Identifier, t.ReferenceID, t.ProviderTransactionID, metadata, t.CreatedAt, now)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Transaction, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM transactions WHERE id = $1`, id)
	t, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id string, u Update) error {
	tag, err := s.db.Exec(ctx, `UPDATE transactions SET
        status = $1,
        provider_transaction_id = CASE WHEN $2 <> '' THEN $2 ELSE provider_transaction_id END,
        metadata = CASE WHEN $3 <> '' THEN metadata || jsonb_build_object('message', $3::text) ELSE metadata END,
        updated_at = $4
        WHERE id = $5`,
		string(u.Status), u.ProviderTransactionID, u.Message, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Transition(ctx context.Context, id string, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE transactions SET status = $1, updated_at = $2
        WHERE id = $3 AND status = $4`, string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, serviceType ServiceType, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}
	if serviceType != "" {
		query += ` AND service_type = $2`
		args = append(args, string(serviceType))
	}
	query += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit)

	return s.list(ctx, query, args...)
}

func (s *PostgresStore) ListPending(ctx context.Context, updatedBefore time.Time, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.list(ctx, `SELECT `+selectColumns+` FROM transactions
        WHERE status = 'PENDING' AND updated_at < $1
        ORDER BY updated_at ASC LIMIT `+strconv.Itoa(limit), updatedBefore)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scan(row pgx.Row) (Transaction, error) {
	var t Transaction
	var kind, serviceType, status string
	var metadata []byte
	if err := row.Scan(&t.ID, &t.UserID, &kind, &serviceType, &t.Amount, &status, &t.OperatorID,
		&t.Identifier, &t.ReferenceID, &t.ProviderTransactionID, &metadata, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	t.Kind = Kind(kind)
	t.ServiceType = ServiceType(serviceType)
	t.Status = Status(status)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return Transaction{}, err
		}
	}
	return t, nil
}

