package txn

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no transaction exists for the id.
var ErrNotFound = errors.New("transaction not found")

// Kind distinguishes recharges from bill payments.
type Kind string

const (
	KindRecharge    Kind = "RECHARGE"
	KindBillPayment Kind = "BILL_PAYMENT"
)

// ServiceType names the product being recharged or paid.
type ServiceType string

const (
	ServiceMobilePrepaid  ServiceType = "MOBILE_PREPAID"
	ServiceMobilePostpaid ServiceType = "MOBILE_POSTPAID"
	ServiceDTH            ServiceType = "DTH"
)

// Status is a node in the transaction state machine:
//
//	VALIDATING -> LOCKED -> SETTLING -> SUCCESS | FAILED | PENDING
//	PENDING -> SETTLING -> SUCCESS | REFUNDED (via reconciliation)
//
// SUCCESS, FAILED and REFUNDED are terminal.
type Status string

const (
	StatusValidating Status = "VALIDATING"
	StatusLocked     Status = "LOCKED"
	StatusSettling   Status = "SETTLING"
	StatusSuccess    Status = "SUCCESS"
	StatusPending    Status = "PENDING"
	StatusFailed     Status = "FAILED"
	StatusRefunded   Status = "REFUNDED"
)

// Terminal reports whether no further transition is legal.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// Transaction records one recharge or bill-payment attempt. Rows are never
// deleted; they only move through the state machine.
type Transaction struct {
	ID                    string
	UserID                string
	Kind                  Kind
	ServiceType           ServiceType
	Amount                int64
	Status                Status
	OperatorID            string
	Identifier            string
	ReferenceID           string
	ProviderTransactionID string
	Metadata              map[string]string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Update mutates the fields a state transition may touch. Empty strings
// leave the stored value unchanged.
type Update struct {
	Status                Status
	ProviderTransactionID string
	Message               string
}

// Store persists transactions. Only the orchestrator writes to it.
type Store interface {
	Create(ctx context.Context, t Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)

	// SetStatus applies an unconditional transition.
	SetStatus(ctx context.Context, id string, u Update) error

	// Transition is an atomic check-and-set: it moves the transaction from
	// `from` to `to` and reports false if the current status differed, so
	// concurrent reconcilers cannot both win.
	Transition(ctx context.Context, id string, from, to Status) (bool, error)

	ListByUser(ctx context.Context, userID string, serviceType ServiceType, limit int) ([]Transaction, error)

	// ListPending returns PENDING transactions last updated before the
	// cutoff, oldest first.
	ListPending(ctx context.Context, updatedBefore time.Time, limit int) ([]Transaction, error)
}
