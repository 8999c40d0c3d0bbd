package gateway

import (
	"context"
	"errors"
	"time"
)

// Status is the operator network's verdict on a recharge or bill operation.
type Status string

const (
	// StatusSuccess means the operation completed on the operator network.
	StatusSuccess Status = "SUCCESS"
	// StatusPending means the operator accepted the request but has not
	// confirmed the outcome yet.
	StatusPending Status = "PENDING"
	// StatusFailed means the operator explicitly rejected the operation.
	StatusFailed Status = "FAILED"
)

var (
	// ErrTimeout indicates the provider did not answer within the deadline;
	// the external effect is unknown.
	ErrTimeout = errors.New("gateway timeout")

	// ErrUnavailable indicates a transport fault with uncertain external
	// effect (connection reset, 5xx, malformed reply).
	ErrUnavailable = errors.New("gateway unavailable")
)

// Request carries one recharge or bill-payment instruction. IdempotencyKey
// is the internal transaction id; the provider must not apply the same key
// twice.
type Request struct {
	Identifier     string
	OperatorID     string
	CircleID       string
	Amount         int64
	IdempotencyKey string
}

// Result is the provider's answer to Call or CheckStatus.
type Result struct {
	Status            Status
	ProviderReference string
	Message           string
}

// Bill describes a fetched postpaid bill.
type Bill struct {
	BillNumber   string
	BillDate     time.Time
	DueDate      time.Time
	Amount       int64
	CustomerName string
}

// Gateway connects to the external recharge/billing network. Implementations
// must honor the context deadline; callers treat any returned error as an
// uncertain outcome, never as a confirmed failure.
type Gateway interface {
	Call(ctx context.Context, req Request) (Result, error)
	FetchBill(ctx context.Context, operatorID, identifier string) (Bill, error)
	CheckStatus(ctx context.Context, idempotencyKey string) (Result, error)
}
