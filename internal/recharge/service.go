package recharge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rechargehub/rechargehub/internal/gateway"
	"github.com/rechargehub/rechargehub/internal/metrics"
	"github.com/rechargehub/rechargehub/internal/notification"
	"github.com/rechargehub/rechargehub/internal/txn"
	"github.com/rechargehub/rechargehub/internal/wallet"
)

var (
	// ErrInvalidRequest indicates a malformed submission; nothing was
	// created or locked.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrLockFailed indicates the balance check passed but the lock lost a
	// race against a concurrent operation. The transaction is terminal
	// FAILED and the gateway was never invoked.
	ErrLockFailed = errors.New("failed to lock wallet funds")

	// ErrNotPending rejects reconciliation of a transaction that is still
	// in flight.
	ErrNotPending = errors.New("transaction is not pending")
)

// Service drives a recharge or bill payment end to end: validate, lock
// funds, call the gateway, and resolve the lock into a debit or a release.
type Service struct {
	wallets  wallet.Store
	txns     txn.Store
	gw       gateway.Gateway
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService wires the orchestrator. The notifier and metrics may be nil.
func NewService(wallets wallet.Store, txns txn.Store, gw gateway.Gateway, notifier notification.Notifier, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{wallets: wallets, txns: txns, gw: gw, notifier: notifier, metrics: m, logger: logger}
}

// SubmitInput is one recharge request. Exactly one of MobileNumber and
// DTHID must be set.
type SubmitInput struct {
	OperatorID   string
	CircleID     string
	Amount       int64
	MobileNumber string
	DTHID        string
	PlanID       string
	OfferCode    string
}

// PayBillInput identifies the postpaid account to settle. The amount comes
// from the fetched bill, not from the caller.
type PayBillInput struct {
	OperatorID   string
	MobileNumber string
}

// Outcome is the caller-facing result. Status collapses the transaction
// state to the SUCCESS/PENDING/FAILED triple; PENDING means funds remain
// locked until reconciliation resolves them.
type Outcome struct {
	Status        gateway.Status
	TransactionID string
	Message       string
	Transaction   txn.Transaction
}

// Submit processes a prepaid or DTH recharge.
func (s *Service) Submit(ctx context.Context, userID string, input SubmitInput) (Outcome, error) {
	if err := validateSubmit(input); err != nil {
		return Outcome{}, err
	}

	serviceType := txn.ServiceMobilePrepaid
	identifier := input.MobileNumber
	if input.DTHID != "" {
		serviceType = txn.ServiceDTH
		identifier = input.DTHID
	}

	metadata := map[string]string{}
	if input.PlanID != "" {
		metadata["plan_id"] = input.PlanID
	}
	if input.OfferCode != "" {
		metadata["offer_code"] = input.OfferCode
	}

	return s.execute(ctx, userID, txn.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        txn.KindRecharge,
		ServiceType: serviceType,
		Amount:      input.Amount,
		Status:      txn.StatusValidating,
		OperatorID:  input.OperatorID,
		Identifier:  identifier,
		Metadata:    metadata,
	}, input.CircleID)
}

// FetchBill retrieves the outstanding bill for a postpaid account.
func (s *Service) FetchBill(ctx context.Context, operatorID, mobileNumber string) (gateway.Bill, error) {
	if operatorID == "" || mobileNumber == "" {
		return gateway.Bill{}, fmt.Errorf("%w: operator id and mobile number are required", ErrInvalidRequest)
	}
	return s.gw.FetchBill(ctx, operatorID, mobileNumber)
}

// PayBill fetches the bill and settles it through the same lock, call,
// resolve sequence as a recharge.
func (s *Service) PayBill(ctx context.Context, userID string, input PayBillInput) (Outcome, error) {
	bill, err := s.FetchBill(ctx, input.OperatorID, input.MobileNumber)
	if err != nil {
		return Outcome{}, err
	}
	if bill.Amount <= 0 {
		return Outcome{}, fmt.Errorf("%w: bill has no outstanding amount", ErrInvalidRequest)
	}

	return s.execute(ctx, userID, txn.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        txn.KindBillPayment,
		ServiceType: txn.ServiceMobilePostpaid,
		Amount:      bill.Amount,
		Status:      txn.StatusValidating,
		OperatorID:  input.OperatorID,
		Identifier:  input.MobileNumber,
		ReferenceID: bill.BillNumber,
		Metadata:    map[string]string{"customer_name": bill.CustomerName},
	}, "")
}

// execute runs the shared lock -> settle -> resolve sequence. The balance is
// checked before the transaction row is created so a plainly unaffordable
// request leaves no orphan record behind.
func (s *Service) execute(ctx context.Context, userID string, t txn.Transaction, circleID string) (Outcome, error) {
	w, err := s.wallets.Get(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	if w.Available() < t.Amount {
		return Outcome{}, wallet.ErrInsufficientFunds
	}

	if err := s.txns.Create(ctx, t); err != nil {
		return Outcome{}, err
	}

	if err := s.wallets.Lock(ctx, userID, t.Amount, t.ID); err != nil {
		if stErr := s.txns.SetStatus(ctx, t.ID, txn.Update{Status: txn.StatusFailed, Message: ErrLockFailed.Error()}); stErr != nil {
			s.logger.Error("mark transaction failed", "transaction_id", t.ID, "error", stErr)
		}
		s.count(t.Kind, txn.StatusFailed)
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return Outcome{Status: gateway.StatusFailed, TransactionID: t.ID, Message: ErrLockFailed.Error()}, ErrLockFailed
		}
		return Outcome{}, err
	}

	if err := s.txns.SetStatus(ctx, t.ID, txn.Update{Status: txn.StatusLocked}); err != nil {
		s.logger.Error("mark transaction locked", "transaction_id", t.ID, "error", err)
	}
	if err := s.txns.SetStatus(ctx, t.ID, txn.Update{Status: txn.StatusSettling}); err != nil {
		s.logger.Error("mark transaction settling", "transaction_id", t.ID, "error", err)
	}

	// The transaction id doubles as the idempotency key: a retried
	// submission of the same settled id can never charge the operator
	// twice.
	started := time.Now()
	res, callErr := s.gw.Call(ctx, gateway.Request{
		Identifier:     t.Identifier,
		OperatorID:     t.OperatorID,
		CircleID:       circleID,
		Amount:         t.Amount,
		IdempotencyKey: t.ID,
	})
	if s.metrics != nil {
		s.metrics.SettlementDuration.Observe(time.Since(started).Seconds())
	}

	return s.settle(ctx, t, res, callErr, false)
}

// settle resolves a gateway verdict into the matching wallet mutation and
// terminal (or parked) transaction state. A transport fault or explicit
// PENDING leaves the money locked; only an unambiguous FAILED releases it.
func (s *Service) settle(ctx context.Context, t txn.Transaction, res gateway.Result, callErr error, reconciling bool) (Outcome, error) {
	s.verdict(res, callErr)

	if callErr != nil || res.Status == gateway.StatusPending {
		message := "operation is being processed, funds remain locked"
		if callErr != nil {
			s.logger.Warn("gateway outcome uncertain, parking transaction",
				"transaction_id", t.ID, "error", callErr)
		}
		if err := s.txns.SetStatus(ctx, t.ID, txn.Update{Status: txn.StatusPending, ProviderTransactionID: res.ProviderReference, Message: message}); err != nil {
			return Outcome{}, err
		}
		s.count(t.Kind, txn.StatusPending)
		s.notify(ctx, notification.KindPending, t, txn.StatusPending)
		return Outcome{Status: gateway.StatusPending, TransactionID: t.ID, Message: message}, nil
	}

	switch res.Status {
	case gateway.StatusSuccess:
		if err := s.wallets.ConfirmDebit(ctx, t.UserID, t.Amount, t.ID); err != nil {
			if errors.Is(err, wallet.ErrAlreadySettled) {
				s.logger.Warn("debit already applied", "transaction_id", t.ID)
			} else {
				// Provider spent the money but we could not record the
				// debit. Park the transaction so reconciliation retries
				// rather than losing the spend.
				s.logger.Error("confirm debit failed after gateway success",
					"transaction_id", t.ID, "error", err)
				_ = s.txns.SetStatus(ctx, t.ID, txn.Update{Status: txn.StatusPending, ProviderTransactionID: res.ProviderReference, Message: "debit pending retry"})
				return Outcome{}, err
			}
		}
		return s.finish(ctx, t, txn.StatusSuccess, res, "recharge successful")

	default: // gateway.StatusFailed
		if err := s.wallets.Refund(ctx, t.UserID, t.Amount, t.ID); err != nil && !errors.Is(err, wallet.ErrAlreadySettled) {
			s.logger.Error("refund failed", "transaction_id", t.ID, "error", err)
			return Outcome{}, err
		}
		status := txn.StatusFailed
		if reconciling {
			status = txn.StatusRefunded
		}
		message := res.Message
		if message == "" {
			message = "operation failed at the operator"
		}
		return s.finish(ctx, t, status, res, message)
	}
}

func (s *Service) finish(ctx context.Context, t txn.Transaction, status txn.Status, res gateway.Result, message string) (Outcome, error) {
	if res.Message != "" {
		message = res.Message
	}
	if err := s.txns.SetStatus(ctx, t.ID, txn.Update{Status: status, ProviderTransactionID: res.ProviderReference, Message: message}); err != nil {
		return Outcome{}, err
	}
	s.count(t.Kind, status)
	s.notify(ctx, notification.KindSettlement, t, status)

	updated, err := s.txns.Get(ctx, t.ID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: callerStatus(status), TransactionID: t.ID, Message: message, Transaction: updated}, nil
}

// Reconcile re-queries the gateway for a transaction parked in PENDING and
// applies the deferred outcome exactly once. Safe to invoke concurrently:
// the exit from PENDING is a check-and-set, and a losing caller gets the
// already-applied result back as a no-op.
func (s *Service) Reconcile(ctx context.Context, transactionID string) (Outcome, error) {
	t, err := s.txns.Get(ctx, transactionID)
	if err != nil {
		return Outcome{}, err
	}
	if t.Status.Terminal() {
		return outcomeOf(t), nil
	}
	if t.Status != txn.StatusPending {
		return Outcome{}, ErrNotPending
	}

	ok, err := s.txns.Transition(ctx, transactionID, txn.StatusPending, txn.StatusSettling)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		// A concurrent reconciliation won the check-and-set.
		current, err := s.txns.Get(ctx, transactionID)
		if err != nil {
			return Outcome{}, err
		}
		return outcomeOf(current), nil
	}

	res, callErr := s.gw.CheckStatus(ctx, transactionID)
	return s.settle(ctx, t, res, callErr, true)
}

// Status returns the transaction; callers verify ownership.
func (s *Service) Status(ctx context.Context, transactionID string) (txn.Transaction, error) {
	return s.txns.Get(ctx, transactionID)
}

// History lists a user's transactions newest-first, optionally filtered by
// service type.
func (s *Service) History(ctx context.Context, userID string, serviceType txn.ServiceType, limit int) ([]txn.Transaction, error) {
	return s.txns.ListByUser(ctx, userID, serviceType, limit)
}

func validateSubmit(input SubmitInput) error {
	if input.OperatorID == "" {
		return fmt.Errorf("%w: operator id is required", ErrInvalidRequest)
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	hasMobile := input.MobileNumber != ""
	hasDTH := input.DTHID != ""
	if hasMobile == hasDTH {
		return fmt.Errorf("%w: exactly one of mobile number and DTH id is required", ErrInvalidRequest)
	}
	return nil
}

func callerStatus(status txn.Status) gateway.Status {
	switch status {
	case txn.StatusSuccess:
		return gateway.StatusSuccess
	case txn.StatusPending:
		return gateway.StatusPending
	default:
		return gateway.StatusFailed
	}
}

func outcomeOf(t txn.Transaction) Outcome {
	return Outcome{
		Status:        callerStatus(t.Status),
		TransactionID: t.ID,
		Message:       fmt.Sprintf("transaction is %s", strings.ToLower(string(t.Status))),
		Transaction:   t,
	}
}

func (s *Service) count(kind txn.Kind, status txn.Status) {
	if s.metrics == nil {
		return
	}
	s.metrics.TransactionsTotal.WithLabelValues(string(kind), string(status)).Inc()
}

func (s *Service) verdict(res gateway.Result, callErr error) {
	if s.metrics == nil {
		return
	}
	label := strings.ToLower(string(res.Status))
	if callErr != nil {
		label = "error"
	}
	s.metrics.GatewayVerdicts.WithLabelValues(label).Inc()
}

func (s *Service) notify(ctx context.Context, kind string, t txn.Transaction, status txn.Status) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{
		Kind:          kind,
		UserID:        t.UserID,
		TransactionID: t.ID,
		Status:        string(status),
		Amount:        t.Amount,
	})
}
