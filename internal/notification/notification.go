package notification

import (
	"context"
	"log/slog"
)

const (
	// KindSettlement indicates a transaction reached a terminal state.
	KindSettlement = "transaction_settled"
	// KindPending indicates a transaction was parked awaiting reconciliation.
	KindPending = "transaction_pending"
)

// Message describes a notification payload.
type Message struct {
	Kind          string `json:"kind"`
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Body          string `json:"body"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger. Used when no
// broker is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"user_id", message.UserID,
		"transaction_id", message.TransactionID,
		"status", message.Status,
		"amount", message.Amount)
	return nil
}
