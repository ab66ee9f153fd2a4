// Package events publishes committed ledger mutations to downstream systems.
// Publishing is strictly after the fact: a delivery failure never affects
// ledger state.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Event describes one committed balance mutation.
type Event struct {
	Kind         string          `json:"kind"`
	AccountID    string          `json:"account_id"`
	Counterparty string          `json:"counterparty,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Notifier delivers ledger events.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LoggerNotifier writes events to the structured logger. Used when no Kafka
// brokers are configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the event to the logger.
func (n *LoggerNotifier) Send(_ context.Context, event Event) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("ledger event",
		"kind", event.Kind,
		"account_id", event.AccountID,
		"counterparty", event.Counterparty,
		"amount", event.Amount.String(),
	)
	return nil
}
