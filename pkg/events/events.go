// Package events publishes committed ledger movements to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TypeLedgerTransaction is emitted once per committed credit or debit.
const TypeLedgerTransaction = "ledger.transaction"

// Event is the JSON payload written to the stream.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	UserID        int64     `json:"userId"`
	TransactionID int64     `json:"transactionId"`
	Kind          string    `json:"kind"`
	Amount        int64     `json:"amount"`
	BalanceAfter  int64     `json:"balanceAfter"`
	Description   string    `json:"description,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NewLedgerEvent builds a ledger.transaction event with a fresh id.
func NewLedgerEvent(userID, transactionID int64, kind string, amount, balanceAfter int64, description string) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          TypeLedgerTransaction,
		UserID:        userID,
		TransactionID: transactionID,
		Kind:          kind,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		Description:   description,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
