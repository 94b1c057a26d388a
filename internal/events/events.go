// Package events announces transaction writes to other processes.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Type doubles as the AMQP routing key.
type Type string

const (
	TransactionsCreated Type = "transactions.created"
	TransactionsUpdated Type = "transactions.updated"
	TransactionsDeleted Type = "transactions.deleted"
)

// Types lists every event type the service emits.
var Types = []Type{TransactionsCreated, TransactionsUpdated, TransactionsDeleted}

// Event is the JSON body of a published message. It carries ids only;
// consumers read the records they need.
type Event struct {
	Type            Type      `json:"type"`
	OwnerID         string    `json:"owner_id"`
	TransactionIDs  []string  `json:"transaction_ids"`
	RecurrenceGroup *string   `json:"recurrence_group,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// New stamps an event with the current time.
func New(t Type, ownerID string, ids ...string) Event {
	return Event{
		Type:           t,
		OwnerID:        ownerID,
		TransactionIDs: ids,
		OccurredAt:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event body.
func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }
