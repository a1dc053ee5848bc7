package notification

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of ledger change an event announces
type EventType string

const (
	EventExpenseCreated   EventType = "expense.created"
	EventExpenseUpdated   EventType = "expense.updated"
	EventExpenseCancelled EventType = "expense.cancelled"
	EventExpenseDeleted   EventType = "expense.deleted"
	EventExpenseSettled   EventType = "expense.settled"
	EventPaymentRecorded  EventType = "payment.recorded"
)

// Event is a "ledger changed" record. Consumers poll for events newer than the
// last one they saw and re-read whatever the event points at.
type Event struct {
	ID          uuid.UUID `json:"id"`
	HouseholdID string    `json:"household_id"`
	Type        EventType `json:"event_type"`
	ExpenseID   *string   `json:"expense_id,omitempty"`
	PaymentID   *string   `json:"payment_id,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventOption sets an optional field on a new event
type EventOption func(*Event)

func WithExpense(expenseID string) EventOption {
	return func(e *Event) {
		e.ExpenseID = &expenseID
	}
}

func WithPayment(paymentID string) EventOption {
	return func(e *Event) {
		e.PaymentID = &paymentID
	}
}

func WithActor(memberID string) EventOption {
	return func(e *Event) {
		e.ActorID = memberID
	}
}

// NewEvent builds an event with a fresh id and the current UTC time
func NewEvent(householdID string, eventType EventType, opts ...EventOption) Event {
	e := Event{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Type:        eventType,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}
