package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/pantryledger/internal/database"
)

// Repository handles ledger event persistence
type Repository struct {
	db *database.DB
}

// NewRepository creates a new event repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts an event
func (r *Repository) Save(ctx context.Context, e Event) error {
	query := r.db.Rebind(`
		INSERT INTO ledger_events (id, household_id, event_type, expense_id, payment_id, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		e.ID.String(),
		e.HouseholdID,
		string(e.Type),
		e.ExpenseID,
		e.PaymentID,
		e.ActorID,
		e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", database.Translate(err))
	}
	return nil
}

// ListSince returns a household's events created strictly after since, oldest first
func (r *Repository) ListSince(ctx context.Context, householdID string, since time.Time, limit int) ([]*Event, error) {
	query := r.db.Rebind(`
		SELECT id, household_id, event_type, expense_id, payment_id, actor_id, created_at
		FROM ledger_events
		WHERE household_id = ? AND created_at > ?
		ORDER BY created_at, id
		LIMIT ?
	`)

	rows, err := r.db.QueryContext(ctx, query, householdID, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", database.Translate(err))
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		var (
			e         Event
			id        string
			eventType string
			expenseID sql.NullString
			paymentID sql.NullString
		)
		if err := rows.Scan(&id, &e.HouseholdID, &eventType, &expenseID, &paymentID, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", database.Translate(err))
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse event id %q: %w", id, err)
		}
		e.Type = EventType(eventType)
		if expenseID.Valid {
			e.ExpenseID = &expenseID.String
		}
		if paymentID.Valid {
			e.PaymentID = &paymentID.String
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", database.Translate(err))
	}

	return events, nil
}
