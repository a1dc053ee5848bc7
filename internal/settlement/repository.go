package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fkhayef/pantryledger/internal/database"
	"github.com/fkhayef/pantryledger/internal/expense"
)

// Repository handles payment persistence and the settlement write
type Repository struct {
	db *database.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// CommitSettlement writes the result of Apply in one transaction: the expense
// is deleted when fully settled and updated otherwise, and the payment with its
// applications is inserted. If the stored expense is no longer at
// expectedVersion nothing is written and apperrors.ErrConcurrentModification
// is returned.
func (r *Repository) CommitSettlement(ctx context.Context, res *Result, expectedVersion int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		e := res.Expense
		if res.FullySettled {
			if err := expense.DeleteTx(ctx, tx, r.db.Dialect, e.HouseholdID, e.ID, expectedVersion); err != nil {
				return err
			}
		} else {
			if err := expense.UpdateSettlementTx(ctx, tx, r.db.Dialect, e, expectedVersion); err != nil {
				return err
			}
		}

		return r.insertPayment(ctx, tx, res.Payment)
	})
}

func (r *Repository) insertPayment(ctx context.Context, tx *sql.Tx, p *Payment) error {
	query := r.db.Rebind(`
		INSERT INTO payments (id, household_id, from_member, to_member, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := tx.ExecContext(ctx, query,
		p.ID,
		p.HouseholdID,
		p.FromMember,
		p.ToMember,
		int64(p.AmountCents),
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", database.Translate(err))
	}

	appQuery := r.db.Rebind(`
		INSERT INTO payment_applications (payment_id, expense_id, member_id, amount_cents)
		VALUES (?, ?, ?, ?)
	`)
	for _, a := range p.AppliesTo {
		if _, err := tx.ExecContext(ctx, appQuery, p.ID, a.ExpenseID, a.MemberID, int64(a.AmountCents)); err != nil {
			return fmt.Errorf("failed to create payment application: %w", database.Translate(err))
		}
	}
	return nil
}

// ListPayments retrieves a household's payments, newest first. A non-empty
// member keeps only payments that member sent or received.
func (r *Repository) ListPayments(ctx context.Context, householdID, member string, limit, offset int) ([]*Payment, int, error) {
	where := `household_id = ?`
	args := []any{householdID}
	if member != "" {
		where += ` AND (from_member = ? OR to_member = ?)`
		args = append(args, member, member)
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM payments WHERE ` + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", database.Translate(err))
	}

	query := r.db.Rebind(`
		SELECT id, household_id, from_member, to_member, amount_cents, created_at
		FROM payments
		WHERE ` + where + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", database.Translate(err))
	}
	defer rows.Close()

	payments := make([]*Payment, 0)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.FromMember, &p.ToMember, &p.AmountCents, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan payment: %w", database.Translate(err))
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payments: %w", database.Translate(err))
	}

	if err := r.loadApplications(ctx, payments); err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *Repository) loadApplications(ctx context.Context, payments []*Payment) error {
	if len(payments) == 0 {
		return nil
	}

	byID := make(map[string]*Payment, len(payments))
	args := make([]any, 0, len(payments))
	for _, p := range payments {
		p.AppliesTo = make([]Application, 0, 1)
		byID[p.ID] = p
		args = append(args, p.ID)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := r.db.Rebind(`
		SELECT payment_id, expense_id, member_id, amount_cents
		FROM payment_applications
		WHERE payment_id IN (` + placeholders + `)
		ORDER BY payment_id, expense_id
	`)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load payment applications: %w", database.Translate(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			paymentID string
			a         Application
		)
		if err := rows.Scan(&paymentID, &a.ExpenseID, &a.MemberID, &a.AmountCents); err != nil {
			return fmt.Errorf("failed to scan payment application: %w", database.Translate(err))
		}
		if p, ok := byID[paymentID]; ok {
			p.AppliesTo = append(p.AppliesTo, a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate payment applications: %w", database.Translate(err))
	}

	return nil
}
