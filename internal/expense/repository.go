package expense

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fkhayef/pantryledger/internal/apperrors"
	"github.com/fkhayef/pantryledger/internal/database"
	"github.com/fkhayef/pantryledger/internal/expense/split"
)

const expenseColumns = `id, household_id, created_by, payer_id, total_cents, currency, method, status,
	rounding_adjustment_cents, linked_item_id, note, created_at, updated_at, version, participants`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository handles expense and entry persistence
type Repository struct {
	db *database.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an expense and its entries in one transaction
func (r *Repository) Create(ctx context.Context, e *Expense) error {
	participants, err := encodeParticipants(e.Participants)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := r.db.Rebind(`
			INSERT INTO expenses (` + expenseColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		_, err := tx.ExecContext(ctx, query,
			e.ID,
			e.HouseholdID,
			e.CreatedBy,
			e.PayerID,
			int64(e.TotalCents),
			e.Currency,
			string(e.Method),
			string(e.Status),
			int64(e.RoundingAdjustmentCents),
			e.LinkedItemID,
			e.Note,
			e.CreatedAt,
			e.UpdatedAt,
			e.Version,
			participants,
		)
		if err != nil {
			return fmt.Errorf("failed to create expense: %w", database.Translate(err))
		}

		return r.insertEntries(ctx, tx, e)
	})
}

// GetByID retrieves an expense with its entries, or nil when it does not exist
func (r *Repository) GetByID(ctx context.Context, householdID, id string) (*Expense, error) {
	query := r.db.Rebind(`SELECT ` + expenseColumns + ` FROM expenses WHERE household_id = ? AND id = ?`)

	rows, err := r.db.QueryContext(ctx, query, householdID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", database.Translate(err))
	}
	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, nil
	}

	if err := r.loadEntries(ctx, r.db, expenses); err != nil {
		return nil, err
	}
	return expenses[0], nil
}

// List retrieves a page of a household's expenses, newest first.
// An empty status matches every status.
func (r *Repository) List(ctx context.Context, householdID string, status Status, limit, offset int) ([]*Expense, int, error) {
	where := `WHERE household_id = ?`
	args := []any{householdID}
	if status != "" {
		where += ` AND status = ?`
		args = append(args, string(status))
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM expenses ` + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", database.Translate(err))
	}

	query := r.db.Rebind(`SELECT ` + expenseColumns + ` FROM expenses ` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", database.Translate(err))
	}
	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := r.loadEntries(ctx, r.db, expenses); err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// ListActive retrieves every open or partially settled expense of a household, oldest first
func (r *Repository) ListActive(ctx context.Context, householdID string) ([]*Expense, error) {
	query := r.db.Rebind(`
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE household_id = ? AND status IN (?, ?)
		ORDER BY created_at, id
	`)

	rows, err := r.db.QueryContext(ctx, query, householdID, string(StatusOpen), string(StatusPartiallySettled))
	if err != nil {
		return nil, fmt.Errorf("failed to list active expenses: %w", database.Translate(err))
	}
	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadEntries(ctx, r.db, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// ListByItem retrieves the expenses linked to an inventory item, newest first
func (r *Repository) ListByItem(ctx context.Context, householdID, itemID string) ([]*Expense, error) {
	query := r.db.Rebind(`
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE household_id = ? AND linked_item_id = ?
		ORDER BY created_at DESC, id
	`)

	rows, err := r.db.QueryContext(ctx, query, householdID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by item: %w", database.Translate(err))
	}
	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadEntries(ctx, r.db, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// Update writes e if the stored version still equals expectedVersion, then
// replaces its entries. On success e.Version holds the new version.
func (r *Repository) Update(ctx context.Context, e *Expense, expectedVersion int64) error {
	participants, err := encodeParticipants(e.Participants)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := r.db.Rebind(`
			UPDATE expenses
			SET payer_id = ?, total_cents = ?, currency = ?, method = ?, status = ?,
				rounding_adjustment_cents = ?, linked_item_id = ?, note = ?, updated_at = ?,
				participants = ?, version = version + 1
			WHERE household_id = ? AND id = ? AND version = ?
		`)
		res, err := tx.ExecContext(ctx, query,
			e.PayerID,
			int64(e.TotalCents),
			e.Currency,
			string(e.Method),
			string(e.Status),
			int64(e.RoundingAdjustmentCents),
			e.LinkedItemID,
			e.Note,
			e.UpdatedAt,
			participants,
			e.HouseholdID,
			e.ID,
			expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", database.Translate(err))
		}
		if err := requireOneRow(res); err != nil {
			return err
		}

		deleteQuery := r.db.Rebind(`DELETE FROM expense_entries WHERE expense_id = ?`)
		if _, err := tx.ExecContext(ctx, deleteQuery, e.ID); err != nil {
			return fmt.Errorf("failed to replace entries: %w", database.Translate(err))
		}
		if err := r.insertEntries(ctx, tx, e); err != nil {
			return err
		}

		e.Version = expectedVersion + 1
		return nil
	})
}

// Delete removes an expense if the stored version still equals expectedVersion
func (r *Repository) Delete(ctx context.Context, householdID, id string, expectedVersion int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return DeleteTx(ctx, tx, r.db.Dialect, householdID, id, expectedVersion)
	})
}

// DeleteTx removes an expense and its entries inside an existing transaction.
// A missing row or a version mismatch yields apperrors.ErrConcurrentModification.
func DeleteTx(ctx context.Context, tx execer, dialect database.Dialect, householdID, id string, expectedVersion int64) error {
	if _, err := tx.ExecContext(ctx, database.Rebind(dialect, `DELETE FROM expense_entries WHERE expense_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete entries: %w", database.Translate(err))
	}

	res, err := tx.ExecContext(ctx,
		database.Rebind(dialect, `DELETE FROM expenses WHERE household_id = ? AND id = ? AND version = ?`),
		householdID, id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", database.Translate(err))
	}
	return requireOneRow(res)
}

// UpdateSettlementTx persists the settled amounts and status of e inside an
// existing transaction, guarded by expectedVersion.
func UpdateSettlementTx(ctx context.Context, tx execer, dialect database.Dialect, e *Expense, expectedVersion int64) error {
	res, err := tx.ExecContext(ctx,
		database.Rebind(dialect, `
			UPDATE expenses
			SET status = ?, updated_at = ?, version = version + 1
			WHERE household_id = ? AND id = ? AND version = ?
		`),
		string(e.Status), e.UpdatedAt, e.HouseholdID, e.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense status: %w", database.Translate(err))
	}
	if err := requireOneRow(res); err != nil {
		return err
	}

	entryQuery := database.Rebind(dialect, `
		UPDATE expense_entries SET settled_cents = ?
		WHERE expense_id = ? AND member_id = ?
	`)
	for _, entry := range e.Entries {
		if _, err := tx.ExecContext(ctx, entryQuery, int64(entry.SettledCents), e.ID, entry.MemberID); err != nil {
			return fmt.Errorf("failed to update entry: %w", database.Translate(err))
		}
	}

	e.Version = expectedVersion + 1
	return nil
}

func (r *Repository) insertEntries(ctx context.Context, tx execer, e *Expense) error {
	query := r.db.Rebind(`
		INSERT INTO expense_entries (expense_id, position, member_id, amount_cents, settled_cents, share_weight)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	for i, entry := range e.Entries {
		_, err := tx.ExecContext(ctx, query,
			e.ID,
			i,
			entry.MemberID,
			int64(entry.AmountCents),
			int64(entry.SettledCents),
			entry.ShareWeight,
		)
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", database.Translate(err))
		}
	}
	return nil
}

// loadEntries fills Entries for every expense in one query. Participants fall
// back to the entry order when the row stored none.
func (r *Repository) loadEntries(ctx context.Context, q queryer, expenses []*Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*Expense, len(expenses))
	args := make([]any, 0, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
		args = append(args, e.ID)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := r.db.Rebind(`
		SELECT expense_id, member_id, amount_cents, settled_cents, share_weight
		FROM expense_entries
		WHERE expense_id IN (` + placeholders + `)
		ORDER BY expense_id, position
	`)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", database.Translate(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			expenseID string
			entry     Entry
			weight    sql.NullInt64
		)
		if err := rows.Scan(&expenseID, &entry.MemberID, &entry.AmountCents, &entry.SettledCents, &weight); err != nil {
			return fmt.Errorf("failed to scan entry: %w", database.Translate(err))
		}
		if weight.Valid {
			w := weight.Int64
			entry.ShareWeight = &w
		}
		if e, ok := byID[expenseID]; ok {
			e.Entries = append(e.Entries, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate entries: %w", database.Translate(err))
	}

	for _, e := range expenses {
		if len(e.Participants) > 0 {
			continue
		}
		for _, entry := range e.Entries {
			e.Participants = append(e.Participants, entry.MemberID)
		}
	}

	return nil
}

func scanExpenses(rows *sql.Rows) ([]*Expense, error) {
	defer rows.Close()

	expenses := make([]*Expense, 0)
	for rows.Next() {
		var (
			e            Expense
			method       string
			status       string
			linkedID     sql.NullString
			participants string
		)
		if err := rows.Scan(
			&e.ID,
			&e.HouseholdID,
			&e.CreatedBy,
			&e.PayerID,
			&e.TotalCents,
			&e.Currency,
			&method,
			&status,
			&e.RoundingAdjustmentCents,
			&linkedID,
			&e.Note,
			&e.CreatedAt,
			&e.UpdatedAt,
			&e.Version,
			&participants,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", database.Translate(err))
		}
		e.Method = split.Method(method)
		e.Status = Status(status)
		if linkedID.Valid {
			id := linkedID.String
			e.LinkedItemID = &id
		}
		if participants != "" {
			if err := json.Unmarshal([]byte(participants), &e.Participants); err != nil {
				return nil, fmt.Errorf("failed to decode participants of %s: %w", e.ID, err)
			}
		}
		expenses = append(expenses, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", database.Translate(err))
	}

	return expenses, nil
}

func encodeParticipants(participants []string) (string, error) {
	if participants == nil {
		participants = []string{}
	}
	b, err := json.Marshal(participants)
	if err != nil {
		return "", fmt.Errorf("failed to encode participants: %w", err)
	}
	return string(b), nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", database.Translate(err))
	}
	if n != 1 {
		return fmt.Errorf("%w: expense changed or was removed by another writer", apperrors.ErrConcurrentModification)
	}
	return nil
}
