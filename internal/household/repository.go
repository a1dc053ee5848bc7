package household

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fkhayef/pantryledger/internal/database"
)

// Repository reads and seeds the household member directory
type Repository struct {
	db *database.DB
}

// NewRepository creates a new household repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// ListMembers returns a household's members ordered by name
func (r *Repository) ListMembers(ctx context.Context, householdID string) ([]Member, error) {
	query := r.db.Rebind(`
		SELECT household_id, member_id, name, created_at
		FROM household_members
		WHERE household_id = ?
		ORDER BY name, member_id
	`)

	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", database.Translate(err))
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.HouseholdID, &m.ID, &m.Name, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", database.Translate(err))
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", database.Translate(err))
	}

	return members, nil
}

// GetMember retrieves one member, or nil when the id is unknown
func (r *Repository) GetMember(ctx context.Context, householdID, memberID string) (*Member, error) {
	query := r.db.Rebind(`
		SELECT household_id, member_id, name, created_at
		FROM household_members
		WHERE household_id = ? AND member_id = ?
	`)

	m := &Member{}
	err := r.db.QueryRowContext(ctx, query, householdID, memberID).Scan(&m.HouseholdID, &m.ID, &m.Name, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", database.Translate(err))
	}

	return m, nil
}

// UpsertMember inserts a member or renames an existing one
func (r *Repository) UpsertMember(ctx context.Context, householdID, memberID, name string) error {
	query := r.db.Rebind(`
		INSERT INTO household_members (household_id, member_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (household_id, member_id) DO UPDATE SET name = excluded.name
	`)

	if _, err := r.db.ExecContext(ctx, query, householdID, memberID, name, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert member: %w", database.Translate(err))
	}
	return nil
}
