package household

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fkhayef/pantryledger/internal/apperrors"
)

// Common errors
var (
	ErrMemberNotFound = fmt.Errorf("%w: member not found", apperrors.ErrNotFound)
	ErrInvalidMember  = fmt.Errorf("%w: member id and name are required", apperrors.ErrValidation)
)

// Store is the persistence port of the directory
type Store interface {
	ListMembers(ctx context.Context, householdID string) ([]Member, error)
	GetMember(ctx context.Context, householdID, memberID string) (*Member, error)
	UpsertMember(ctx context.Context, householdID, memberID, name string) error
}

// Service answers membership questions for the ledger
type Service struct {
	repo Store
}

// NewService creates a new household service
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// ListMembers returns every member of a household
func (s *Service) ListMembers(ctx context.Context, householdID string) ([]Member, error) {
	return s.repo.ListMembers(ctx, householdID)
}

// GetMember returns a single member
func (s *Service) GetMember(ctx context.Context, householdID, memberID string) (*Member, error) {
	m, err := s.repo.GetMember(ctx, householdID, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// IsMember reports whether memberID belongs to the household
func (s *Service) IsMember(ctx context.Context, householdID, memberID string) (bool, error) {
	_, err := s.GetMember(ctx, householdID, memberID)
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	return err == nil, err
}

// UpsertMember registers or renames a member. Only used to seed local
// environments; production membership is owned by the household app.
func (s *Service) UpsertMember(ctx context.Context, householdID, memberID, name string) error {
	householdID, memberID, name = strings.TrimSpace(householdID), strings.TrimSpace(memberID), strings.TrimSpace(name)
	if householdID == "" || memberID == "" || name == "" {
		return ErrInvalidMember
	}
	return s.repo.UpsertMember(ctx, householdID, memberID, name)
}
