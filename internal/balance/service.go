package balance

import (
	"context"

	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/internal/household"
)

// ExpenseLister lists the expenses that can still carry a balance
type ExpenseLister interface {
	ListActive(ctx context.Context, householdID string) ([]*expense.Expense, error)
}

// MemberDirectory lists the members of a household
type MemberDirectory interface {
	ListMembers(ctx context.Context, householdID string) ([]household.Member, error)
}

// Service reads the ledger and computes balances
type Service struct {
	expenses ExpenseLister
	members  MemberDirectory
}

// NewService creates a new balance service
func NewService(expenses ExpenseLister, members MemberDirectory) *Service {
	return &Service{expenses: expenses, members: members}
}

// Balances returns viewer's balance sheet for the household
func (s *Service) Balances(ctx context.Context, householdID, viewer string) (*Summary, error) {
	expenses, err := s.expenses.ListActive(ctx, householdID)
	if err != nil {
		return nil, err
	}

	members, err := s.members.ListMembers(ctx, householdID)
	if err != nil {
		return nil, err
	}

	return Summarize(expenses, members, viewer), nil
}
