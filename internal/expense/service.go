package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/pantryledger/internal/apperrors"
	"github.com/fkhayef/pantryledger/internal/expense/split"
	"github.com/fkhayef/pantryledger/internal/household"
	"github.com/fkhayef/pantryledger/internal/metrics"
	"github.com/fkhayef/pantryledger/internal/notification"
)

// Common errors
var (
	ErrExpenseNotFound       = fmt.Errorf("%w: expense not found", apperrors.ErrNotFound)
	ErrNotHouseholdMember    = fmt.Errorf("%w: member does not belong to this household", apperrors.ErrValidation)
	ErrExpenseHasSettlements = errors.New("expense has settlements; amount, payer and participants can no longer change")
	ErrExpenseCancelled      = errors.New("expense is cancelled")
)

// Store is the persistence port used by the service
type Store interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, householdID, id string) (*Expense, error)
	List(ctx context.Context, householdID string, status Status, limit, offset int) ([]*Expense, int, error)
	ListByItem(ctx context.Context, householdID, itemID string) ([]*Expense, error)
	Update(ctx context.Context, e *Expense, expectedVersion int64) error
	Delete(ctx context.Context, householdID, id string, expectedVersion int64) error
}

// MemberDirectory lists the members of a household
type MemberDirectory interface {
	ListMembers(ctx context.Context, householdID string) ([]household.Member, error)
}

// Service handles expense business logic
type Service struct {
	repo            Store
	splitFactory    *split.Factory
	members         MemberDirectory
	events          notification.Publisher
	defaultCurrency string
	logger          *slog.Logger
	now             func() time.Time
}

// NewService creates a new expense service with dependencies injected
func NewService(repo Store, splitFactory *split.Factory, members MemberDirectory, events notification.Publisher, defaultCurrency string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = notification.Discard{}
	}
	return &Service{
		repo:            repo,
		splitFactory:    splitFactory,
		members:         members,
		events:          events,
		defaultCurrency: defaultCurrency,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CreateExpense splits the total with the requested strategy and stores the expense
func (s *Service) CreateExpense(ctx context.Context, householdID, actorID string, req *CreateExpenseRequest) (*Expense, error) {
	method := req.Method
	if method == "" {
		method = split.MethodEqual
	}

	in := split.SplitInput{
		TotalCents:    req.TotalCents,
		PayerID:       req.PayerID,
		Participants:  req.Participants,
		Shares:        req.Shares,
		CustomAmounts: req.CustomAmounts,
	}
	res, err := s.splitFactory.Compute(method, in)
	if err != nil {
		return nil, err
	}

	if err := s.checkMembers(ctx, householdID, req.PayerID, req.Participants); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	now := s.now()
	e := &Expense{
		ID:                      uuid.NewString(),
		HouseholdID:             householdID,
		CreatedBy:               actorID,
		PayerID:                 req.PayerID,
		TotalCents:              req.TotalCents,
		Currency:                currency,
		Method:                  method,
		Participants:            append([]string(nil), req.Participants...),
		Entries:                 entriesFromResult(res, sharesFor(method, req.Shares)),
		RoundingAdjustmentCents: res.RoundingAdjustmentCents,
		Status:                  StatusOpen,
		LinkedItemID:            normalizeItemID(req.LinkedItemID),
		Note:                    strings.TrimSpace(req.Note),
		CreatedAt:               now,
		UpdatedAt:               now,
		Version:                 1,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	metrics.ExpensesCreated.WithLabelValues(string(method)).Inc()
	s.events.Publish(notification.NewEvent(householdID, notification.EventExpenseCreated,
		notification.WithExpense(e.ID), notification.WithActor(actorID)))
	s.logger.Info("expense created",
		"household_id", householdID,
		"expense_id", e.ID,
		"method", method,
		"total_cents", int64(e.TotalCents),
		"participants", len(e.Participants),
	)

	return e, nil
}

// GetExpense retrieves an expense with its entries
func (s *Service) GetExpense(ctx context.Context, householdID, id string) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, householdID, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}
	return e, nil
}

// ListExpenses retrieves a page of a household's expenses
func (s *Service) ListExpenses(ctx context.Context, householdID string, status Status, page, perPage int) ([]*Expense, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, householdID, status, perPage, offset)
}

// ListExpensesByItem retrieves the expenses linked to an inventory item
func (s *Service) ListExpensesByItem(ctx context.Context, householdID, itemID string) ([]*Expense, error) {
	return s.repo.ListByItem(ctx, householdID, itemID)
}

// UpdateExpense applies a partial update. Changes to the split inputs recompute
// every entry and are refused once any payment has been applied.
func (s *Service) UpdateExpense(ctx context.Context, householdID, id, actorID string, req *UpdateExpenseRequest) (*Expense, error) {
	current, err := s.GetExpense(ctx, householdID, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusCancelled {
		return nil, ErrExpenseCancelled
	}
	if req.Version != nil && *req.Version != current.Version {
		return nil, fmt.Errorf("%w: expense is at version %d", apperrors.ErrConcurrentModification, current.Version)
	}

	updated := current.Clone()

	if req.changesSplit() {
		if current.HasSettlements() {
			return nil, ErrExpenseHasSettlements
		}
		if err := s.resplit(ctx, updated, req); err != nil {
			return nil, err
		}
	}
	if req.Note != nil {
		updated.Note = strings.TrimSpace(*req.Note)
	}
	if req.LinkedItemID != nil {
		updated.LinkedItemID = normalizeItemID(req.LinkedItemID)
	}
	updated.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, updated, current.Version); err != nil {
		return nil, err
	}

	s.events.Publish(notification.NewEvent(householdID, notification.EventExpenseUpdated,
		notification.WithExpense(id), notification.WithActor(actorID)))
	s.logger.Info("expense updated", "household_id", householdID, "expense_id", id, "version", updated.Version)

	return updated, nil
}

// CancelExpense marks an expense cancelled. Cancelled expenses stay on record
// but take no payments and no longer count towards balances.
func (s *Service) CancelExpense(ctx context.Context, householdID, id, actorID string) (*Expense, error) {
	current, err := s.GetExpense(ctx, householdID, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusCancelled {
		return current, nil
	}

	updated := current.Clone()
	updated.Status = StatusCancelled
	updated.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, updated, current.Version); err != nil {
		return nil, err
	}

	s.events.Publish(notification.NewEvent(householdID, notification.EventExpenseCancelled,
		notification.WithExpense(id), notification.WithActor(actorID)))
	s.logger.Info("expense cancelled", "household_id", householdID, "expense_id", id)

	return updated, nil
}

// DeleteExpense removes an expense that has no settlements applied
func (s *Service) DeleteExpense(ctx context.Context, householdID, id, actorID string) error {
	current, err := s.GetExpense(ctx, householdID, id)
	if err != nil {
		return err
	}
	if current.HasSettlements() {
		return ErrExpenseHasSettlements
	}

	if err := s.repo.Delete(ctx, householdID, id, current.Version); err != nil {
		return err
	}

	s.events.Publish(notification.NewEvent(householdID, notification.EventExpenseDeleted,
		notification.WithExpense(id), notification.WithActor(actorID)))
	s.logger.Info("expense deleted", "household_id", householdID, "expense_id", id)

	return nil
}

// resplit merges the request into e and recomputes its entries
func (s *Service) resplit(ctx context.Context, e *Expense, req *UpdateExpenseRequest) error {
	in := e.SplitInput()
	method := e.Method

	if req.PayerID != nil {
		in.PayerID = *req.PayerID
	}
	if req.TotalCents != nil {
		in.TotalCents = *req.TotalCents
	}
	if req.Participants != nil {
		in.Participants = req.Participants
		if req.Shares == nil && in.Shares != nil {
			in.Shares = keepParticipants(in.Shares, in.Participants)
		}
	}
	if req.Method != nil {
		method = *req.Method
	}
	if req.Shares != nil {
		in.Shares = req.Shares
	}
	if req.CustomAmounts != nil {
		in.CustomAmounts = req.CustomAmounts
	}

	res, err := s.splitFactory.Compute(method, in)
	if err != nil {
		return err
	}
	if err := s.checkMembers(ctx, e.HouseholdID, in.PayerID, in.Participants); err != nil {
		return err
	}

	e.PayerID = in.PayerID
	e.TotalCents = in.TotalCents
	e.Method = method
	e.Participants = append([]string(nil), in.Participants...)
	e.Entries = entriesFromResult(res, sharesFor(method, in.Shares))
	e.RoundingAdjustmentCents = res.RoundingAdjustmentCents
	return nil
}

// checkMembers verifies payer and participants against the household directory.
// Households the directory knows nothing about are not checked.
func (s *Service) checkMembers(ctx context.Context, householdID, payerID string, participants []string) error {
	if s.members == nil {
		return nil
	}
	members, err := s.members.ListMembers(ctx, householdID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	known := household.NameIndex(members)
	for _, id := range append([]string{payerID}, participants...) {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNotHouseholdMember, id)
		}
	}
	return nil
}

func sharesFor(method split.Method, shares map[string]int64) map[string]int64 {
	if method != split.MethodShares {
		return nil
	}
	return shares
}

func keepParticipants(shares map[string]int64, participants []string) map[string]int64 {
	kept := make(map[string]int64, len(participants))
	for _, p := range participants {
		if w, ok := shares[p]; ok {
			kept[p] = w
		}
	}
	return kept
}

func normalizeItemID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
