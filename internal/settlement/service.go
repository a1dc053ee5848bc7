package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fkhayef/pantryledger/internal/apperrors"
	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/internal/metrics"
	"github.com/fkhayef/pantryledger/internal/money"
	"github.com/fkhayef/pantryledger/internal/notification"
)

// Store is the persistence port for settlements
type Store interface {
	CommitSettlement(ctx context.Context, res *Result, expectedVersion int64) error
	ListPayments(ctx context.Context, householdID, member string, limit, offset int) ([]*Payment, int, error)
}

// ExpenseReader loads the current state of expenses
type ExpenseReader interface {
	GetByID(ctx context.Context, householdID, id string) (*expense.Expense, error)
	ListActive(ctx context.Context, householdID string) ([]*expense.Expense, error)
}

// Service handles settlement business logic
type Service struct {
	repo       Store
	expenses   ExpenseReader
	events     notification.Publisher
	maxRetries int
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new settlement service. maxRetries bounds how often a
// payment is re-applied after losing a race with another writer.
func NewService(repo Store, expenses ExpenseReader, events notification.Publisher, maxRetries int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = notification.Discard{}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Service{
		repo:       repo,
		expenses:   expenses,
		events:     events,
		maxRetries: maxRetries,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// RecordPayment applies amount from fromMember to the payer of an expense.
// The expense is re-read and the payment re-validated when the write loses a
// compare-and-swap, so a retry never settles more than is outstanding.
func (s *Service) RecordPayment(ctx context.Context, householdID, expenseID, fromMember string, amount money.Cents, actorID string) (*Result, error) {
	for attempt := 0; ; attempt++ {
		e, err := s.expenses.GetByID(ctx, householdID, expenseID)
		if err != nil {
			metrics.PaymentsRecorded.WithLabelValues(metrics.OutcomeFailed).Inc()
			return nil, err
		}
		if e == nil {
			metrics.PaymentsRecorded.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, expense.ErrExpenseNotFound
		}

		res, err := Apply(e, fromMember, amount, s.now())
		if err != nil {
			metrics.PaymentsRecorded.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, err
		}

		err = s.repo.CommitSettlement(ctx, res, e.Version)
		if err == nil {
			s.recorded(householdID, actorID, res)
			return res, nil
		}

		if !errors.Is(err, apperrors.ErrConcurrentModification) {
			metrics.PaymentsRecorded.WithLabelValues(metrics.OutcomeFailed).Inc()
			return nil, err
		}

		metrics.SettlementConflicts.Inc()
		if attempt >= s.maxRetries {
			metrics.PaymentsRecorded.WithLabelValues(metrics.OutcomeConflict).Inc()
			s.logger.Warn("payment lost compare-and-swap, giving up",
				"household_id", householdID,
				"expense_id", expenseID,
				"attempts", attempt+1,
			)
			return nil, err
		}
		s.logger.Info("payment lost compare-and-swap, retrying",
			"household_id", householdID,
			"expense_id", expenseID,
			"attempt", attempt+1,
		)
	}
}

func (s *Service) recorded(householdID, actorID string, res *Result) {
	outcome := metrics.OutcomePartial
	if res.FullySettled {
		outcome = metrics.OutcomeSettled
	}
	metrics.PaymentsRecorded.WithLabelValues(outcome).Inc()

	expenseID := res.Expense.ID
	s.events.Publish(notification.NewEvent(householdID, notification.EventPaymentRecorded,
		notification.WithExpense(expenseID),
		notification.WithPayment(res.Payment.ID),
		notification.WithActor(actorID)))
	if res.FullySettled {
		s.events.Publish(notification.NewEvent(householdID, notification.EventExpenseSettled,
			notification.WithExpense(expenseID),
			notification.WithPayment(res.Payment.ID),
			notification.WithActor(actorID)))
	}

	s.logger.Info("payment recorded",
		"household_id", householdID,
		"expense_id", expenseID,
		"payment_id", res.Payment.ID,
		"from", res.Payment.FromMember,
		"to", res.Payment.ToMember,
		"amount_cents", int64(res.Payment.AmountCents),
		"fully_settled", res.FullySettled,
	)
}

// SettleAll pays off everything fromMember owes toMember, one expense at a
// time. Each expense is settled atomically on its own; a failure on one is
// reported in its Outcome and does not stop the others.
func (s *Service) SettleAll(ctx context.Context, householdID, fromMember, toMember, actorID string) ([]Outcome, error) {
	if fromMember == toMember {
		return nil, ErrSameMember
	}

	active, err := s.expenses.ListActive(ctx, householdID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0)
	for _, e := range active {
		if e.PayerID != toMember {
			continue
		}
		owed := e.Outstanding(fromMember)
		if owed <= 0 {
			continue
		}

		outcome := Outcome{ExpenseID: e.ID}
		res, err := s.RecordPayment(ctx, householdID, e.ID, fromMember, owed, actorID)
		if err != nil {
			outcome.Err = err
			s.logger.Warn("settling expense failed",
				"household_id", householdID,
				"expense_id", e.ID,
				"error", err,
			)
		} else {
			outcome.Payment = res.Payment
			outcome.Deleted = res.FullySettled
		}
		outcomes = append(outcomes, outcome)
	}

	s.logger.Info("settle all finished",
		"household_id", householdID,
		"from", fromMember,
		"to", toMember,
		"expenses", len(outcomes),
	)

	return outcomes, nil
}

// ListPayments retrieves a page of the household's payment history
func (s *Service) ListPayments(ctx context.Context, householdID, member string, page, perPage int) ([]*Payment, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListPayments(ctx, householdID, member, perPage, offset)
}
