package settlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/pantryledger/internal/apperrors"
	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/internal/money"
)

// Settlement errors. Every amount problem wraps ErrInvalidSettlementAmount.
var (
	ErrInvalidSettlementAmount = fmt.Errorf("%w: invalid settlement amount", apperrors.ErrValidation)
	ErrNonPositiveAmount       = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidSettlementAmount)
	ErrOverpayment             = fmt.Errorf("%w: amount exceeds what is outstanding", ErrInvalidSettlementAmount)
	ErrPayerOwnShare           = fmt.Errorf("%w: the payer does not owe their own share", ErrInvalidSettlementAmount)
	ErrNoEntryForMember        = fmt.Errorf("%w: member has no entry on this expense", apperrors.ErrValidation)
	ErrExpenseNotActive        = errors.New("expense no longer takes payments")
	ErrSameMember              = fmt.Errorf("%w: cannot settle with yourself", apperrors.ErrValidation)
)

// Apply settles amount of fromMember's entry on e. It validates against the
// current state of e and returns an updated copy together with the payment
// that records the transfer. Nothing is clamped: an amount above what is
// outstanding is rejected and e is left untouched.
func Apply(e *expense.Expense, fromMember string, amount money.Cents, at time.Time) (*Result, error) {
	if e.Status == expense.StatusCancelled {
		return nil, expense.ErrExpenseCancelled
	}
	if !e.IsActive() {
		return nil, ErrExpenseNotActive
	}
	if fromMember == e.PayerID {
		return nil, ErrPayerOwnShare
	}

	updated := e.Clone()
	if len(updated.Entries) == 0 {
		updated.Entries = append([]expense.Entry(nil), e.EffectiveEntries()...)
	}

	idx := updated.EntryFor(fromMember)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEntryForMember, fromMember)
	}
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	outstanding := updated.Entries[idx].Outstanding()
	if amount > outstanding {
		return nil, fmt.Errorf("%w: paying %d with %d outstanding", ErrOverpayment, amount, outstanding)
	}

	updated.Entries[idx].SettledCents += amount
	updated.UpdatedAt = at

	fully := updated.IsFullySettled()
	if fully {
		updated.Status = expense.StatusSettled
	} else {
		updated.Status = expense.StatusPartiallySettled
	}

	payment := &Payment{
		ID:          uuid.NewString(),
		HouseholdID: e.HouseholdID,
		FromMember:  fromMember,
		ToMember:    e.PayerID,
		AmountCents: amount,
		AppliesTo: []Application{{
			ExpenseID:   e.ID,
			MemberID:    fromMember,
			AmountCents: amount,
		}},
		CreatedAt: at,
	}

	return &Result{Expense: updated, Payment: payment, FullySettled: fully}, nil
}
