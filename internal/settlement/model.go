package settlement

import (
	"time"

	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/internal/money"
)

// Application records how much of a payment went to one member's entry on one expense
type Application struct {
	ExpenseID   string      `json:"expense_id"`
	MemberID    string      `json:"member_id"`
	AmountCents money.Cents `json:"amount_cents"`
}

// Payment is an immutable transfer from a participant to an expense payer
type Payment struct {
	ID          string        `json:"id"`
	HouseholdID string        `json:"household_id"`
	FromMember  string        `json:"from_member"`
	ToMember    string        `json:"to_member"`
	AmountCents money.Cents   `json:"amount_cents"`
	AppliesTo   []Application `json:"applies_to"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Result is the outcome of applying one payment to one expense
type Result struct {
	// Expense is the updated copy; the caller's expense is never modified
	Expense *expense.Expense
	Payment *Payment

	// FullySettled means the expense has nothing left outstanding and is removed
	FullySettled bool
}

// Outcome reports what happened to one expense during a batch settlement
type Outcome struct {
	ExpenseID string
	Payment   *Payment
	Deleted   bool
	Err       error
}
