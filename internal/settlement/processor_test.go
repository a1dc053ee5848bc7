package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/internal/expense/split"
	"github.com/fkhayef/pantryledger/internal/money"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// groceries: X paid 1000, split equally between X and Y
func groceries() *expense.Expense {
	return &expense.Expense{
		ID:           "exp-1",
		HouseholdID:  "home",
		PayerID:      "x",
		TotalCents:   1000,
		Currency:     "USD",
		Method:       split.MethodEqual,
		Participants: []string{"x", "y"},
		Entries: []expense.Entry{
			{MemberID: "x", AmountCents: 500},
			{MemberID: "y", AmountCents: 500},
		},
		Status:  expense.StatusOpen,
		Version: 3,
	}
}

func TestApply_FullSettlement(t *testing.T) {
	e := groceries()

	res, err := Apply(e, "y", 500, testNow)
	require.NoError(t, err)

	assert.True(t, res.FullySettled)
	assert.Equal(t, expense.StatusSettled, res.Expense.Status)
	assert.Equal(t, money.Cents(500), res.Expense.Entries[1].SettledCents)

	p := res.Payment
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "y", p.FromMember)
	assert.Equal(t, "x", p.ToMember)
	assert.Equal(t, money.Cents(500), p.AmountCents)
	assert.Equal(t, []Application{{ExpenseID: "exp-1", MemberID: "y", AmountCents: 500}}, p.AppliesTo)
	assert.Equal(t, testNow, p.CreatedAt)
}

func TestApply_PartialSettlement(t *testing.T) {
	e := groceries()

	res, err := Apply(e, "y", 200, testNow)
	require.NoError(t, err)

	assert.False(t, res.FullySettled)
	assert.Equal(t, expense.StatusPartiallySettled, res.Expense.Status)
	assert.Equal(t, money.Cents(200), res.Expense.Entries[1].SettledCents)
	assert.Equal(t, money.Cents(300), res.Expense.Outstanding("y"))
	assert.Equal(t, testNow, res.Expense.UpdatedAt)

	// the input is left alone
	assert.Equal(t, money.Cents(0), e.Entries[1].SettledCents)
	assert.Equal(t, expense.StatusOpen, e.Status)
}

func TestApply_SettledNeverExceedsAmount(t *testing.T) {
	e := groceries()

	first, err := Apply(e, "y", 300, testNow)
	require.NoError(t, err)

	_, err = Apply(first.Expense, "y", 201, testNow)
	assert.ErrorIs(t, err, ErrOverpayment)
	assert.ErrorIs(t, err, ErrInvalidSettlementAmount)
	assert.Equal(t, money.Cents(300), first.Expense.Entries[1].SettledCents)

	second, err := Apply(first.Expense, "y", 200, testNow)
	require.NoError(t, err)
	assert.True(t, second.FullySettled)
}

func TestApply_Rejections(t *testing.T) {
	cancelled := groceries()
	cancelled.Status = expense.StatusCancelled

	tests := []struct {
		name    string
		expense *expense.Expense
		from    string
		amount  money.Cents
		wantErr error
	}{
		{"overpayment", groceries(), "y", 501, ErrInvalidSettlementAmount},
		{"zero amount", groceries(), "y", 0, ErrNonPositiveAmount},
		{"negative amount", groceries(), "y", -5, ErrInvalidSettlementAmount},
		{"payer settles own share", groceries(), "x", 100, ErrPayerOwnShare},
		{"member without entry", groceries(), "z", 100, ErrNoEntryForMember},
		{"cancelled expense", cancelled, "y", 100, expense.ErrExpenseCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.expense.Clone()

			res, err := Apply(tt.expense, tt.from, tt.amount, testNow)

			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, tt.expense)
		})
	}
}

func TestApply_ThreeWayRemainder(t *testing.T) {
	// 100 over a, b, c: a paid and keeps the extra cent
	e := &expense.Expense{
		ID:           "exp-2",
		HouseholdID:  "home",
		PayerID:      "a",
		TotalCents:   100,
		Participants: []string{"a", "b", "c"},
		Entries: []expense.Entry{
			{MemberID: "a", AmountCents: 34},
			{MemberID: "b", AmountCents: 33},
			{MemberID: "c", AmountCents: 33},
		},
		Status: expense.StatusOpen,
	}

	res, err := Apply(e, "b", 33, testNow)
	require.NoError(t, err)
	assert.False(t, res.FullySettled, "c still owes")

	res, err = Apply(res.Expense, "c", 33, testNow)
	require.NoError(t, err)
	assert.True(t, res.FullySettled)
}

func TestApply_LegacyExpenseWithoutEntries(t *testing.T) {
	e := groceries()
	e.Entries = nil

	res, err := Apply(e, "y", 500, testNow)
	require.NoError(t, err)

	require.Len(t, res.Expense.Entries, 2)
	assert.True(t, res.FullySettled)
	assert.Nil(t, e.Entries)
}

func TestApply_NothingOwedTakesNoPayment(t *testing.T) {
	e := groceries()
	e.Method = split.MethodPayer
	e.Entries = []expense.Entry{
		{MemberID: "x", AmountCents: 1000},
		{MemberID: "y", AmountCents: 0},
	}

	_, err := Apply(e, "y", 1, testNow)

	assert.ErrorIs(t, err, ErrOverpayment)
	assert.Zero(t, e.Entries[1].SettledCents)
}
