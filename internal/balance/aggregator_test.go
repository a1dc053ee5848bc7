package balance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/internal/household"
	"github.com/fkhayef/pantryledger/internal/money"
	"github.com/fkhayef/pantryledger/pkg/middleware"
)

var testMembers = []household.Member{
	{ID: "x", Name: "Xavier"},
	{ID: "y", Name: "Yara"},
	{ID: "z", Name: "zoe"},
	{ID: "w", Name: "Wen"},
}

func paidBy(id, payer string, entries ...expense.Entry) *expense.Expense {
	var total money.Cents
	participants := make([]string, len(entries))
	for i, e := range entries {
		total += e.AmountCents
		participants[i] = e.MemberID
	}
	return &expense.Expense{
		ID:           id,
		HouseholdID:  "home",
		PayerID:      payer,
		TotalCents:   total,
		Participants: participants,
		Entries:      entries,
		Status:       expense.StatusOpen,
	}
}

func entryOf(member string, amount, settled money.Cents) expense.Entry {
	return expense.Entry{MemberID: member, AmountCents: amount, SettledCents: settled}
}

func TestCompute_Symmetry(t *testing.T) {
	expenses := []*expense.Expense{
		paidBy("e1", "x", entryOf("x", 500, 0), entryOf("y", 500, 0)),
	}

	assert.Equal(t, money.Cents(500), Compute(expenses, testMembers, "x")["y"])
	assert.Equal(t, money.Cents(-500), Compute(expenses, testMembers, "y")["x"])
}

func TestCompute_EmptyLedger(t *testing.T) {
	net := Compute(nil, testMembers, "x")

	assert.Len(t, net, 3)
	for id, cents := range net {
		assert.Zero(t, cents, id)
	}
	assert.NotContains(t, net, "x")
}

func TestCompute(t *testing.T) {
	cancelled := paidBy("e4", "x", entryOf("x", 100, 0), entryOf("z", 900, 0))
	cancelled.Status = expense.StatusCancelled

	legacy := paidBy("e5", "w", entryOf("x", 0, 0))
	legacy.Entries = nil
	legacy.Participants = []string{"w", "x", "y"}
	legacy.TotalCents = 100

	tests := []struct {
		name     string
		expenses []*expense.Expense
		viewer   string
		want     map[string]money.Cents
	}{
		{
			name: "partial settlement counts only what is left",
			expenses: []*expense.Expense{
				paidBy("e1", "x", entryOf("x", 500, 0), entryOf("y", 500, 200)),
			},
			viewer: "x",
			want:   map[string]money.Cents{"y": 300, "z": 0, "w": 0},
		},
		{
			name: "debts in both directions net out",
			expenses: []*expense.Expense{
				paidBy("e1", "x", entryOf("x", 500, 0), entryOf("y", 500, 0)),
				paidBy("e2", "y", entryOf("x", 700, 0), entryOf("y", 700, 0)),
			},
			viewer: "x",
			want:   map[string]money.Cents{"y": -200, "z": 0, "w": 0},
		},
		{
			name:     "cancelled expenses are ignored",
			expenses: []*expense.Expense{cancelled},
			viewer:   "x",
			want:     map[string]money.Cents{"y": 0, "z": 0, "w": 0},
		},
		{
			name:     "expenses between other members do not matter",
			expenses: []*expense.Expense{paidBy("e3", "y", entryOf("y", 50, 0), entryOf("z", 50, 0))},
			viewer:   "x",
			want:     map[string]money.Cents{"y": 0, "z": 0, "w": 0},
		},
		{
			name:     "legacy expenses use derived entries",
			expenses: []*expense.Expense{legacy},
			viewer:   "x",
			want:     map[string]money.Cents{"y": 0, "z": 0, "w": -33},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.expenses, testMembers, tt.viewer))
		})
	}
}

func TestSummarize_Grouping(t *testing.T) {
	expenses := []*expense.Expense{
		paidBy("e1", "x", entryOf("x", 100, 0), entryOf("y", 300, 0), entryOf("z", 800, 0)),
		paidBy("e2", "y", entryOf("y", 100, 0), entryOf("x", 100, 0)),
	}

	s := Summarize(expenses, testMembers, "x")

	require.Len(t, s.OwesYou, 2)
	assert.Equal(t, "z", s.OwesYou[0].MemberID, "largest amount first")
	assert.Equal(t, money.Cents(800), s.OwesYou[0].NetCents)
	assert.Equal(t, "y", s.OwesYou[1].MemberID)
	assert.Equal(t, money.Cents(200), s.OwesYou[1].NetCents)

	require.Len(t, s.OwesYou[1].Expenses, 2)
	assert.Empty(t, s.YouOwe)

	require.Len(t, s.Settled, 1)
	assert.Equal(t, "Wen", s.Settled[0].Name)

	assert.Equal(t, money.Cents(1000), s.TotalOwedToYou)
	assert.Zero(t, s.TotalYouOwe)
	assert.Equal(t, money.Cents(1000), s.NetCents)
}

func TestSummarize_YouOweAndUnknownMembers(t *testing.T) {
	expenses := []*expense.Expense{
		paidBy("e1", "y", entryOf("y", 100, 0), entryOf("x", 100, 0)),
		paidBy("e2", "ghost", entryOf("ghost", 100, 0), entryOf("x", 400, 0)),
	}

	s := Summarize(expenses, testMembers, "x")

	require.Len(t, s.YouOwe, 2)
	assert.Equal(t, "ghost", s.YouOwe[0].MemberID, "largest debt first")
	assert.Equal(t, "ghost", s.YouOwe[0].Name)
	assert.Equal(t, money.Cents(-400), s.YouOwe[0].NetCents)
	assert.Equal(t, []ExpenseShare{{ExpenseID: "e2", PayerID: "ghost", OutstandingCents: -400}}, s.YouOwe[0].Expenses)

	assert.Equal(t, money.Cents(500), s.TotalYouOwe)
	assert.Equal(t, money.Cents(-500), s.NetCents)

	names := []string{}
	for _, m := range s.Settled {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Wen", "zoe"}, names, "settled members sort by name ignoring case")
}

type stubLister struct {
	expenses []*expense.Expense
	err      error
}

func (s stubLister) ListActive(context.Context, string) ([]*expense.Expense, error) {
	return s.expenses, s.err
}

type stubDirectory []household.Member

func (d stubDirectory) ListMembers(context.Context, string) ([]household.Member, error) {
	return d, nil
}

func TestHandler_Get(t *testing.T) {
	svc := NewService(stubLister{expenses: []*expense.Expense{
		paidBy("e1", "x", entryOf("x", 500, 0), entryOf("y", 500, 0)),
	}}, stubDirectory(testMembers))

	r := chi.NewRouter()
	r.Use(middleware.MemberIdentity)
	r.Mount("/households/{householdId}/balances", NewHandler(svc).Routes())

	t.Run("viewer from header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/households/home/balances", nil)
		req.Header.Set(middleware.MemberIDHeader, "y")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Success bool    `json:"success"`
			Data    Summary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, "y", body.Data.Viewer)
		assert.Equal(t, money.Cents(500), body.Data.TotalYouOwe)
	})

	t.Run("viewer query overrides header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/households/home/balances?viewer=x", nil)
		req.Header.Set(middleware.MemberIDHeader, "y")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total_owed_to_you_cents":500`)
	})

	t.Run("no viewer", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/households/home/balances", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestService_PropagatesErrors(t *testing.T) {
	svc := NewService(stubLister{err: errors.New("boom")}, stubDirectory(testMembers))

	_, err := svc.Balances(context.Background(), "home", "x")

	assert.Error(t, err)
}
