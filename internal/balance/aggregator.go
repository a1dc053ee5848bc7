package balance

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/internal/household"
	"github.com/fkhayef/pantryledger/internal/money"
)

// Compute returns the signed net balance between viewer and every other
// member: positive means the member owes the viewer, negative means the viewer
// owes the member. Members of the directory with nothing outstanding are
// present with zero. Cancelled expenses are ignored.
func Compute(expenses []*expense.Expense, members []household.Member, viewer string) map[string]money.Cents {
	net := make(map[string]money.Cents, len(members))
	for _, m := range members {
		if m.ID != viewer {
			net[m.ID] = 0
		}
	}

	for _, e := range expenses {
		if e.Status == expense.StatusCancelled {
			continue
		}
		for _, entry := range e.EffectiveEntries() {
			if entry.MemberID == e.PayerID {
				continue
			}
			outstanding := entry.Outstanding()
			switch viewer {
			case e.PayerID:
				net[entry.MemberID] += outstanding
			case entry.MemberID:
				net[e.PayerID] -= outstanding
			}
		}
	}

	return net
}

// ExpenseShare is one expense contributing to a pairwise balance
type ExpenseShare struct {
	ExpenseID string `json:"expense_id"`
	PayerID   string `json:"payer_id"`
	Note      string `json:"note,omitempty"`

	// OutstandingCents is signed like the balance it contributes to
	OutstandingCents money.Cents `json:"outstanding_cents"`
}

// MemberBalance is the viewer's balance with one other member
type MemberBalance struct {
	MemberID string         `json:"member_id"`
	Name     string         `json:"name"`
	NetCents money.Cents    `json:"net_cents"`
	Expenses []ExpenseShare `json:"expenses"`
}

// Summary is the viewer's balance sheet
type Summary struct {
	Viewer         string          `json:"viewer"`
	TotalOwedToYou money.Cents     `json:"total_owed_to_you_cents"`
	TotalYouOwe    money.Cents     `json:"total_you_owe_cents"`
	NetCents       money.Cents     `json:"net_cents"`
	OwesYou        []MemberBalance `json:"owes_you"`
	YouOwe         []MemberBalance `json:"you_owe"`
	Settled        []MemberBalance `json:"settled"`
}

// Summarize groups the balances of Compute for display: members who owe the
// viewer (largest first), members the viewer owes (largest debt first) and
// members who are square (by name).
func Summarize(expenses []*expense.Expense, members []household.Member, viewer string) *Summary {
	net := Compute(expenses, members, viewer)
	names := household.NameIndex(members)
	shares := sharesByMember(expenses, viewer)

	s := &Summary{
		Viewer:  viewer,
		OwesYou: make([]MemberBalance, 0),
		YouOwe:  make([]MemberBalance, 0),
		Settled: make([]MemberBalance, 0),
	}

	for memberID, cents := range net {
		name, ok := names[memberID]
		if !ok || name == "" {
			name = memberID
		}
		mb := MemberBalance{
			MemberID: memberID,
			Name:     name,
			NetCents: cents,
			Expenses: shares[memberID],
		}
		if mb.Expenses == nil {
			mb.Expenses = make([]ExpenseShare, 0)
		}

		switch {
		case cents > 0:
			s.OwesYou = append(s.OwesYou, mb)
			s.TotalOwedToYou += cents
		case cents < 0:
			s.YouOwe = append(s.YouOwe, mb)
			s.TotalYouOwe += cents.Abs()
		default:
			s.Settled = append(s.Settled, mb)
		}
	}
	s.NetCents = s.TotalOwedToYou - s.TotalYouOwe

	slices.SortFunc(s.OwesYou, func(a, b MemberBalance) int {
		return cmp.Or(cmp.Compare(b.NetCents, a.NetCents), byName(a, b))
	})
	slices.SortFunc(s.YouOwe, func(a, b MemberBalance) int {
		return cmp.Or(cmp.Compare(a.NetCents, b.NetCents), byName(a, b))
	})
	slices.SortFunc(s.Settled, byName)

	return s
}

// sharesByMember lists, per counterparty, the expenses where money is still
// outstanding between them and viewer
func sharesByMember(expenses []*expense.Expense, viewer string) map[string][]ExpenseShare {
	shares := make(map[string][]ExpenseShare)
	for _, e := range expenses {
		if e.Status == expense.StatusCancelled {
			continue
		}
		for _, entry := range e.EffectiveEntries() {
			if entry.MemberID == e.PayerID {
				continue
			}
			outstanding := entry.Outstanding()
			if outstanding <= 0 {
				continue
			}
			share := ExpenseShare{ExpenseID: e.ID, PayerID: e.PayerID, Note: e.Note}
			switch viewer {
			case e.PayerID:
				share.OutstandingCents = outstanding
				shares[entry.MemberID] = append(shares[entry.MemberID], share)
			case entry.MemberID:
				share.OutstandingCents = -outstanding
				shares[e.PayerID] = append(shares[e.PayerID], share)
			}
		}
	}
	return shares
}

func byName(a, b MemberBalance) int {
	return cmp.Or(
		cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		cmp.Compare(a.MemberID, b.MemberID),
	)
}
