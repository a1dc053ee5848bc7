package expense

import (
	"time"

	"github.com/fkhayef/pantryledger/internal/expense/split"
	"github.com/fkhayef/pantryledger/internal/money"
)

// Status represents where an expense is in its settlement lifecycle
type Status string

const (
	StatusOpen             Status = "open"
	StatusPartiallySettled Status = "partially_settled"
	StatusSettled          Status = "settled" // transient: settled expenses are deleted
	StatusCancelled        Status = "cancelled"
)

// Entry is one participant's obligation on an expense.
// 0 <= SettledCents <= AmountCents always holds.
type Entry struct {
	MemberID     string      `json:"member_id"`
	AmountCents  money.Cents `json:"amount_cents"`
	SettledCents money.Cents `json:"settled_cents"`
	ShareWeight  *int64      `json:"share_weight,omitempty"`
}

// Outstanding returns what is still owed on the entry
func (e Entry) Outstanding() money.Cents {
	return e.AmountCents - e.SettledCents
}

// Expense is one shared cost recorded against a household
type Expense struct {
	ID                      string       `json:"id"`
	HouseholdID             string       `json:"household_id"`
	CreatedBy               string       `json:"created_by"`
	PayerID                 string       `json:"payer_id"`
	TotalCents              money.Cents  `json:"total_cents"`
	Currency                string       `json:"currency"`
	Method                  split.Method `json:"method"`
	Participants            []string     `json:"participants"`
	Entries                 []Entry      `json:"entries"`
	RoundingAdjustmentCents money.Cents  `json:"rounding_adjustment_cents"`
	Status                  Status       `json:"status"`
	LinkedItemID            *string      `json:"linked_item_id,omitempty"`
	Note                    string       `json:"note,omitempty"`
	CreatedAt               time.Time    `json:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at"`

	// Version is bumped by every write and guards compare-and-swap updates
	Version int64 `json:"version"`
}

// EffectiveEntries returns the stored entries, or an equal split of the total
// over the participants for records that were saved without entries.
func (e *Expense) EffectiveEntries() []Entry {
	if len(e.Entries) > 0 {
		return e.Entries
	}
	outputs, err := split.ComputeEntries(e.TotalCents, e.Participants)
	if err != nil {
		return nil
	}
	entries := make([]Entry, len(outputs))
	for i, o := range outputs {
		entries[i] = Entry{MemberID: o.MemberID, AmountCents: o.AmountCents}
	}
	return entries
}

// EntryFor returns the index of memberID's entry, or -1
func (e *Expense) EntryFor(memberID string) int {
	for i, entry := range e.Entries {
		if entry.MemberID == memberID {
			return i
		}
	}
	return -1
}

// Outstanding returns what memberID still owes the payer on this expense.
// The payer never owes themselves.
func (e *Expense) Outstanding(memberID string) money.Cents {
	if memberID == e.PayerID {
		return 0
	}
	for _, entry := range e.EffectiveEntries() {
		if entry.MemberID == memberID {
			return entry.Outstanding()
		}
	}
	return 0
}

// OutstandingTotal sums what every non-payer participant still owes
func (e *Expense) OutstandingTotal() money.Cents {
	var total money.Cents
	for _, entry := range e.EffectiveEntries() {
		if entry.MemberID != e.PayerID {
			total += entry.Outstanding()
		}
	}
	return total
}

// IsFullySettled reports whether every non-payer entry is paid off
func (e *Expense) IsFullySettled() bool {
	return e.OutstandingTotal() == 0
}

// HasSettlements reports whether any payment has been applied
func (e *Expense) HasSettlements() bool {
	for _, entry := range e.Entries {
		if entry.SettledCents > 0 {
			return true
		}
	}
	return false
}

// IsActive reports whether the expense can still take payments
func (e *Expense) IsActive() bool {
	return e.Status == StatusOpen || e.Status == StatusPartiallySettled
}

// Clone returns a deep copy
func (e *Expense) Clone() *Expense {
	c := *e
	c.Participants = append([]string(nil), e.Participants...)
	c.Entries = make([]Entry, len(e.Entries))
	for i, entry := range e.Entries {
		c.Entries[i] = entry
		if entry.ShareWeight != nil {
			w := *entry.ShareWeight
			c.Entries[i].ShareWeight = &w
		}
	}
	if e.LinkedItemID != nil {
		item := *e.LinkedItemID
		c.LinkedItemID = &item
	}
	return &c
}

// SplitInput rebuilds the calculator input the expense was split with
func (e *Expense) SplitInput() split.SplitInput {
	in := split.SplitInput{
		TotalCents:   e.TotalCents,
		PayerID:      e.PayerID,
		Participants: append([]string(nil), e.Participants...),
	}
	switch e.Method {
	case split.MethodShares:
		in.Shares = make(map[string]int64, len(e.Entries))
		for _, entry := range e.Entries {
			if entry.ShareWeight != nil {
				in.Shares[entry.MemberID] = *entry.ShareWeight
			}
		}
	case split.MethodCustom:
		in.CustomAmounts = make(map[string]money.Cents, len(e.Entries))
		for _, entry := range e.Entries {
			in.CustomAmounts[entry.MemberID] = entry.AmountCents
		}
	}
	return in
}

// entriesFromResult turns calculator output into fresh, unsettled entries
func entriesFromResult(res *split.Result, shares map[string]int64) []Entry {
	entries := make([]Entry, len(res.Outputs))
	for i, o := range res.Outputs {
		entries[i] = Entry{MemberID: o.MemberID, AmountCents: o.AmountCents}
		if w, ok := shares[o.MemberID]; ok {
			weight := w
			entries[i].ShareWeight = &weight
		}
	}
	return entries
}
