package expense

import (
	"time"

	"github.com/fkhayef/pantryledger/internal/expense/split"
	"github.com/fkhayef/pantryledger/internal/money"
)

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	PayerID       string                 `json:"payer_id" validate:"required,max=128"`
	TotalCents    money.Cents            `json:"total_cents" validate:"gte=0"`
	Currency      string                 `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Participants  []string               `json:"participants" validate:"required,min=1,dive,required,max=128"`
	Method        split.Method           `json:"method,omitempty" validate:"omitempty,oneof=equal shares custom payer"`
	Shares        map[string]int64       `json:"shares,omitempty" validate:"omitempty,dive,gt=0,lte=1000000"`
	CustomAmounts map[string]money.Cents `json:"custom_amounts,omitempty"`
	LinkedItemID  *string                `json:"linked_item_id,omitempty" validate:"omitempty,max=128"`
	Note          string                 `json:"note,omitempty" validate:"max=500"`
}

// UpdateExpenseRequest represents the request to update an expense.
// Nil fields are left unchanged; an empty linked_item_id unlinks the item.
type UpdateExpenseRequest struct {
	PayerID       *string                `json:"payer_id,omitempty" validate:"omitempty,min=1,max=128"`
	TotalCents    *money.Cents           `json:"total_cents,omitempty" validate:"omitempty,gte=0"`
	Participants  []string               `json:"participants,omitempty" validate:"omitempty,min=1,dive,required,max=128"`
	Method        *split.Method          `json:"method,omitempty" validate:"omitempty,oneof=equal shares custom payer"`
	Shares        map[string]int64       `json:"shares,omitempty" validate:"omitempty,dive,gt=0,lte=1000000"`
	CustomAmounts map[string]money.Cents `json:"custom_amounts,omitempty"`
	LinkedItemID  *string                `json:"linked_item_id,omitempty" validate:"omitempty,max=128"`
	Note          *string                `json:"note,omitempty" validate:"omitempty,max=500"`

	// Version, when set, must match the stored version
	Version *int64 `json:"version,omitempty"`
}

// changesSplit reports whether the request touches anything that feeds the split
func (r *UpdateExpenseRequest) changesSplit() bool {
	return r.PayerID != nil || r.TotalCents != nil || r.Participants != nil ||
		r.Method != nil || r.Shares != nil || r.CustomAmounts != nil
}

// EntryResponse represents one participant's obligation
type EntryResponse struct {
	MemberID         string      `json:"member_id"`
	AmountCents      money.Cents `json:"amount_cents"`
	SettledCents     money.Cents `json:"settled_cents"`
	OutstandingCents money.Cents `json:"outstanding_cents"`
	ShareWeight      *int64      `json:"share_weight,omitempty"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID                      string           `json:"id"`
	HouseholdID             string           `json:"household_id"`
	CreatedBy               string           `json:"created_by"`
	PayerID                 string           `json:"payer_id"`
	TotalCents              money.Cents      `json:"total_cents"`
	TotalDisplay            string           `json:"total_display"`
	Currency                string           `json:"currency"`
	Method                  split.Method     `json:"method"`
	Participants            []string         `json:"participants"`
	Entries                 []*EntryResponse `json:"entries"`
	OutstandingCents        money.Cents      `json:"outstanding_cents"`
	RoundingAdjustmentCents money.Cents      `json:"rounding_adjustment_cents"`
	Status                  Status           `json:"status"`
	LinkedItemID            *string          `json:"linked_item_id,omitempty"`
	Note                    string           `json:"note,omitempty"`
	Version                 int64            `json:"version"`
	CreatedAt               string           `json:"created_at"`
	UpdatedAt               string           `json:"updated_at"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	entries := e.EffectiveEntries()
	resp := &ExpenseResponse{
		ID:                      e.ID,
		HouseholdID:             e.HouseholdID,
		CreatedBy:               e.CreatedBy,
		PayerID:                 e.PayerID,
		TotalCents:              e.TotalCents,
		TotalDisplay:            e.TotalCents.Format(e.Currency),
		Currency:                e.Currency,
		Method:                  e.Method,
		Participants:            e.Participants,
		Entries:                 make([]*EntryResponse, len(entries)),
		OutstandingCents:        e.OutstandingTotal(),
		RoundingAdjustmentCents: e.RoundingAdjustmentCents,
		Status:                  e.Status,
		LinkedItemID:            e.LinkedItemID,
		Note:                    e.Note,
		Version:                 e.Version,
		CreatedAt:               e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:               e.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for i, entry := range entries {
		outstanding := entry.Outstanding()
		if entry.MemberID == e.PayerID {
			outstanding = 0
		}
		resp.Entries[i] = &EntryResponse{
			MemberID:         entry.MemberID,
			AmountCents:      entry.AmountCents,
			SettledCents:     entry.SettledCents,
			OutstandingCents: outstanding,
			ShareWeight:      entry.ShareWeight,
		}
	}
	return resp
}
