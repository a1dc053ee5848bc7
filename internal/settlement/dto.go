package settlement

import (
	"time"

	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/internal/money"
)

// RecordPaymentRequest represents a payment against one expense.
// From defaults to the acting member.
type RecordPaymentRequest struct {
	From        string      `json:"from,omitempty" validate:"omitempty,max=128"`
	AmountCents money.Cents `json:"amount_cents" validate:"gt=0"`
}

// SettleAllRequest asks to pay off everything From owes To.
// From defaults to the acting member.
type SettleAllRequest struct {
	From string `json:"from,omitempty" validate:"omitempty,max=128"`
	To   string `json:"to" validate:"required,max=128"`
}

// ApplicationResponse represents one slice of a payment
type ApplicationResponse struct {
	ExpenseID   string      `json:"expense_id"`
	MemberID    string      `json:"member_id"`
	AmountCents money.Cents `json:"amount_cents"`
}

// PaymentResponse represents the response for a payment
type PaymentResponse struct {
	ID          string                 `json:"id"`
	HouseholdID string                 `json:"household_id"`
	FromMember  string                 `json:"from_member"`
	ToMember    string                 `json:"to_member"`
	AmountCents money.Cents            `json:"amount_cents"`
	AppliesTo   []*ApplicationResponse `json:"applies_to"`
	CreatedAt   string                 `json:"created_at"`
}

// RecordPaymentResponse is returned after a payment is applied. Expense is
// omitted once the payment settled it, because the expense no longer exists.
type RecordPaymentResponse struct {
	Payment       *PaymentResponse         `json:"payment"`
	ExpenseID     string                   `json:"expense_id"`
	ExpenseStatus expense.Status           `json:"expense_status"`
	Deleted       bool                     `json:"deleted"`
	Expense       *expense.ExpenseResponse `json:"expense,omitempty"`
}

// OutcomeResponse reports one expense of a batch settlement
type OutcomeResponse struct {
	ExpenseID string           `json:"expense_id"`
	Success   bool             `json:"success"`
	Deleted   bool             `json:"deleted"`
	Payment   *PaymentResponse `json:"payment,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// SettleAllResponse summarizes a batch settlement
type SettleAllResponse struct {
	From      string             `json:"from"`
	To        string             `json:"to"`
	PaidCents money.Cents        `json:"paid_cents"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Outcomes  []*OutcomeResponse `json:"outcomes"`
}

// ToResponse converts a Payment model to a PaymentResponse DTO
func (p *Payment) ToResponse() *PaymentResponse {
	resp := &PaymentResponse{
		ID:          p.ID,
		HouseholdID: p.HouseholdID,
		FromMember:  p.FromMember,
		ToMember:    p.ToMember,
		AmountCents: p.AmountCents,
		AppliesTo:   make([]*ApplicationResponse, len(p.AppliesTo)),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	for i, a := range p.AppliesTo {
		resp.AppliesTo[i] = &ApplicationResponse{
			ExpenseID:   a.ExpenseID,
			MemberID:    a.MemberID,
			AmountCents: a.AmountCents,
		}
	}
	return resp
}

// ToResponse converts a Result to a RecordPaymentResponse DTO
func (r *Result) ToResponse() *RecordPaymentResponse {
	resp := &RecordPaymentResponse{
		Payment:       r.Payment.ToResponse(),
		ExpenseID:     r.Expense.ID,
		ExpenseStatus: r.Expense.Status,
		Deleted:       r.FullySettled,
	}
	if !r.FullySettled {
		resp.Expense = r.Expense.ToResponse()
	}
	return resp
}

// newSettleAllResponse folds batch outcomes into a SettleAllResponse
func newSettleAllResponse(from, to string, outcomes []Outcome) *SettleAllResponse {
	resp := &SettleAllResponse{
		From:     from,
		To:       to,
		Outcomes: make([]*OutcomeResponse, len(outcomes)),
	}
	for i, o := range outcomes {
		or := &OutcomeResponse{ExpenseID: o.ExpenseID, Deleted: o.Deleted}
		if o.Err != nil {
			or.Error = o.Err.Error()
			resp.Failed++
		} else {
			or.Success = true
			or.Payment = o.Payment.ToResponse()
			resp.PaidCents += o.Payment.AmountCents
			resp.Succeeded++
		}
		resp.Outcomes[i] = or
	}
	return resp
}
