package split

import (
	"errors"
	"fmt"

	"github.com/fkhayef/pantryledger/internal/money"
)

// Method identifies how an expense total is divided between participants
type Method string

const (
	MethodEqual  Method = "equal"
	MethodShares Method = "shares"
	MethodCustom Method = "custom"
	MethodPayer  Method = "payer"
)

// SplitInput describes one expense to be split
type SplitInput struct {
	TotalCents   money.Cents
	PayerID      string
	Participants []string

	// Shares holds relative weights for MethodShares
	Shares map[string]int64
	// CustomAmounts holds exact cents per member for MethodCustom
	CustomAmounts map[string]money.Cents
}

// SplitOutput is one participant's computed share
type SplitOutput struct {
	MemberID    string      `json:"member_id"`
	AmountCents money.Cents `json:"amount_cents"`
}

// Result is the full decomposition of a total. RoundingAdjustmentCents is the
// remainder that was added to the first participant's share.
type Result struct {
	Outputs                 []SplitOutput
	RoundingAdjustmentCents money.Cents
}

// Strategy is the interface that all split strategies must implement
type Strategy interface {
	// Calculate computes the share of every participant, in participant order
	Calculate(in SplitInput) (*Result, error)

	// Method returns the identifier for this strategy
	Method() Method

	// Validate checks if the input is valid for this strategy
	Validate(in SplitInput) error
}

// Factory creates split strategies based on the requested method
type Factory struct{}

// NewSplitStrategyFactory creates a new factory instance
func NewSplitStrategyFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementation for a method
func (f *Factory) Create(method Method) (Strategy, error) {
	switch method {
	case MethodEqual, "":
		return &EqualStrategy{}, nil
	case MethodShares:
		return &SharesStrategy{}, nil
	case MethodCustom:
		return &CustomStrategy{}, nil
	case MethodPayer:
		return &PayerStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown split method %q", ErrInvalidSplitInput, method)
	}
}

// CreateFromString creates a strategy from a string method (useful for API requests)
func (f *Factory) CreateFromString(method string) (Strategy, error) {
	return f.Create(Method(method))
}

// Compute looks up the strategy for method and runs it
func (f *Factory) Compute(method Method, in SplitInput) (*Result, error) {
	strategy, err := f.Create(method)
	if err != nil {
		return nil, err
	}
	return strategy.Calculate(in)
}

// ErrInvalidSplitInput is the kind shared by every split validation failure.
var ErrInvalidSplitInput = errors.New("invalid split input")

var (
	ErrNoParticipants        = fmt.Errorf("%w: at least one participant is required", ErrInvalidSplitInput)
	ErrDuplicateParticipant  = fmt.Errorf("%w: participants must be unique", ErrInvalidSplitInput)
	ErrEmptyParticipant      = fmt.Errorf("%w: participant id cannot be empty", ErrInvalidSplitInput)
	ErrNegativeAmount        = fmt.Errorf("%w: amounts cannot be negative", ErrInvalidSplitInput)
	ErrMissingShare          = fmt.Errorf("%w: a positive share is required for every participant", ErrInvalidSplitInput)
	ErrShareTooLarge         = fmt.Errorf("%w: share weight exceeds the maximum", ErrInvalidSplitInput)
	ErrMissingCustomAmount   = fmt.Errorf("%w: a custom amount is required for every participant", ErrInvalidSplitInput)
	ErrCustomAmountsMismatch = fmt.Errorf("%w: custom amounts must sum to the total", ErrInvalidSplitInput)
	ErrUnknownMember         = fmt.Errorf("%w: amount given for a member who is not a participant", ErrInvalidSplitInput)
	ErrPayerNotParticipant   = fmt.Errorf("%w: payer must be a participant", ErrInvalidSplitInput)
)

// validateCommon enforces the rules every strategy shares: a non-negative total
// and a non-empty list of unique participant ids.
func validateCommon(in SplitInput) error {
	if in.TotalCents < 0 {
		return ErrNegativeAmount
	}
	if len(in.Participants) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[string]struct{}, len(in.Participants))
	for _, p := range in.Participants {
		if p == "" {
			return ErrEmptyParticipant
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// ComputeEntries splits total equally between participants. The remainder of
// the integer division goes to the first participant in the given order.
func ComputeEntries(total money.Cents, participants []string) ([]SplitOutput, error) {
	res, err := (&EqualStrategy{}).Calculate(SplitInput{TotalCents: total, Participants: participants})
	if err != nil {
		return nil, err
	}
	return res.Outputs, nil
}

// Sum returns the total of all outputs
func Sum(outputs []SplitOutput) money.Cents {
	var total money.Cents
	for _, o := range outputs {
		total += o.AmountCents
	}
	return total
}
