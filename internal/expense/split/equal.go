package split

import "github.com/fkhayef/pantryledger/internal/money"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the total equally; the first participant absorbs the remainder
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Method returns the split method identifier
func (s *EqualStrategy) Method() Method {
	return MethodEqual
}

// Validate checks if the input is valid for an equal split
func (s *EqualStrategy) Validate(in SplitInput) error {
	return validateCommon(in)
}

// Calculate gives every participant floor(total/n) and adds the remainder to
// the first participant, so the outputs always sum to the total.
func (s *EqualStrategy) Calculate(in SplitInput) (*Result, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	n := money.Cents(len(in.Participants))
	share := in.TotalCents / n
	remainder := in.TotalCents - share*n

	outputs := make([]SplitOutput, len(in.Participants))
	for i, memberID := range in.Participants {
		outputs[i] = SplitOutput{MemberID: memberID, AmountCents: share}
	}
	outputs[0].AmountCents += remainder

	return &Result{Outputs: outputs, RoundingAdjustmentCents: remainder}, nil
}
