package split

import "fmt"

// =============================================================================
// CUSTOM SPLIT STRATEGY
// Each participant owes an explicit amount; amounts must sum to the total
// =============================================================================

// CustomStrategy implements the Strategy interface for exact amount splits
type CustomStrategy struct{}

// Method returns the split method identifier
func (s *CustomStrategy) Method() Method {
	return MethodCustom
}

// Validate checks that every participant has a non-negative amount and that
// the amounts add up to the total exactly
func (s *CustomStrategy) Validate(in SplitInput) error {
	if err := validateCommon(in); err != nil {
		return err
	}

	var sum int64
	for _, p := range in.Participants {
		amount, ok := in.CustomAmounts[p]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingCustomAmount, p)
		}
		if amount < 0 {
			return ErrNegativeAmount
		}
		sum += int64(amount)
	}
	if len(in.CustomAmounts) != len(in.Participants) {
		return ErrUnknownMember
	}
	if sum != int64(in.TotalCents) {
		return fmt.Errorf("%w: got %d, want %d", ErrCustomAmountsMismatch, sum, in.TotalCents)
	}
	return nil
}

// Calculate returns the given amounts in participant order
func (s *CustomStrategy) Calculate(in SplitInput) (*Result, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	outputs := make([]SplitOutput, len(in.Participants))
	for i, memberID := range in.Participants {
		outputs[i] = SplitOutput{MemberID: memberID, AmountCents: in.CustomAmounts[memberID]}
	}
	return &Result{Outputs: outputs}, nil
}
