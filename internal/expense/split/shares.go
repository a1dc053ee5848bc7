package split

import (
	"fmt"
	"math/big"

	"github.com/fkhayef/pantryledger/internal/money"
)

// =============================================================================
// SHARES SPLIT STRATEGY
// Divides the total by relative integer weights (e.g. 2:1:1)
// =============================================================================

// MaxShareWeight bounds a single participant's weight
const MaxShareWeight = 1_000_000

// SharesStrategy implements the Strategy interface for weighted splits
type SharesStrategy struct{}

// Method returns the split method identifier
func (s *SharesStrategy) Method() Method {
	return MethodShares
}

// Validate checks that every participant has a positive weight and no weight
// is given for a non-participant
func (s *SharesStrategy) Validate(in SplitInput) error {
	if err := validateCommon(in); err != nil {
		return err
	}
	for _, p := range in.Participants {
		w, ok := in.Shares[p]
		if !ok || w <= 0 {
			return fmt.Errorf("%w: %s", ErrMissingShare, p)
		}
		if w > MaxShareWeight {
			return fmt.Errorf("%w: %s", ErrShareTooLarge, p)
		}
	}
	if len(in.Shares) != len(in.Participants) {
		return ErrUnknownMember
	}
	return nil
}

// Calculate assigns floor(total*weight/sumWeights) to each participant and the
// leftover cents to the first participant.
func (s *SharesStrategy) Calculate(in SplitInput) (*Result, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	denominator := new(big.Int)
	for _, p := range in.Participants {
		denominator.Add(denominator, big.NewInt(in.Shares[p]))
	}

	total := big.NewInt(int64(in.TotalCents))

	outputs := make([]SplitOutput, len(in.Participants))
	var distributed money.Cents
	for i, memberID := range in.Participants {
		// total*weight can overflow int64 for large weights
		portion := new(big.Int).Mul(total, big.NewInt(in.Shares[memberID]))
		portion.Quo(portion, denominator)
		amount := money.Cents(portion.Int64())
		outputs[i] = SplitOutput{MemberID: memberID, AmountCents: amount}
		distributed += amount
	}

	remainder := in.TotalCents - distributed
	outputs[0].AmountCents += remainder

	return &Result{Outputs: outputs, RoundingAdjustmentCents: remainder}, nil
}
