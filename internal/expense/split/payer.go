package split

// PayerStrategy puts the whole cost on the payer; the other participants are
// recorded with a zero share so they still show up on the expense.
type PayerStrategy struct{}

// Method returns the split method identifier
func (s *PayerStrategy) Method() Method {
	return MethodPayer
}

// Validate requires the payer to be one of the participants
func (s *PayerStrategy) Validate(in SplitInput) error {
	if err := validateCommon(in); err != nil {
		return err
	}
	for _, p := range in.Participants {
		if p == in.PayerID {
			return nil
		}
	}
	return ErrPayerNotParticipant
}

// Calculate assigns the total to the payer
func (s *PayerStrategy) Calculate(in SplitInput) (*Result, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	outputs := make([]SplitOutput, len(in.Participants))
	for i, memberID := range in.Participants {
		outputs[i] = SplitOutput{MemberID: memberID}
		if memberID == in.PayerID {
			outputs[i].AmountCents = in.TotalCents
		}
	}
	return &Result{Outputs: outputs}, nil
}
