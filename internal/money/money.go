package money

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units. All ledger arithmetic happens on
// Cents; decimal values only appear when parsing input or formatting output.
type Cents int64

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrFractionalCents = errors.New("amount in cents must be a whole number")
)

const minorUnitExponent = -2

// Add returns c + o
func (c Cents) Add(o Cents) Cents { return c + o }

// Sub returns c - o
func (c Cents) Sub(o Cents) Cents { return c - o }

// IsNegative reports whether c < 0
func (c Cents) IsNegative() bool { return c < 0 }

// IsZero reports whether c == 0
func (c Cents) IsZero() bool { return c == 0 }

// Abs returns the absolute value of c
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// Decimal converts c to major units, e.g. 1234 -> 12.34
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), minorUnitExponent)
}

// String formats c in major units with two fractional digits.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Format prefixes the formatted amount with a currency code.
func (c Cents) Format(currency string) string {
	if currency == "" {
		return c.String()
	}
	return currency + " " + c.String()
}

// Parse converts a major-unit decimal string ("12.34") into cents.
// Negative values and more than two fractional digits are rejected.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	scaled := d.Shift(-minorUnitExponent)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidAmount, s)
	}
	if scaled.GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return Cents(scaled.IntPart()), nil
}

const maxCents = 1<<53 - 1

// UnmarshalJSON only accepts integral JSON numbers so that a float sent by a
// client ("amount_cents": 12.5) never reaches the ledger.
func (c *Cents) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if raw == "null" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, raw)
	}
	if !d.IsInteger() {
		return fmt.Errorf("%w: got %s", ErrFractionalCents, raw)
	}
	if d.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, raw)
	}
	*c = Cents(d.IntPart())
	return nil
}

// MarshalJSON writes the amount as a plain integer.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(c), 10)), nil
}

// Sum adds up a list of amounts
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
