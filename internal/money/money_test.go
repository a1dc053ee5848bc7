package money_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/pantryledger/internal/money"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    money.Cents
		wantErr bool
	}{
		{name: "whole units", input: "12", want: 1200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "0.5", want: 50},
		{name: "trailing zeros", input: "3.100", want: 310},
		{name: "zero", input: "0", want: 0},
		{name: "three decimals", input: "1.005", wantErr: true},
		{name: "negative", input: "-1.00", wantErr: true},
		{name: "garbage", input: "ten", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, money.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCents_String(t *testing.T) {
	assert.Equal(t, "12.34", money.Cents(1234).String())
	assert.Equal(t, "0.05", money.Cents(5).String())
	assert.Equal(t, "-3.00", money.Cents(-300).String())
	assert.Equal(t, "USD 1.00", money.Cents(100).Format("USD"))
	assert.Equal(t, "1.00", money.Cents(100).Format(""))
}

func TestCents_UnmarshalJSON(t *testing.T) {
	var payload struct {
		Amount money.Cents `json:"amount_cents"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"amount_cents": 1250}`), &payload))
	assert.Equal(t, money.Cents(1250), payload.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount_cents": 1.25e3}`), &payload))
	assert.Equal(t, money.Cents(1250), payload.Amount)

	err := json.Unmarshal([]byte(`{"amount_cents": 12.5}`), &payload)
	assert.ErrorIs(t, err, money.ErrFractionalCents)

	err = json.Unmarshal([]byte(`{"amount_cents": "12"}`), &payload)
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestCents_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(map[string]money.Cents{"amount_cents": 499})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount_cents": 499}`, string(out))
}

func TestSumAndAbs(t *testing.T) {
	assert.Equal(t, money.Cents(600), money.Sum(100, 200, 300))
	assert.Equal(t, money.Cents(0), money.Sum())
	assert.Equal(t, money.Cents(25), money.Cents(-25).Abs())
	assert.True(t, money.Cents(-1).IsNegative())
	assert.True(t, money.Cents(0).IsZero())
}
