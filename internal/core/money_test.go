package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"4.5", "4.5", true},
		{" 2.50 ", "2.5", true},
		{"0.01", "0.01", true},
		{"1000000.99", "1000000.99", true},
		{"1.5e3", "1500", true},
		{"0", "", false},
		{"0.00", "", false},
		{"-5", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"NaN", "", false},
		{"Infinity", "", false},
		{"", "", false},
		{"   ", "", false},
		{"1e400", "", false},
		{"1e999999999", "", false},
		{"1e-999999999", "", false},
		{"1e16", "", false},
		{"1" + strings.Repeat("0", 400), "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if assert.NoError(t, err, tc.in) {
				assert.True(t, decimal.RequireFromString(tc.out).Equal(got), "%q expected %s, got %s", tc.in, tc.out, got)
			}
			continue
		}
		assert.ErrorIs(t, err, ErrAmountNotPositive, tc.in)
	}
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(decimal.RequireFromString("999999999999999")))
	assert.True(t, InRange(decimal.RequireFromString("0.000000000000001")))
	assert.False(t, InRange(decimal.New(1, 16)))
	assert.False(t, InRange(decimal.New(1, -16)))
	assert.False(t, InRange(decimal.New(1, 400)))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$4.50", FormatAmount(decimal.RequireFromString("4.5")))
	assert.Equal(t, "$10.00", FormatAmount(decimal.NewFromInt(10)))
	assert.Equal(t, "$0.01", FormatAmount(decimal.RequireFromString("0.01")))
	assert.Equal(t, "$1234.57", FormatAmount(decimal.RequireFromString("1234.567")))
	assert.Equal(t, "-$3.00", FormatAmount(decimal.NewFromInt(-3)))
}
