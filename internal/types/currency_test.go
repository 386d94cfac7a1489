package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatARS(t *testing.T) {
	tests := []struct {
		amount   int64
		expected string
	}{
		{0, "$0"},
		{500, "$500"},
		{1000, "$1.000"},
		{15000, "$15.000"},
		{38000, "$38.000"},
		{120000, "$120.000"},
		{1234567, "$1.234.567"},
		{-38000, "-$38.000"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatARS(decimal.NewFromInt(tt.amount)))
		})
	}
}

func TestFormatARSTruncatesFractions(t *testing.T) {
	// Backend amounts are already whole pesos; stray fractions are cut,
	// not rounded up.
	assert.Equal(t, "$38.000", FormatARS(decimal.RequireFromString("38000.99")))
	assert.Equal(t, "$0", FormatARS(decimal.RequireFromString("0.5")))
}

func TestGetCurrencySymbol(t *testing.T) {
	assert.Equal(t, "$", GetCurrencySymbol("ars"))
	assert.Equal(t, "$", GetCurrencySymbol("ARS"))
	assert.Equal(t, "US$", GetCurrencySymbol("usd"))
	assert.Equal(t, "xyz", GetCurrencySymbol("xyz"))
}
