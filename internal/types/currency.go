package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CURRENCY_CODES_SYMBOLS is a map of 3 digit ISO currency codes to their symbols
var CURRENCY_CODES_SYMBOLS = map[string]string{
	"ars": "$",
	"usd": "US$",
	"brl": "R$",
	"uyu": "$U",
	"clp": "CLP$",
	"mxn": "MX$",
	"eur": "€",
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	if symbol, ok := CURRENCY_CODES_SYMBOLS[strings.ToLower(code)]; ok {
		return symbol
	}
	return code
}

// FormatARS renders an amount the way the checkout UI shows it:
// integer pesos with dot thousands separators, e.g. 38000 -> "$38.000".
// Amounts come from the billing engine already rounded to the peso; the
// value is truncated, never re-rounded, to avoid client/server drift.
func FormatARS(amount decimal.Decimal) string {
	digits := amount.Truncate(0).String()

	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	formatted := GetCurrencySymbol("ars") + b.String()
	if negative {
		formatted = "-" + formatted
	}
	return formatted
}
