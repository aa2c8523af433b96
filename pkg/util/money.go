package util

import (
	"github.com/shopspring/decimal"
)

// DisplayPlaces is the precision shown for every currency in use.
const DisplayPlaces = 2

// RoundAmount rounds to the display precision.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayPlaces)
}

// FormatAmount renders an amount with a fixed two-decimal precision and an
// optional currency code suffix, e.g. "1,234.50 MMK".
func FormatAmount(d decimal.Decimal, currency string) string {
	s := d.StringFixed(DisplayPlaces)

	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	intPart, frac := s, ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart, frac = s[:i], s[i:]
			break
		}
	}

	var out []byte
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}

	result := string(out) + frac
	if neg {
		result = "-" + result
	}
	if currency != "" {
		result += " " + currency
	}
	return result
}
