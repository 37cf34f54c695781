package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMoneyPattern is used when a host formatter is configured without a pattern.
const DefaultMoneyPattern = "${{amount}}"

// MoneyFormatter formats an amount in minor units using a host pattern.
// Implementations may fail; Money falls back to the local formatter when they do.
type MoneyFormatter interface {
	FormatMoney(cents int64, pattern string) (string, error)
}

// Money renders prices for the quickview.
// Host is optional: when nil, or when it errors, FallbackMoney is used.
type Money struct {
	Currency string
	Pattern  string
	Host     MoneyFormatter
}

// Format renders cents for display.
func (m Money) Format(cents int64) string {
	if m.Host != nil {
		pattern := m.Pattern
		if pattern == "" {
			pattern = DefaultMoneyPattern
		}
		if s, err := m.Host.FormatMoney(cents, pattern); err == nil {
			return s
		}
	}
	return FallbackMoney(m.Currency, cents)
}

// currencySymbols is the fixed symbol table for the fallback formatter.
// Anything else renders with "$".
var currencySymbols = map[string]string{
	"EUR": "€",
	"INR": "₹",
}

// FallbackMoney divides by 100, fixes two decimals and prefixes a currency symbol.
// Examples: ("USD", 2500) → "$25.00", ("EUR", 1999) → "€19.99"
func FallbackMoney(currency string, cents int64) string {
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		symbol = "$"
	}
	return symbol + strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

// PatternFormatter implements the platform's money pattern placeholders
// ({{amount}}, {{amount_no_decimals}}, {{amount_with_comma_separator}}, ...).
// It stands in for the theme's formatMoney helper.
type PatternFormatter struct{}

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// ErrMoneyPattern is returned for patterns without a known placeholder.
var ErrMoneyPattern = errors.New("unsupported money pattern")

// FormatMoney replaces the first placeholder in pattern with the formatted amount.
func (PatternFormatter) FormatMoney(cents int64, pattern string) (string, error) {
	loc := placeholderRe.FindStringSubmatchIndex(pattern)
	if loc == nil {
		return "", fmt.Errorf("%w: %q", ErrMoneyPattern, pattern)
	}
	name := pattern[loc[2]:loc[3]]

	var amount string
	switch name {
	case "amount":
		amount = formatWithDelimiters(cents, 2, ",", ".")
	case "amount_no_decimals":
		amount = formatWithDelimiters(cents, 0, ",", ".")
	case "amount_with_comma_separator":
		amount = formatWithDelimiters(cents, 2, ".", ",")
	case "amount_no_decimals_with_comma_separator":
		amount = formatWithDelimiters(cents, 0, ".", ",")
	case "amount_with_apostrophe_separator":
		amount = formatWithDelimiters(cents, 2, "'", ".")
	case "amount_with_space_separator":
		amount = formatWithDelimiters(cents, 2, " ", ",")
	default:
		return "", fmt.Errorf("%w: placeholder %q", ErrMoneyPattern, name)
	}

	return pattern[:loc[0]] + amount + pattern[loc[1]:], nil
}

// formatWithDelimiters groups thousands and renders precision 0 or 2.
// Precision 0 rounds half away from zero.
func formatWithDelimiters(cents int64, precision int, thousands, decimal string) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}

	whole := cents / 100
	frac := cents % 100
	if precision == 0 {
		whole = (cents + 50) / 100
	}

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(thousands)
		}
		b.WriteByte(digits[i])
	}
	if precision > 0 {
		fmt.Fprintf(&b, "%s%02d", decimal, frac)
	}
	return b.String()
}
