// Package money holds rupiah formatting and tendered-amount parsing for the register.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount in whole rupiah the way receipts print it, e.g. "Rp 20.000".
func FormatRupiah(amount int64) string {
	if amount < 0 {
		return "-Rp " + printer.Sprintf("%d", -amount)
	}
	return "Rp " + printer.Sprintf("%d", amount)
}

// FormatDecimal renders a decimal amount rounded to whole rupiah.
func FormatDecimal(amount decimal.Decimal) string {
	return FormatRupiah(amount.Round(0).IntPart())
}

// FormatNumber groups digits with the Indonesian thousands separator.
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// ParseTendered interprets raw cashier input as an amount. Partially typed values
// such as "25000." are accepted; anything unparseable counts as zero.
func ParseTendered(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		value = leadingNumber(cleaned)
	}
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// leadingNumber parses the longest numeric prefix of s, matching how form inputs
// treat values like "1500abc".
func leadingNumber(s string) decimal.Decimal {
	end := 0
	seenDot := false
loop:
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			end = i + 1
		case r == '.' && !seenDot:
			seenDot = true
		default:
			break loop
		}
	}
	if end == 0 {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(strings.TrimSuffix(s[:end], "."))
	if err != nil {
		return decimal.Zero
	}
	return value
}
