package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var decimalHundred = decimal.NewFromInt(100)

// round2 normalizes monetary amounts to 2 fractional digits. Every
// arithmetic result is rounded before persisting.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// renderAmountMessage substitutes the currency-formatted amount into a
// notification body template.
func renderAmountMessage(format string, amount decimal.Decimal) string {
	return fmt.Sprintf(format, FormatRupiah(amount))
}

// FormatRupiah renders an amount the way it appears in user-facing
// notifications, e.g. 1234567.5 -> "Rp 1.234.567,50".
func FormatRupiah(amount decimal.Decimal) string {
	fixed := amount.Round(2).StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "Rp " + b.String() + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
