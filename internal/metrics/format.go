package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatCurrency renders a dollar amount with thousands separators,
// e.g. 1234.5 -> "$1,234.50", -1234.5 -> "$-1,234.50".
func formatCurrency(value float64) string {
	if math.IsNaN(value) {
		return "$NaN"
	}

	if math.IsInf(value, 0) {
		return fmt.Sprintf("$%.2f", value)
	}

	sign := ""
	cents := int64(math.Round(value * 100))

	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	return fmt.Sprintf("$%s%s.%02d", sign, groupThousands(strconv.FormatInt(cents/100, 10)), cents%100)
}

// groupThousands inserts commas into a non-negative integer string.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder

	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}

	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}

		b.WriteString(digits[i : i+3])
	}

	return b.String()
}

// formatPercent renders a percentage with two decimals.
func formatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}

// formatFloat renders a plain number with the given precision, keeping NaN
// readable.
func formatFloat(value float64, precision int) string {
	if math.IsNaN(value) {
		return "NaN"
	}

	return strconv.FormatFloat(value, 'f', precision, 64)
}
