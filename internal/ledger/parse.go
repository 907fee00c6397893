package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/qmetrics-lab/qmetrics/pkg/errors"
)

// timestampLayouts are tried in order when coercing date-like cells.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseTimestamp coerces a raw cell to a timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, errors.Newf(errors.ErrCodeColumnParseFailed, "unrecognized timestamp %q", value)
}

// parseNumber coerces a raw cell to a float, tolerating currency formatting
// ("$1,234.56", "(12.5)" for negatives).
func parseNumber(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}

	negative := false
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		negative = true
		trimmed = trimmed[1 : len(trimmed)-1]
	}

	trimmed = strings.TrimPrefix(trimmed, "$")
	trimmed = strings.ReplaceAll(trimmed, ",", "")

	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "unrecognized number %q", value)
	}

	if negative {
		parsed = -parsed
	}

	return parsed, nil
}
