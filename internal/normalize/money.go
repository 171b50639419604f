package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Money converts a currency string to whole dollars. Currency symbols,
// thousands separators and surrounding noise are stripped; anything that
// still fails to parse becomes zero. Bad data never aborts a row.
func Money(s string) int64 {
	cleaned := stripCurrency(s)
	if cleaned == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(value))
}

// Float parses a numeric string the same lenient way as Money but keeps the
// fractional part. Used for bed/bath counts and ratio columns.
func Float(s string) float64 {
	cleaned := stripCurrency(s)
	if cleaned == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// Int parses an integer string leniently, truncating any fractional part.
func Int(s string) int {
	return int(Float(s))
}

// stripCurrency keeps only digits, dots and a leading minus.
func stripCurrency(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "-" || out == "." || out == "-." {
		return ""
	}
	return out
}
