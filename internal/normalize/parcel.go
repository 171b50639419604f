package normalize

import (
	"strings"
)

// ParcelKeyLen is the normalized APN length: 6-digit major + 4-digit minor.
const ParcelKeyLen = 10

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParcelKey normalizes an APN string to its digit form. The key is valid only
// when exactly 10 digits remain; anything else returns the empty string and
// the record never participates in matching.
func ParcelKey(s string) string {
	digits := Digits(s)
	if len(digits) != ParcelKeyLen {
		return ""
	}
	return digits
}

// ParcelKeyFromCombined normalizes a combined "parcel number" column that may
// carry prefixes (book/page formatting, county codes). The last 10 digits are
// the key: major in the first 6, minor in the last 4.
func ParcelKeyFromCombined(s string) string {
	digits := Digits(s)
	if len(digits) < ParcelKeyLen {
		return ""
	}
	return digits[len(digits)-ParcelKeyLen:]
}

// ParcelKeyFromParts builds the key from separate major/minor columns,
// left-padding each side with zeros. Overlong parts invalidate the key.
func ParcelKeyFromParts(major, minor string) string {
	mj := Digits(major)
	mn := Digits(minor)
	if mj == "" || mn == "" || len(mj) > 6 || len(mn) > 4 {
		return ""
	}
	return leftPad(mj, 6) + leftPad(mn, 4)
}

// SplitParcelKey returns the major and minor halves of a valid key.
func SplitParcelKey(key string) (major, minor string) {
	if len(key) != ParcelKeyLen {
		return "", ""
	}
	return key[:6], key[6:]
}

func leftPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
