package normalize

import (
	"strings"
	"time"
)

// genericLayouts are tried after the ISO and US fast paths.
var genericLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
}

// Date parses a calendar date from ISO (YYYY-MM-DD) or US slash format
// (M/D/YYYY, optionally followed by a time of day which is discarded),
// then falls back to a set of generic layouts. Unparsable input returns
// the zero time; callers treat that as "no date".
func Date(s string) time.Time {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}
	}

	// ISO date, possibly with a time suffix.
	if len(trimmed) >= 10 && trimmed[4] == '-' && trimmed[7] == '-' {
		if t, err := time.Parse("2006-01-02", trimmed[:10]); err == nil {
			return t
		}
	}

	// US slash format; drop a trailing time-of-day if present.
	if strings.Contains(trimmed, "/") {
		datePart := trimmed
		if idx := strings.IndexByte(trimmed, ' '); idx > 0 {
			datePart = trimmed[:idx]
		}
		if t, err := time.Parse("1/2/2006", datePart); err == nil {
			return t
		}
		if t, err := time.Parse("01/02/2006", datePart); err == nil {
			return t
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}

	return time.Time{}
}

// DaysBetween returns the whole-day difference to minus from.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// AbsDays returns the absolute whole-day difference between two dates.
func AbsDays(a, b time.Time) int {
	d := DaysBetween(a, b)
	if d < 0 {
		return -d
	}
	return d
}
