package normalize

import (
	"strings"
)

// Canonical listing statuses.
const (
	StatusActive             = "Active"
	StatusPending            = "Pending"
	StatusPendingInspection  = "Pending Inspection"
	StatusPendingBURequested = "Pending BU Requested"
	StatusContingent         = "Contingent"
	StatusSold               = "Sold"
)

// canonicalStatuses maps lowercase variants to the fixed vocabulary.
var canonicalStatuses = map[string]string{
	"active":                   StatusActive,
	"act":                      StatusActive,
	"pending":                  StatusPending,
	"pend":                     StatusPending,
	"pending inspection":       StatusPendingInspection,
	"pending insp":             StatusPendingInspection,
	"pi":                       StatusPendingInspection,
	"pending bu requested":     StatusPendingBURequested,
	"pending backup requested": StatusPendingBURequested,
	"contingent":               StatusContingent,
	"ctg":                      StatusContingent,
	"sold":                     StatusSold,
	"closed":                   StatusSold,
	"sld":                      StatusSold,
}

// Status canonicalizes brokerage status text to the fixed vocabulary.
// Unrecognized statuses are passed through title-cased, never rejected.
func Status(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := canonicalStatuses[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return TitleCase(trimmed)
}

// StatusIndicatesClosed reports whether status text reads as a completed sale.
func StatusIndicatesClosed(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "sold") || strings.Contains(lower, "closed")
}

// StatusWeight ranks an open status by closeness to a completed sale; lower
// is closer. Used as the secondary tie-break in stub matching.
func StatusWeight(status string) int {
	switch status {
	case StatusPending:
		return 0
	case StatusPendingInspection:
		return 1
	case StatusPendingBURequested:
		return 2
	case StatusContingent:
		return 3
	case StatusActive:
		return 4
	default:
		return 5
	}
}

// TitleCase upper-cases the first letter of each space-separated word and
// lower-cases the rest.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}
