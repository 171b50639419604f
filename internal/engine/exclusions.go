package engine

// Exclusions tracks brokerage records already consumed by a match. It only
// ever grows, and it is owned by the Matcher rather than living as package
// state: every consultation and every mutation goes through one object.
type Exclusions struct {
	used map[string]bool
}

// NewExclusions returns an empty exclusion set.
func NewExclusions() *Exclusions {
	return &Exclusions{used: make(map[string]bool)}
}

// IsUsed reports whether the brokerage record was already consumed.
func (e *Exclusions) IsUsed(uid string) bool {
	return e.used[uid]
}

// MarkUsed consumes a brokerage record for the rest of the run.
func (e *Exclusions) MarkUsed(uid string) {
	e.used[uid] = true
}

// Count returns how many records have been consumed.
func (e *Exclusions) Count() int {
	return len(e.used)
}
