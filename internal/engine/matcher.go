package engine

import (
	"github.com/parcel-recon/internal/config"
	"github.com/parcel-recon/internal/normalize"
	"github.com/parcel-recon/internal/record"
)

// Score weights: date lag dominates, status closeness is the stub-match
// secondary tie-break, price difference decides the remainder.
const (
	lagWeight    = 100000
	statusWeight = 10000
)

// Matcher links county sales to brokerage records. Matching is greedy and
// first-fit in county-row order; a brokerage record is consumed by at most
// one county record for the entire run. This mirrors how the output has
// always been produced, so the iteration order is an observable contract —
// a globally optimal assignment would change results and is deliberately
// not attempted.
type Matcher struct {
	tol   config.Tolerances
	index *CandidateIndex
	excl  *Exclusions
}

// NewMatcher creates a matcher over a prebuilt candidate index.
func NewMatcher(tol config.Tolerances, index *CandidateIndex) *Matcher {
	return &Matcher{
		tol:   tol,
		index: index,
		excl:  NewExclusions(),
	}
}

// Exclusions exposes the consumed-record set for the synthesis stage.
func (m *Matcher) Exclusions() *Exclusions {
	return m.excl
}

// MatchRecord attempts to link one county sale: closed-sale matching first,
// listing-stub matching only when that fails. The county record's state,
// match, and listing pointers are set on success. Records without a valid
// parcel key or a usable sale are never matched.
func (m *Matcher) MatchRecord(county *record.CountySaleRecord) {
	if county.ParcelKey == "" || !county.HasSale() {
		return
	}

	if listing, match := m.matchClosed(county); listing != nil {
		m.excl.MarkUsed(listing.UID)
		county.State = record.StateClosedMatched
		county.Match = match
		county.Listing = listing
		return
	}

	if listing, match := m.matchStub(county); listing != nil {
		m.excl.MarkUsed(listing.UID)
		county.State = record.StateStubMatched
		county.Match = match
		county.Listing = listing
	}
}

// matchClosed scans the parcel's closed bucket for the best sale within the
// date-lag window and price tolerance. Strictly-smaller score wins, so the
// first candidate in bucket order takes any exact tie.
func (m *Matcher) matchClosed(county *record.CountySaleRecord) (*record.RealtorListingRecord, *record.Match) {
	var best *record.RealtorListingRecord
	var bestMatch record.Match

	for _, cand := range m.index.Closed[county.ParcelKey] {
		if m.excl.IsUsed(cand.UID) {
			continue
		}
		if cand.SellingDate.IsZero() || cand.SellingPrice <= 0 {
			continue
		}

		lag := normalize.AbsDays(county.SaleDate, cand.SellingDate)
		if lag > m.tol.MaxSaleDateLagDays {
			continue
		}

		priceDiff := absInt64(cand.SellingPrice - county.ClosePrice)
		if priceDiff > m.tol.PriceTolerance &&
			float64(priceDiff)/float64(county.ClosePrice) > m.tol.PriceTolerancePct {
			continue
		}

		score := int64(lag)*lagWeight + priceDiff
		if best == nil || score < bestMatch.Score {
			best = cand
			bestMatch = record.Match{
				Score:       score,
				DateLagDays: lag,
				PriceDiff:   priceDiff,
				Method:      record.JoinClosedWindow,
			}
		}
	}

	if best == nil {
		return nil, nil
	}
	return best, &bestMatch
}

// matchStub scans the parcel's open bucket for pending/active context. The
// anchor date must precede the county sale by no more than the stub window,
// and the listing price must sit within the stub price ratio of the close.
func (m *Matcher) matchStub(county *record.CountySaleRecord) (*record.RealtorListingRecord, *record.Match) {
	var best *record.RealtorListingRecord
	var bestMatch record.Match

	for _, cand := range m.index.Open[county.ParcelKey] {
		if m.excl.IsUsed(cand.UID) {
			continue
		}
		if cand.ListingPrice <= 0 {
			continue
		}

		anchor := cand.AnchorDate()
		if anchor.IsZero() {
			continue
		}

		lag := normalize.DaysBetween(anchor, county.SaleDate)
		if lag < 0 || lag > m.tol.MaxStubLagDays {
			continue
		}

		priceDiff := absInt64(cand.ListingPrice - county.ClosePrice)
		if float64(priceDiff)/float64(county.ClosePrice) > m.tol.StubPriceRatio {
			continue
		}

		score := int64(lag)*lagWeight +
			int64(normalize.StatusWeight(cand.Status))*statusWeight +
			priceDiff
		if best == nil || score < bestMatch.Score {
			best = cand
			bestMatch = record.Match{
				Score:       score,
				DateLagDays: lag,
				PriceDiff:   priceDiff,
				Method:      record.JoinListingStub,
			}
		}
	}

	if best == nil {
		return nil, nil
	}
	return best, &bestMatch
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
