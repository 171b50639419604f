package engine

import (
	"testing"
	"time"

	"github.com/parcel-recon/internal/config"
	"github.com/parcel-recon/internal/record"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func countySale(key string, date time.Time, price int64) *record.CountySaleRecord {
	return &record.CountySaleRecord{
		ID:         "c-" + key,
		ParcelKey:  key,
		SaleDate:   date,
		ClosePrice: price,
		Raw:        map[string]string{},
		State:      record.StateUnmatched,
	}
}

func soldListing(uid, key string, date time.Time, price int64) *record.RealtorListingRecord {
	return &record.RealtorListingRecord{
		UID:          uid,
		ParcelKey:    key,
		Status:       "Sold",
		Closed:       true,
		SellingDate:  date,
		SellingPrice: price,
		ListingPrice: 480000,
	}
}

func openListing(uid, key, status string, pending time.Time, listPrice int64) *record.RealtorListingRecord {
	return &record.RealtorListingRecord{
		UID:          uid,
		ParcelKey:    key,
		Status:       status,
		PendingDate:  pending,
		ListingPrice: listPrice,
	}
}

func newTestMatcher(listings ...*record.RealtorListingRecord) *Matcher {
	return NewMatcher(config.DefaultTolerances(), BuildCandidateIndex(listings))
}

func TestClosedMatchWithinWindow(t *testing.T) {
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	listing := soldListing("r1", "1234560010", day(2024, 1, 12), 501000)

	m := newTestMatcher(listing)
	m.MatchRecord(county)

	if county.State != record.StateClosedMatched {
		t.Fatalf("state = %v, want closed match", county.State)
	}
	if county.Match.Method != record.JoinClosedWindow {
		t.Fatalf("method = %q", county.Match.Method)
	}
	if county.Match.DateLagDays != 2 {
		t.Fatalf("dateLag = %d, want 2", county.Match.DateLagDays)
	}
	if county.Match.PriceDiff != 1000 {
		t.Fatalf("priceDiff = %d, want 1000", county.Match.PriceDiff)
	}
}

func TestDateLagDominatesPrice(t *testing.T) {
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	// lag 3 with a small price gap versus lag 1 with a bigger one: the
	// closer date must win regardless of price.
	farDate := soldListing("far", "1234560010", day(2024, 1, 13), 502000)
	nearDate := soldListing("near", "1234560010", day(2024, 1, 11), 504000)

	m := newTestMatcher(farDate, nearDate)
	m.MatchRecord(county)

	if county.Listing == nil || county.Listing.UID != "near" {
		t.Fatalf("expected lag-1 candidate to win, got %+v", county.Listing)
	}
}

func TestPriceTieBreakAtEqualLag(t *testing.T) {
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	wide := soldListing("wide", "1234560010", day(2024, 1, 12), 504000)
	tight := soldListing("tight", "1234560010", day(2024, 1, 12), 501000)

	m := newTestMatcher(wide, tight)
	m.MatchRecord(county)

	if county.Listing == nil || county.Listing.UID != "tight" {
		t.Fatalf("expected smaller price diff to win at equal lag")
	}
}

func TestExactTieKeepsFirstCandidate(t *testing.T) {
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	first := soldListing("first", "1234560010", day(2024, 1, 12), 501000)
	second := soldListing("second", "1234560010", day(2024, 1, 12), 501000)

	m := newTestMatcher(first, second)
	m.MatchRecord(county)

	if county.Listing == nil || county.Listing.UID != "first" {
		t.Fatalf("tied scores must keep candidate input order")
	}
}

func TestClosedMatchRejectsOutsideWindow(t *testing.T) {
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	listing := soldListing("r1", "1234560010", day(2024, 3, 10), 500000) // 60 days out

	m := newTestMatcher(listing)
	m.MatchRecord(county)

	if county.State == record.StateClosedMatched {
		t.Fatalf("must not match beyond the date-lag window")
	}
}

func TestPriceToleranceAbsoluteAndRelative(t *testing.T) {
	// $6,000 off on a $500k sale fails the $5,000 absolute rule but not the
	// 0.5% relative rule (6000/500000 = 1.2%) — reject.
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	m := newTestMatcher(soldListing("r1", "1234560010", day(2024, 1, 10), 506000))
	m.MatchRecord(county)
	if county.State == record.StateClosedMatched {
		t.Fatalf("1.2%% price gap must be rejected")
	}

	// $6,000 off on a $2M sale is only 0.3%: the relative rule accepts it.
	county = countySale("1234560020", day(2024, 1, 10), 2000000)
	m = newTestMatcher(soldListing("r2", "1234560020", day(2024, 1, 10), 2006000))
	m.MatchRecord(county)
	if county.State != record.StateClosedMatched {
		t.Fatalf("0.3%% price gap must pass the relative tolerance")
	}
}

func TestExclusivityAcrossCountyRecords(t *testing.T) {
	listing := soldListing("only", "1234560010", day(2024, 1, 12), 501000)
	m := newTestMatcher(listing)

	first := countySale("1234560010", day(2024, 1, 10), 500000)
	second := countySale("1234560010", day(2024, 1, 11), 500500)

	m.MatchRecord(first)
	m.MatchRecord(second)

	if first.State != record.StateClosedMatched {
		t.Fatalf("first county record must win the only candidate")
	}
	if second.Listing != nil {
		t.Fatalf("a brokerage record must be consumed at most once")
	}
}

func TestInvalidParcelKeyNeverMatches(t *testing.T) {
	county := countySale("", day(2024, 1, 10), 500000)
	listing := soldListing("r1", "1234560010", day(2024, 1, 10), 500000)

	m := newTestMatcher(listing)
	m.MatchRecord(county)

	if county.State != record.StateUnmatched {
		t.Fatalf("invalid parcel key must never participate in matching")
	}
}

func TestCountyWithoutSaleNeverMatches(t *testing.T) {
	county := countySale("1234560010", time.Time{}, 500000)
	m := newTestMatcher(soldListing("r1", "1234560010", day(2024, 1, 10), 500000))
	m.MatchRecord(county)
	if county.State != record.StateUnmatched {
		t.Fatalf("county record without a sale date must stay unmatched")
	}

	county = countySale("1234560010", day(2024, 1, 10), 0)
	m = newTestMatcher(soldListing("r2", "1234560010", day(2024, 1, 10), 500000))
	m.MatchRecord(county)
	if county.State != record.StateUnmatched {
		t.Fatalf("county record without a close price must stay unmatched")
	}
}

func TestStubFallbackAfterClosedFails(t *testing.T) {
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	pending := openListing("p1", "1234560010", "Pending", day(2023, 12, 20), 490000)

	m := newTestMatcher(pending)
	m.MatchRecord(county)

	if county.State != record.StateStubMatched {
		t.Fatalf("state = %v, want stub match", county.State)
	}
	if county.Match.Method != record.JoinListingStub {
		t.Fatalf("method = %q", county.Match.Method)
	}
	if county.Match.DateLagDays != 21 {
		t.Fatalf("stub lag = %d, want 21", county.Match.DateLagDays)
	}
}

func TestStubRejectsAnchorAfterSale(t *testing.T) {
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	// Anchor after the county sale date: negative lag, reject.
	late := openListing("late", "1234560010", "Pending", day(2024, 2, 1), 490000)

	m := newTestMatcher(late)
	m.MatchRecord(county)

	if county.State != record.StateUnmatched {
		t.Fatalf("anchor after the sale date must be rejected")
	}
}

func TestStubRejectsBeyondWindowAndPriceRatio(t *testing.T) {
	county := countySale("1234560010", day(2024, 6, 1), 500000)
	stale := openListing("stale", "1234560010", "Pending", day(2023, 12, 1), 490000) // >120 days
	m := newTestMatcher(stale)
	m.MatchRecord(county)
	if county.State != record.StateUnmatched {
		t.Fatalf("stub beyond the 120-day window must be rejected")
	}

	county = countySale("1234560020", day(2024, 1, 10), 500000)
	wild := openListing("wild", "1234560020", "Pending", day(2024, 1, 1), 100000) // 80% off
	m = newTestMatcher(wild)
	m.MatchRecord(county)
	if county.State != record.StateUnmatched {
		t.Fatalf("stub price ratio beyond 50%% must be rejected")
	}
}

func TestStubStatusWeightTieBreak(t *testing.T) {
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	// Equal anchor lag and price: Pending outranks Active.
	active := openListing("active", "1234560010", "Active", day(2024, 1, 1), 490000)
	pending := openListing("pending", "1234560010", "Pending", day(2024, 1, 1), 490000)

	m := newTestMatcher(active, pending)
	m.MatchRecord(county)

	if county.Listing == nil || county.Listing.UID != "pending" {
		t.Fatalf("Pending must outrank Active at equal lag")
	}
}

func TestStubAnchorPriority(t *testing.T) {
	l := &record.RealtorListingRecord{
		ListingDate:     day(2023, 12, 1),
		ContractualDate: day(2023, 12, 20),
		PendingDate:     day(2024, 1, 2),
	}
	if !l.AnchorDate().Equal(day(2024, 1, 2)) {
		t.Fatalf("pending date must anchor first")
	}
	l.PendingDate = time.Time{}
	if !l.AnchorDate().Equal(day(2023, 12, 20)) {
		t.Fatalf("contractual date must anchor second")
	}
	l.ContractualDate = time.Time{}
	if !l.AnchorDate().Equal(day(2023, 12, 1)) {
		t.Fatalf("listing date must anchor last")
	}
}

func TestClosedMatchPreferredOverStub(t *testing.T) {
	county := countySale("1234560010", day(2024, 1, 10), 500000)
	sold := soldListing("sold", "1234560010", day(2024, 1, 12), 501000)
	pending := openListing("pending", "1234560010", "Pending", day(2024, 1, 2), 490000)

	m := newTestMatcher(sold, pending)
	m.MatchRecord(county)

	if county.State != record.StateClosedMatched {
		t.Fatalf("closed match must take priority over stub")
	}
	// A record never receives both: the open candidate stays unconsumed.
	if m.Exclusions().IsUsed("pending") {
		t.Fatalf("stub candidate must not be consumed after a closed match")
	}
}
