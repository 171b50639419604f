package record

import (
	"strconv"
	"time"
)

// MatchState classifies how a county sale record left the matching stage.
type MatchState int

const (
	// StateUnmatched means no brokerage record was linked; the row is county data only.
	StateUnmatched MatchState = iota
	// StateClosedMatched means a closed brokerage sale was linked within the date/price window.
	StateClosedMatched
	// StateStubMatched means an open listing was linked as pending/active context.
	StateStubMatched
)

// String returns the state name for logs and reports.
func (s MatchState) String() string {
	switch s {
	case StateClosedMatched:
		return "closed_matched"
	case StateStubMatched:
		return "stub_matched"
	default:
		return "unmatched"
	}
}

// DataMode returns the output dataMode tag for the state.
func (s MatchState) DataMode() string {
	if s == StateUnmatched {
		return DataModePublic
	}
	return DataModeMLS
}

// Output tags carried on enriched rows.
const (
	DataModePublic = "PUBLIC_PROXY"
	DataModeMLS    = "MLS_ENRICHED"

	JoinClosedWindow  = "APN_PRICE_DATE_WINDOW"
	JoinListingStub   = "APN_LISTING_STUB"
	JoinSoldNotCounty = "MLS_SOLD_NOT_IN_COUNTY"
	JoinStatusOpen    = "MLS_STATUS_OPEN"
)

// Hot market tags.
const (
	TagUltraHot  = "ULTRA_HOT_<=5D"
	TagHotMarket = "HOT_MARKET_<=10D"
)

// CountySaleRecord is one county sale transaction row.
// Typed fields drive matching; Raw preserves every source column for output.
type CountySaleRecord struct {
	ID         string
	Address    string
	ParcelKey  string // 10 digits, or empty when the key failed normalization
	Major      string // first 6 digits of the parcel key
	Minor      string // last 4 digits of the parcel key
	SaleDate   time.Time
	ClosePrice int64

	Raw    map[string]string
	RowNum int

	// Filled by the matcher; nil until a match is assigned.
	State   MatchState
	Match   *Match
	Listing *RealtorListingRecord
	Metrics *Enrichment
}

// HasSale reports whether the record carries a usable sale (valid date and
// positive price). Records without one never enter matching.
func (c *CountySaleRecord) HasSale() bool {
	return !c.SaleDate.IsZero() && c.ClosePrice > 0
}

// Signature returns the (parcel, date, price) identity used to suppress
// re-synthesis of sales already present in the county extract.
func (c *CountySaleRecord) Signature() string {
	if c.ParcelKey == "" || c.SaleDate.IsZero() {
		return ""
	}
	return c.ParcelKey + "|" + c.SaleDate.Format("2006-01-02") + "|" + strconv.FormatInt(c.ClosePrice, 10)
}

// RealtorListingRecord is one brokerage export row.
type RealtorListingRecord struct {
	UID       string // synthesized; unique across all export files
	ParcelKey string
	Status    string
	Closed    bool

	ListingDate     time.Time
	PendingDate     time.Time
	ContractualDate time.Time
	SellingDate     time.Time

	ListingPrice  int64
	OriginalPrice int64
	SellingPrice  int64

	DOM  int
	CDOM int

	ListingNumber string
	Style         string
	Subdivision   string
	Address       string
	SourceRegion  string

	Raw    map[string]string
	RowNum int
}

// AnchorDate returns the stub-match anchor: the first non-empty of
// pending, contractual, and listing date, in that priority order.
func (r *RealtorListingRecord) AnchorDate() time.Time {
	if !r.PendingDate.IsZero() {
		return r.PendingDate
	}
	if !r.ContractualDate.IsZero() {
		return r.ContractualDate
	}
	return r.ListingDate
}

// SaleSignature mirrors CountySaleRecord.Signature for closed brokerage rows.
func (r *RealtorListingRecord) SaleSignature() string {
	if r.ParcelKey == "" || r.SellingDate.IsZero() {
		return ""
	}
	return r.ParcelKey + "|" + r.SellingDate.Format("2006-01-02") + "|" + strconv.FormatInt(r.SellingPrice, 10)
}

// Match is the ephemeral result of linking a county sale to a brokerage row.
type Match struct {
	Score       int64
	DateLagDays int
	PriceDiff   int64
	Method      string
}

// Enrichment holds the derived metrics computed for a matched pair.
type Enrichment struct {
	DaysToPending           int
	DaysPendingToSale       int
	ListPriceAtPending      int64
	BidUpAmount             int64
	BidUpPct                float64
	SaleToListRatio         float64
	SaleToOriginalListRatio float64
	HotMarketTag            string

	HasDaysToPending     bool
	HasDaysPendingToSale bool
	HasOriginalRatio     bool
}

// ParcelSnapshot aggregates the first non-empty descriptive value seen for a
// parcel key across all county rows sharing it. Used only to backfill
// synthesized rows; it never overwrites a value already present.
type ParcelSnapshot struct {
	ParcelKey string
	Fields    map[string]string
}
