package engine

import (
	"github.com/parcel-recon/internal/config"
	"github.com/parcel-recon/internal/normalize"
	"github.com/parcel-recon/internal/record"
)

// Enrich computes the derived metrics for one matched county/brokerage pair.
// "Effective" values prefer the brokerage side and fall back to the county
// side; bid-up is allowed to go negative rather than being clamped.
func Enrich(tol config.Tolerances, county *record.CountySaleRecord, listing *record.RealtorListingRecord) *record.Enrichment {
	e := &record.Enrichment{}

	if !listing.ListingDate.IsZero() && !listing.PendingDate.IsZero() {
		e.DaysToPending = normalize.DaysBetween(listing.ListingDate, listing.PendingDate)
		e.HasDaysToPending = true
	}

	effectiveSaleDate := county.SaleDate
	if !listing.SellingDate.IsZero() {
		effectiveSaleDate = listing.SellingDate
	}
	if !listing.PendingDate.IsZero() && !effectiveSaleDate.IsZero() {
		e.DaysPendingToSale = normalize.DaysBetween(listing.PendingDate, effectiveSaleDate)
		e.HasDaysPendingToSale = true
	}

	effectiveClose := county.ClosePrice
	if listing.SellingPrice > 0 {
		effectiveClose = listing.SellingPrice
	}

	e.ListPriceAtPending = listing.ListingPrice
	if e.ListPriceAtPending > 0 {
		e.BidUpAmount = effectiveClose - e.ListPriceAtPending
		e.BidUpPct = float64(e.BidUpAmount) / float64(e.ListPriceAtPending)
		e.SaleToListRatio = float64(effectiveClose) / float64(e.ListPriceAtPending)
	}
	if listing.OriginalPrice > 0 {
		e.SaleToOriginalListRatio = float64(effectiveClose) / float64(listing.OriginalPrice)
		e.HasOriginalRatio = true
	}

	e.HotMarketTag = hotMarketTag(tol, listing.DOM, e.DaysToPending, e.HasDaysToPending)
	return e
}

// hotMarketTag classifies sale speed from DOM and days-to-pending. A zero
// DOM reads as "not reported", matching how the exports leave the field.
func hotMarketTag(tol config.Tolerances, dom, daysToPending int, hasPending bool) string {
	within := func(limit int) bool {
		if dom > 0 && dom <= limit {
			return true
		}
		return hasPending && daysToPending >= 0 && daysToPending <= limit
	}

	switch {
	case within(tol.UltraHotDays):
		return record.TagUltraHot
	case within(tol.HotMarketDays):
		return record.TagHotMarket
	default:
		return ""
	}
}
