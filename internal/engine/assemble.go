package engine

import (
	"strconv"
	"time"

	"github.com/parcel-recon/internal/record"
)

// EnrichmentColumns is the fixed list of MLS/enrichment columns appended to
// the base schema. Each is added only when the base schema does not already
// carry a column of the same name; base column order is preserved.
var EnrichmentColumns = []string{
	"dataMode",
	"major",
	"minor",
	"parcelNbr",
	"saleDate",
	"closePrice",
	"listPriceAtPending",
	"mlsId",
	"mlsListingNumber",
	"mlsStatus",
	"mlsJoinMethod",
	"mlsSourceRegion",
	"mlsListingDate",
	"mlsPendingDate",
	"mlsContractualDate",
	"mlsSellingDate",
	"mlsListingPrice",
	"mlsOriginalPrice",
	"mlsSellingPrice",
	"mlsDOM",
	"mlsCDOM",
	"mlsStyle",
	"mlsSubdivision",
	"mlsAddress",
	"saleToListRatio",
	"saleToOriginalListRatio",
	"bidUpAmount",
	"bidUpPct",
	"daysToPending",
	"daysPendingToSale",
	"matchDateLagDays",
	"matchPriceDiffAmount",
	"hotMarketTag",
}

// OutputColumns unions the base schema with the enrichment columns.
func OutputColumns(base []string) []string {
	present := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(EnrichmentColumns))
	for _, col := range base {
		present[col] = true
		out = append(out, col)
	}
	for _, col := range EnrichmentColumns {
		if !present[col] {
			present[col] = true
			out = append(out, col)
		}
	}
	return out
}

// AssembleRows materializes the full output in the fixed order: every county
// row first, then synthesized closed-sale rows, then synthesized open-listing
// rows. Rows are only ever appended; the output can never have fewer rows
// than the county extract.
func AssembleRows(county []*record.CountySaleRecord, synthClosed, synthOpen []map[string]string) []map[string]string {
	rows := make([]map[string]string, 0, len(county)+len(synthClosed)+len(synthOpen))
	for _, rec := range county {
		rows = append(rows, countyRow(rec))
	}
	rows = append(rows, synthClosed...)
	rows = append(rows, synthOpen...)
	return rows
}

// countyRow turns one county record into an output row: the raw columns,
// the normalized identity fields, and any match/enrichment values.
func countyRow(rec *record.CountySaleRecord) map[string]string {
	row := make(map[string]string, len(rec.Raw)+len(EnrichmentColumns))
	for k, v := range rec.Raw {
		row[k] = v
	}

	row["dataMode"] = rec.State.DataMode()
	if row["id"] == "" {
		row["id"] = rec.ID
	}
	if row["address"] == "" {
		row["address"] = rec.Address
	}
	if rec.ParcelKey != "" {
		row["major"] = rec.Major
		row["minor"] = rec.Minor
		row["parcelNbr"] = rec.ParcelKey
	}
	if row["saleDate"] == "" && !rec.SaleDate.IsZero() {
		row["saleDate"] = formatDate(rec.SaleDate)
	}

	if rec.Listing != nil {
		fillListingColumns(row, rec.Listing)
	}
	if rec.Match != nil {
		row["mlsJoinMethod"] = rec.Match.Method
		row["matchDateLagDays"] = strconv.Itoa(rec.Match.DateLagDays)
		row["matchPriceDiffAmount"] = strconv.FormatInt(rec.Match.PriceDiff, 10)
	}
	if rec.Metrics != nil {
		fillEnrichmentColumns(row, rec.Metrics)
	}

	return row
}

// fillListingColumns writes the brokerage-side columns shared by matched and
// synthesized rows.
func fillListingColumns(row map[string]string, l *record.RealtorListingRecord) {
	row["mlsId"] = l.UID
	row["mlsListingNumber"] = l.ListingNumber
	row["mlsStatus"] = l.Status
	row["mlsSourceRegion"] = l.SourceRegion
	row["mlsListingDate"] = formatDate(l.ListingDate)
	row["mlsPendingDate"] = formatDate(l.PendingDate)
	row["mlsContractualDate"] = formatDate(l.ContractualDate)
	row["mlsSellingDate"] = formatDate(l.SellingDate)
	row["mlsListingPrice"] = formatMoney(l.ListingPrice)
	row["mlsOriginalPrice"] = formatMoney(l.OriginalPrice)
	row["mlsSellingPrice"] = formatMoney(l.SellingPrice)
	row["mlsDOM"] = formatCount(l.DOM)
	row["mlsCDOM"] = formatCount(l.CDOM)
	row["mlsStyle"] = l.Style
	row["mlsSubdivision"] = l.Subdivision
	row["mlsAddress"] = l.Address
}

// fillEnrichmentColumns writes the derived-metric columns.
func fillEnrichmentColumns(row map[string]string, e *record.Enrichment) {
	row["listPriceAtPending"] = formatMoney(e.ListPriceAtPending)
	if e.ListPriceAtPending > 0 {
		row["bidUpAmount"] = strconv.FormatInt(e.BidUpAmount, 10)
		row["bidUpPct"] = formatRatio(e.BidUpPct)
		row["saleToListRatio"] = formatRatio(e.SaleToListRatio)
	}
	if e.HasOriginalRatio {
		row["saleToOriginalListRatio"] = formatRatio(e.SaleToOriginalListRatio)
	}
	if e.HasDaysToPending {
		row["daysToPending"] = strconv.Itoa(e.DaysToPending)
	}
	if e.HasDaysPendingToSale {
		row["daysPendingToSale"] = strconv.Itoa(e.DaysPendingToSale)
	}
	row["hotMarketTag"] = e.HotMarketTag
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatMoney(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func formatCount(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
