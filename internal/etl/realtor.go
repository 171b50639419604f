package etl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parcel-recon/internal/debug"
	"github.com/parcel-recon/internal/normalize"
	"github.com/parcel-recon/internal/record"
)

// Brokerage export column names.
const (
	MLSColAPN             = "APN"
	MLSColStatus          = "Status"
	MLSColListingDate     = "Listing Date"
	MLSColPendingDate     = "Pending Date"
	MLSColContractualDate = "Contractual Date"
	MLSColSellingDate     = "Selling Date"
	MLSColListingPrice    = "Listing Price"
	MLSColOriginalPrice   = "Original Price"
	MLSColSellingPrice    = "Selling Price"
	MLSColDOM             = "DOM"
	MLSColCDOM            = "CDOM"
)

// RealtorRequiredColumns is the input contract for every brokerage export file.
var RealtorRequiredColumns = []string{
	MLSColAPN, MLSColStatus,
	MLSColListingDate, MLSColPendingDate, MLSColContractualDate, MLSColSellingDate,
	MLSColListingPrice, MLSColOriginalPrice, MLSColSellingPrice,
	MLSColDOM, MLSColCDOM,
}

// headerMarkers locate the real header row below any banner rows.
var headerMarkers = []string{MLSColAPN, MLSColStatus}

// LoadRealtorDir loads every .csv/.xlsx brokerage export in dir, in sorted
// file-name order so the run is deterministic. An empty or absent directory
// is fatal; a file missing required columns is fatal too.
func LoadRealtorDir(localDebug bool, dir string) ([]*record.RealtorListingRecord, error) {
	defer debug.Timing(localDebug, "load brokerage exports")()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &MissingInputFileError{Path: dir, Err: err}
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".xlsx":
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, &NoCandidateFilesError{Dir: dir}
	}
	sort.Strings(files)

	var all []*record.RealtorListingRecord
	for _, name := range files {
		recs, err := loadRealtorFile(localDebug, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}

	debug.Output(localDebug, "brokerage exports: %d records from %d files", len(all), len(files))
	return all, nil
}

func loadRealtorFile(localDebug bool, path string) ([]*record.RealtorListingRecord, error) {
	table, err := ReadTableScan(path, headerMarkers)
	if err != nil {
		return nil, err
	}

	if missing := table.MissingColumns(RealtorRequiredColumns); len(missing) > 0 {
		return nil, &MissingColumnsError{Source: "brokerage export " + table.Source, Missing: missing}
	}

	region := regionFromFileName(table.Source)

	var recs []*record.RealtorListingRecord
	for rowNum, row := range table.Rows {
		if isBlankRow(row) {
			continue
		}

		rec := &record.RealtorListingRecord{
			ParcelKey:    normalize.ParcelKey(table.Col(row, MLSColAPN)),
			Status:       normalize.Status(table.Col(row, MLSColStatus)),
			SourceRegion: region,
			Raw:          table.RowMap(row),
			RowNum:       rowNum,
		}

		rec.ListingDate = normalize.Date(table.Col(row, MLSColListingDate))
		rec.PendingDate = normalize.Date(table.Col(row, MLSColPendingDate))
		rec.ContractualDate = normalize.Date(table.Col(row, MLSColContractualDate))
		rec.SellingDate = normalize.Date(table.Col(row, MLSColSellingDate))

		rec.ListingPrice = normalize.Money(table.Col(row, MLSColListingPrice))
		rec.OriginalPrice = normalize.Money(table.Col(row, MLSColOriginalPrice))
		rec.SellingPrice = normalize.Money(table.Col(row, MLSColSellingPrice))

		rec.DOM = normalize.Int(table.Col(row, MLSColDOM))
		rec.CDOM = normalize.Int(table.Col(row, MLSColCDOM))

		rec.ListingNumber = firstCol(table, row, "Listing Number", "MLS Number", "ML #", "MLS #")
		rec.Style = firstCol(table, row, "Style", "Style Code")
		rec.Subdivision = firstCol(table, row, "Subdivision", "Community")
		rec.Address = composeAddress(table, row)

		// Closed when the status text says so, or when a dated positive-price
		// sale is present regardless of status wording.
		rec.Closed = normalize.StatusIndicatesClosed(rec.Status) ||
			(!rec.SellingDate.IsZero() && rec.SellingPrice > 0)

		rec.UID = realtorUID(table.Source, rec)
		recs = append(recs, rec)
	}

	debug.Output(localDebug, "%s: %d rows (region %s)", table.Source, len(recs), region)
	return recs, nil
}

// realtorUID synthesizes a stable identifier. Exports routinely contain
// duplicate-looking rows, so the row position participates.
func realtorUID(source string, r *record.RealtorListingRecord) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d",
		source, r.ListingNumber, r.ParcelKey, r.Status,
		r.SellingDate.Format("2006-01-02"), r.SellingPrice, r.RowNum)
}

// regionFromFileName derives the source region label from the export file
// name: extension dropped, separators spaced, title-cased.
func regionFromFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	return normalize.TitleCase(base)
}

// composeAddress builds a mailing-style address from whichever address parts
// the export carries.
func composeAddress(t *Table, row []string) string {
	street := firstCol(t, row, "Address", "Street Address", "Site Address")
	if street == "" {
		number := firstCol(t, row, "Street Number", "House Number")
		name := firstCol(t, row, "Street Name")
		street = strings.TrimSpace(number + " " + name)
	}

	city := firstCol(t, row, "City")
	state := firstCol(t, row, "State")
	zip := firstCol(t, row, "Zip", "Zip Code", "Postal Code")

	var parts []string
	if street != "" {
		parts = append(parts, street)
	}
	if city != "" {
		parts = append(parts, city)
	}
	if tail := strings.TrimSpace(state + " " + zip); tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

func firstCol(t *Table, row []string, names ...string) string {
	for _, name := range names {
		if v := t.Col(row, name); v != "" {
			return v
		}
	}
	return ""
}
