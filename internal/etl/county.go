package etl

import (
	"strings"

	"github.com/parcel-recon/internal/debug"
	"github.com/parcel-recon/internal/normalize"
	"github.com/parcel-recon/internal/record"
)

// County column names. The id/address/type/closePrice quartet is the hard
// requirement; the rest are consumed when present.
const (
	ColID        = "id"
	ColAddress   = "address"
	ColType      = "type"
	ColClose     = "closePrice"
	ColMajor     = "major"
	ColMinor     = "minor"
	ColParcelNbr = "parcelNbr"
	ColSaleDate  = "saleDate"
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
)

// CountyRequiredColumns is the input contract for the county extract.
var CountyRequiredColumns = []string{ColID, ColAddress, ColType, ColClose}

// CountyDataset holds the county extract fully in memory: matching needs
// random access to the whole set, so there is no streaming path here.
type CountyDataset struct {
	Columns []string
	Records []*record.CountySaleRecord

	// Degraded counts rows whose sale date or close price failed to parse.
	Degraded int
}

// LoadCounty reads the county sale extract. Missing file or missing required
// columns are fatal; malformed row values degrade to zero/empty.
func LoadCounty(localDebug bool, path string) (*CountyDataset, error) {
	defer debug.Timing(localDebug, "load county extract")()

	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}

	if missing := table.MissingColumns(CountyRequiredColumns); len(missing) > 0 {
		return nil, &MissingColumnsError{Source: "county extract " + table.Source, Missing: missing}
	}

	ds := &CountyDataset{Columns: table.Header}

	for rowNum, row := range table.Rows {
		if isBlankRow(row) {
			continue
		}

		rec := &record.CountySaleRecord{
			ID:      table.Col(row, ColID),
			Address: table.Col(row, ColAddress),
			Raw:     table.RowMap(row),
			RowNum:  rowNum,
			State:   record.StateUnmatched,
		}

		rec.ParcelKey = countyParcelKey(table, row)
		rec.Major, rec.Minor = normalize.SplitParcelKey(rec.ParcelKey)

		rec.SaleDate = normalize.Date(table.Col(row, ColSaleDate))
		rec.ClosePrice = normalize.Money(table.Col(row, ColClose))
		if rawDate := table.Col(row, ColSaleDate); rawDate != "" && rec.SaleDate.IsZero() {
			ds.Degraded++
		}

		ds.Records = append(ds.Records, rec)
	}

	debug.Output(localDebug, "county extract: %d records, %d degraded rows", len(ds.Records), ds.Degraded)
	return ds, nil
}

// countyParcelKey prefers the split major/minor columns and falls back to the
// combined parcel-number column (last 10 digits).
func countyParcelKey(t *Table, row []string) string {
	if key := normalize.ParcelKeyFromParts(t.Col(row, ColMajor), t.Col(row, ColMinor)); key != "" {
		return key
	}
	return normalize.ParcelKeyFromCombined(t.Col(row, ColParcelNbr))
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
