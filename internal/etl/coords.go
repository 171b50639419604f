package etl

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/parcel-recon/internal/debug"
	"github.com/parcel-recon/internal/normalize"
	"github.com/parcel-recon/internal/record"
)

// BackfillCoordinates streams the optional GIS coordinate side table and
// fills latitude/longitude onto county records that lack them. The table is
// keyed by major/minor and is the only input processed row-by-row rather
// than loaded whole: it can be much larger than the sale extract.
//
// An empty path is a no-op. A missing file is a no-op too: coordinates are
// optional enrichment, not a required input.
func BackfillCoordinates(localDebug bool, path string, records []*record.CountySaleRecord) (int, error) {
	if path == "" {
		return 0, nil
	}

	file, err := os.Open(path)
	if err != nil {
		debug.Output(localDebug, "coordinate table %s not available: %v", path, err)
		return 0, nil
	}
	defer file.Close()

	byKey := make(map[string][]*record.CountySaleRecord)
	for _, rec := range records {
		if rec.ParcelKey == "" {
			continue
		}
		if rec.Raw[ColLatitude] == "" || rec.Raw[ColLongitude] == "" {
			byKey[rec.ParcelKey] = append(byKey[rec.ParcelKey], rec)
		}
	}
	if len(byKey) == 0 {
		return 0, nil
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, nil
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	cell := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	filled := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		key := normalize.ParcelKeyFromParts(cell(row, "major"), cell(row, "minor"))
		targets, ok := byKey[key]
		if !ok {
			continue
		}

		lat := cell(row, "latitude")
		lon := cell(row, "longitude")
		if lat == "" || lon == "" {
			continue
		}

		for _, rec := range targets {
			if rec.Raw[ColLatitude] == "" {
				rec.Raw[ColLatitude] = lat
			}
			if rec.Raw[ColLongitude] == "" {
				rec.Raw[ColLongitude] = lon
			}
			filled++
		}
		delete(byKey, key)
	}

	debug.Output(localDebug, "coordinate backfill: %d records filled", filled)
	return filled, nil
}
