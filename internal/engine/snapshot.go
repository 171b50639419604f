package engine

import (
	"github.com/parcel-recon/internal/record"
)

// SnapshotColumns are the descriptive county columns aggregated per parcel
// key and used to backfill synthesized rows.
var SnapshotColumns = []string{
	"address",
	"neighborhood",
	"type",
	"zip",
	"district",
	"area",
	"subArea",
	"lotSize",
	"zoning",
	"latitude",
	"longitude",
	"beds",
	"baths",
	"sqft",
	"yearBuilt",
	"assessedValue",
}

// BuildSnapshots aggregates one ParcelSnapshot per parcel key, keeping the
// first non-empty value seen for each field in county-row order.
func BuildSnapshots(records []*record.CountySaleRecord) map[string]*record.ParcelSnapshot {
	snapshots := make(map[string]*record.ParcelSnapshot)

	for _, rec := range records {
		if rec.ParcelKey == "" {
			continue
		}

		snap, ok := snapshots[rec.ParcelKey]
		if !ok {
			snap = &record.ParcelSnapshot{
				ParcelKey: rec.ParcelKey,
				Fields:    make(map[string]string, len(SnapshotColumns)),
			}
			snapshots[rec.ParcelKey] = snap
		}

		for _, col := range SnapshotColumns {
			if snap.Fields[col] == "" {
				if v := rec.Raw[col]; v != "" {
					snap.Fields[col] = v
				}
			}
		}
	}

	return snapshots
}
