package engine

import (
	"github.com/parcel-recon/internal/record"
)

// Synthesizer emits standalone output rows for brokerage records never
// consumed by the matcher.
type Synthesizer struct {
	excl       *Exclusions
	snapshots  map[string]*record.ParcelSnapshot
	signatures map[string]bool
}

// NewSynthesizer builds the synthesis stage. The county signature set keeps a
// brokerage sale already present verbatim in the extract from being added a
// second time under a different join path.
func NewSynthesizer(excl *Exclusions, snapshots map[string]*record.ParcelSnapshot, county []*record.CountySaleRecord) *Synthesizer {
	signatures := make(map[string]bool, len(county))
	for _, rec := range county {
		if sig := rec.Signature(); sig != "" {
			signatures[sig] = true
		}
	}
	return &Synthesizer{
		excl:       excl,
		snapshots:  snapshots,
		signatures: signatures,
	}
}

// Synthesize walks the brokerage records in load order and returns the
// closed-sale rows and open-listing rows for unused records, in that order.
func (s *Synthesizer) Synthesize(listings []*record.RealtorListingRecord) (closed, open []map[string]string) {
	for _, l := range listings {
		if s.excl.IsUsed(l.UID) {
			continue
		}
		if l.Closed {
			if sig := l.SaleSignature(); sig != "" && s.signatures[sig] {
				continue
			}
			closed = append(closed, s.soldRow(l))
		} else {
			open = append(open, s.openRow(l))
		}
	}
	return closed, open
}

// soldRow synthesizes a row for a brokerage sale absent from the county
// extract. The sale date and close price come from the brokerage side.
func (s *Synthesizer) soldRow(l *record.RealtorListingRecord) map[string]string {
	row := s.baseRow(l, record.JoinSoldNotCounty)
	row["saleDate"] = formatDate(l.SellingDate)
	row["closePrice"] = formatMoney(l.SellingPrice)
	return row
}

// openRow synthesizes a row for an open listing with no county counterpart.
// It carries no close price or sale date.
func (s *Synthesizer) openRow(l *record.RealtorListingRecord) map[string]string {
	return s.baseRow(l, record.JoinStatusOpen)
}

func (s *Synthesizer) baseRow(l *record.RealtorListingRecord, joinMethod string) map[string]string {
	row := make(map[string]string, len(EnrichmentColumns))

	row["dataMode"] = record.DataModeMLS
	row["mlsJoinMethod"] = joinMethod
	row["id"] = syntheticID(l)
	fillListingColumns(row, l)

	if l.ParcelKey != "" {
		row["parcelNbr"] = l.ParcelKey
		row["major"] = l.ParcelKey[:6]
		row["minor"] = l.ParcelKey[6:]
	}
	if l.Address != "" {
		row["address"] = l.Address
	}

	// Descriptive fields come from the brokerage record first and the parcel
	// snapshot second; a value already present is never overwritten.
	if snap, ok := s.snapshots[l.ParcelKey]; ok {
		for _, col := range SnapshotColumns {
			if row[col] == "" {
				row[col] = snap.Fields[col]
			}
		}
	}

	return row
}

// syntheticID derives the output id for a synthesized row. The listing
// number is the readable choice when the export carries one.
func syntheticID(l *record.RealtorListingRecord) string {
	if l.ListingNumber != "" {
		return "MLS-" + l.ListingNumber
	}
	return "MLS-" + l.UID
}
