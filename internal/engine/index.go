package engine

import (
	"github.com/parcel-recon/internal/record"
)

// CandidateIndex partitions brokerage records by parcel key into a closed-sale
// bucket and an open-listing bucket. Built once per run; bucket slices keep
// load order, which is the final tie-break when scores are equal.
type CandidateIndex struct {
	Closed map[string][]*record.RealtorListingRecord
	Open   map[string][]*record.RealtorListingRecord
}

// BuildCandidateIndex indexes brokerage records for matching. Records with an
// invalid parcel key are left out entirely: they can never match.
func BuildCandidateIndex(listings []*record.RealtorListingRecord) *CandidateIndex {
	idx := &CandidateIndex{
		Closed: make(map[string][]*record.RealtorListingRecord),
		Open:   make(map[string][]*record.RealtorListingRecord),
	}

	for _, l := range listings {
		if l.ParcelKey == "" {
			continue
		}
		if l.Closed && !l.SellingDate.IsZero() && l.SellingPrice > 0 {
			idx.Closed[l.ParcelKey] = append(idx.Closed[l.ParcelKey], l)
		} else if !l.Closed {
			idx.Open[l.ParcelKey] = append(idx.Open[l.ParcelKey], l)
		}
	}

	return idx
}
