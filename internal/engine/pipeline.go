package engine

import (
	"fmt"

	"github.com/parcel-recon/internal/config"
	"github.com/parcel-recon/internal/debug"
	"github.com/parcel-recon/internal/etl"
	"github.com/parcel-recon/internal/normalize"
	"github.com/parcel-recon/internal/record"
	"github.com/parcel-recon/internal/report"
)

// Options configures one pipeline run.
type Options struct {
	CountyPath string
	RealtorDir string
	CoordsPath string // optional
	OutputPath string
	ReportPath string
	Tolerances config.Tolerances
	Debug      bool
}

// Pipeline reconciles the county extract with the brokerage exports in a
// single deterministic pass. It either writes both the enriched CSV and the
// report, or fails having written neither.
type Pipeline struct {
	opts Options
}

// NewPipeline creates a pipeline for the given options.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Run executes load, match, enrich, synthesize, assemble and write.
func (p *Pipeline) Run() (*report.Report, error) {
	defer debug.Timing(p.opts.Debug, "reconciliation pipeline")()

	if err := p.opts.Tolerances.Validate(); err != nil {
		return nil, err
	}

	fmt.Println("=== Loading sources ===")
	county, err := etl.LoadCounty(p.opts.Debug, p.opts.CountyPath)
	if err != nil {
		return nil, err
	}
	if _, err := etl.BackfillCoordinates(p.opts.Debug, p.opts.CoordsPath, county.Records); err != nil {
		return nil, err
	}
	listings, err := etl.LoadRealtorDir(p.opts.Debug, p.opts.RealtorDir)
	if err != nil {
		return nil, err
	}
	fmt.Printf("✓ Loaded %d county rows, %d brokerage rows\n", len(county.Records), len(listings))

	fmt.Println("=== Matching ===")
	index := BuildCandidateIndex(listings)
	snapshots := BuildSnapshots(county.Records)
	matcher := NewMatcher(p.opts.Tolerances, index)

	rep := report.New(p.opts.Tolerances)
	rep.Counts.CountyRows = len(county.Records)
	rep.Counts.MLSParsed = len(listings)
	rep.Counts.DegradedRows = county.Degraded
	countListings(&rep.Counts, listings)

	var saleToList, bidUp []float64

	// County-row order is load-bearing: the greedy exclusion set means a
	// different order breaks ties in a different record's favor.
	for _, rec := range county.Records {
		matcher.MatchRecord(rec)
		if rec.Listing == nil {
			continue
		}

		rec.Metrics = Enrich(p.opts.Tolerances, rec, rec.Listing)
		switch rec.State {
		case record.StateClosedMatched:
			rep.Counts.Matched++
		case record.StateStubMatched:
			rep.Counts.StubEnriched++
		}
		if rec.Metrics.ListPriceAtPending > 0 {
			saleToList = append(saleToList, rec.Metrics.SaleToListRatio)
			bidUp = append(bidUp, float64(rec.Metrics.BidUpAmount))
		}
	}
	fmt.Printf("✓ Matched %d closed, %d stub (of %d county rows)\n",
		rep.Counts.Matched, rep.Counts.StubEnriched, len(county.Records))

	fmt.Println("=== Synthesizing MLS-only rows ===")
	synthesizer := NewSynthesizer(matcher.Exclusions(), snapshots, county.Records)
	synthClosed, synthOpen := synthesizer.Synthesize(listings)
	rep.Counts.MLSOnlyAdded = len(synthClosed)
	rep.Counts.OpenAdded = len(synthOpen)
	fmt.Printf("✓ Added %d sold-not-in-county rows, %d open-listing rows\n",
		len(synthClosed), len(synthOpen))

	rows := AssembleRows(county.Records, synthClosed, synthOpen)
	rep.Counts.TotalOutput = len(rows)
	rep.Summarize(saleToList, bidUp)

	columns := OutputColumns(county.Columns)
	if err := etl.WriteCSV(p.opts.OutputPath, columns, rows); err != nil {
		return nil, err
	}
	if err := rep.Write(p.opts.ReportPath); err != nil {
		return nil, err
	}

	fmt.Printf("✓ Wrote %d rows to %s\n", len(rows), p.opts.OutputPath)
	fmt.Printf("✓ Wrote report to %s\n", p.opts.ReportPath)
	return rep, nil
}

func countListings(counts *report.Counts, listings []*record.RealtorListingRecord) {
	for _, l := range listings {
		if l.Closed {
			counts.MLSClosed++
			continue
		}
		counts.MLSOpen++
		if l.Status == normalize.StatusActive {
			counts.MLSActive++
		}
	}
}
