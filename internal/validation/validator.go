package validation

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/parcel-recon/internal/report"
)

// RequiredOutputColumns is the contract the enriched CSV must satisfy for
// downstream consumers (dashboard, publisher).
var RequiredOutputColumns = []string{
	"dataMode", "id", "address", "major", "minor", "parcelNbr", "saleDate",
	"listPriceAtPending", "closePrice", "mlsStatus", "mlsListingPrice",
	"mlsOriginalPrice", "mlsDOM", "mlsCDOM", "saleToListRatio",
	"saleToOriginalListRatio", "bidUpAmount", "bidUpPct",
}

// Result is the re-derived pass/fail status for one run.
type Result struct {
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	OutputRows int `json:"outputRows"`
}

// Validate re-derives pass/fail from the report and output CSV rather than
// trusting the pipeline's own accounting.
func Validate(reportPath, outputPath string) (*Result, error) {
	rep, err := report.Load(reportPath)
	if err != nil {
		return nil, err
	}

	res := &Result{Passed: true}

	header, dataRows, err := readOutput(outputPath)
	if err != nil {
		return nil, err
	}
	res.OutputRows = dataRows

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	for _, col := range RequiredOutputColumns {
		if !present[col] {
			res.fail("output is missing required column %q", col)
		}
	}

	res.checkCounts(rep, dataRows)
	res.checkSummary(rep)

	return res, nil
}

func (r *Result) checkCounts(rep *report.Report, dataRows int) {
	c := rep.Counts

	if dataRows != c.TotalOutput {
		r.fail("output has %d rows but report claims %d", dataRows, c.TotalOutput)
	}
	if c.TotalOutput < c.CountyRows {
		r.fail("output rows (%d) below county row count (%d): rows were dropped", c.TotalOutput, c.CountyRows)
	}
	if want := c.CountyRows + c.MLSOnlyAdded + c.OpenAdded; c.TotalOutput != want {
		r.fail("totalOutput %d does not equal county %d + mlsOnly %d + open %d",
			c.TotalOutput, c.CountyRows, c.MLSOnlyAdded, c.OpenAdded)
	}
	if c.Matched+c.StubEnriched > c.CountyRows {
		r.fail("matched %d + stub %d exceeds county rows %d", c.Matched, c.StubEnriched, c.CountyRows)
	}
	if c.MLSClosed+c.MLSOpen != c.MLSParsed {
		r.fail("closed %d + open %d does not equal parsed %d", c.MLSClosed, c.MLSOpen, c.MLSParsed)
	}

	if c.Matched == 0 && c.CountyRows > 0 {
		r.warn("no closed matches at all; check the export coverage window")
	}
	if c.DegradedRows > c.CountyRows/10 {
		r.warn("%d of %d county rows degraded during parsing", c.DegradedRows, c.CountyRows)
	}
}

func (r *Result) checkSummary(rep *report.Report) {
	s := rep.Summary
	if s.Samples == 0 {
		return
	}
	if s.MeanSaleToList < 0.5 || s.MeanSaleToList > 2.0 {
		r.warn("mean sale-to-list ratio %.4f is outside the plausible range", s.MeanSaleToList)
	}
	if s.MedianSaleToList < 0.5 || s.MedianSaleToList > 2.0 {
		r.warn("median sale-to-list ratio %.4f is outside the plausible range", s.MedianSaleToList)
	}
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Passed = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// readOutput returns the output header and the data row count.
func readOutput(path string) ([]string, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open output CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read output CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("output CSV %s is empty", path)
	}
	return rows[0], len(rows) - 1, nil
}
