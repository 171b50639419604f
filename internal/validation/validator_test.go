package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parcel-recon/internal/config"
	"github.com/parcel-recon/internal/report"
)

func writeReport(t *testing.T, dir string, mutate func(*report.Report)) string {
	t.Helper()
	rep := report.New(config.DefaultTolerances())
	rep.Counts = report.Counts{
		CountyRows:   2,
		MLSParsed:    3,
		MLSClosed:    2,
		MLSOpen:      1,
		Matched:      1,
		MLSOnlyAdded: 1,
		OpenAdded:    0,
		TotalOutput:  3,
	}
	if mutate != nil {
		mutate(rep)
	}
	path := filepath.Join(dir, "report.json")
	if err := rep.Write(path); err != nil {
		t.Fatalf("write report: %v", err)
	}
	return path
}

func writeOutput(t *testing.T, dir string, dataRows int) string {
	t.Helper()
	header := strings.Join(RequiredOutputColumns, ",")
	var b strings.Builder
	b.WriteString(header + "\n")
	for i := 0; i < dataRows; i++ {
		b.WriteString(strings.Repeat(",", len(RequiredOutputColumns)-1) + "\n")
	}
	path := filepath.Join(dir, "enriched.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("write output: %v", err)
	}
	return path
}

func TestValidatePasses(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeReport(t, dir, nil)
	outputPath := writeOutput(t, dir, 3)

	res, err := Validate(reportPath, outputPath)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Passed {
		t.Fatalf("expected pass, got errors: %v", res.Errors)
	}
}

func TestValidateFailsOnRowCountMismatch(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeReport(t, dir, nil)
	outputPath := writeOutput(t, dir, 2) // report claims 3

	res, err := Validate(reportPath, outputPath)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Passed {
		t.Fatalf("expected failure on row count mismatch")
	}
}

func TestValidateFailsOnDroppedRows(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeReport(t, dir, func(r *report.Report) {
		r.Counts.CountyRows = 10
		r.Counts.TotalOutput = 3 // fewer than county rows
		r.Counts.MLSOnlyAdded = 0
	})
	outputPath := writeOutput(t, dir, 3)

	res, err := Validate(reportPath, outputPath)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Passed {
		t.Fatalf("expected failure when output rows fall below county rows")
	}
}

func TestValidateFailsOnMissingColumn(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeReport(t, dir, func(r *report.Report) {
		r.Counts = report.Counts{CountyRows: 1, TotalOutput: 1}
	})

	path := filepath.Join(dir, "enriched.csv")
	if err := os.WriteFile(path, []byte("id,address\n1,x\n"), 0644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	res, err := Validate(reportPath, path)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Passed {
		t.Fatalf("expected failure for missing contract columns")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "dataMode") {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors should name the missing column, got %v", res.Errors)
	}
}

func TestValidateWarnsOnImplausibleRatio(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeReport(t, dir, func(r *report.Report) {
		r.Summary.Samples = 5
		r.Summary.MeanSaleToList = 3.5
		r.Summary.MedianSaleToList = 1.01
	})
	outputPath := writeOutput(t, dir, 3)

	res, err := Validate(reportPath, outputPath)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Passed {
		t.Fatalf("implausible ratios warn, they do not fail: %v", res.Errors)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a ratio warning")
	}
}
