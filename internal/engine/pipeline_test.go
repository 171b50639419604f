package engine

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/parcel-recon/internal/config"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fixtureOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()

	countyPath := writeFixture(t, dir, "county.csv",
		"id,address,type,closePrice,major,minor,saleDate,neighborhood\n"+
			// Closed match: lag 2, diff 1000.
			"1,123 Main St,SFR,500000,123456,0010,2024-01-10,Maple Leaf\n"+
			// Stub match: pending 2024-01-01, 9 days before the sale.
			"2,456 Oak Ave,SFR,450000,123456,0020,2024-01-10,Greenwood\n"+
			// No counterpart at all.
			"3,789 Pine Rd,SFR,300000,123456,0030,2024-01-15,Fremont\n")

	mlsDir := filepath.Join(dir, "mls")
	writeFixture(t, mlsDir, "seattle_north.csv",
		"APN,Status,Listing Date,Pending Date,Contractual Date,Selling Date,Listing Price,Original Price,Selling Price,DOM,CDOM,Listing Number\n"+
			"123456-0010,Sold,2023-12-01,2024-01-02,,2024-01-12,480000,490000,501000,8,8,ML100\n"+
			"123456-0020,Pending,2023-12-10,2024-01-01,,,445000,455000,,10,10,ML101\n"+
			// Unused sold record, absent from the county extract.
			"123456-0090,Sold,2023-11-01,2023-12-01,,2023-12-20,350000,350000,360000,30,30,ML102\n"+
			// Unused open listing.
			"123456-0091,Active,2024-01-05,,,,600000,600000,,4,4,ML103\n")

	return Options{
		CountyPath: countyPath,
		RealtorDir: mlsDir,
		OutputPath: filepath.Join(dir, "out", "enriched.csv"),
		ReportPath: filepath.Join(dir, "out", "report.json"),
		Tolerances: config.DefaultTolerances(),
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	opts := fixtureOptions(t)
	rep, err := NewPipeline(opts).Run()
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	if rep.Counts.CountyRows != 3 {
		t.Fatalf("countyRows = %d", rep.Counts.CountyRows)
	}
	if rep.Counts.Matched != 1 || rep.Counts.StubEnriched != 1 {
		t.Fatalf("matched/stub = %d/%d, want 1/1", rep.Counts.Matched, rep.Counts.StubEnriched)
	}
	if rep.Counts.MLSOnlyAdded != 1 || rep.Counts.OpenAdded != 1 {
		t.Fatalf("synth counts = %d/%d, want 1/1", rep.Counts.MLSOnlyAdded, rep.Counts.OpenAdded)
	}
	if rep.Counts.TotalOutput != 5 {
		t.Fatalf("totalOutput = %d, want 5", rep.Counts.TotalOutput)
	}

	file, err := os.Open(opts.OutputPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(rows) != 6 { // header + 5
		t.Fatalf("output rows = %d", len(rows))
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	cell := func(row []string, name string) string { return row[col[name]] }

	matched := rows[1]
	if cell(matched, "dataMode") != "MLS_ENRICHED" {
		t.Fatalf("row 1 dataMode = %q", cell(matched, "dataMode"))
	}
	if cell(matched, "mlsJoinMethod") != "APN_PRICE_DATE_WINDOW" {
		t.Fatalf("row 1 join = %q", cell(matched, "mlsJoinMethod"))
	}
	if cell(matched, "bidUpAmount") != "21000" {
		t.Fatalf("row 1 bidUp = %q", cell(matched, "bidUpAmount"))
	}
	if cell(matched, "saleToListRatio") != "1.0437" {
		t.Fatalf("row 1 saleToList = %q", cell(matched, "saleToListRatio"))
	}
	if cell(matched, "hotMarketTag") != "HOT_MARKET_<=10D" {
		t.Fatalf("row 1 hot tag = %q", cell(matched, "hotMarketTag"))
	}

	stub := rows[2]
	if cell(stub, "mlsJoinMethod") != "APN_LISTING_STUB" {
		t.Fatalf("row 2 join = %q", cell(stub, "mlsJoinMethod"))
	}
	if cell(stub, "mlsStatus") != "Pending" {
		t.Fatalf("row 2 status = %q", cell(stub, "mlsStatus"))
	}

	unmatched := rows[3]
	if cell(unmatched, "dataMode") != "PUBLIC_PROXY" {
		t.Fatalf("row 3 dataMode = %q", cell(unmatched, "dataMode"))
	}

	soldOnly := rows[4]
	if cell(soldOnly, "mlsJoinMethod") != "MLS_SOLD_NOT_IN_COUNTY" {
		t.Fatalf("row 4 join = %q", cell(soldOnly, "mlsJoinMethod"))
	}
	if cell(soldOnly, "closePrice") != "360000" {
		t.Fatalf("row 4 closePrice = %q", cell(soldOnly, "closePrice"))
	}

	openOnly := rows[5]
	if cell(openOnly, "mlsJoinMethod") != "MLS_STATUS_OPEN" {
		t.Fatalf("row 5 join = %q", cell(openOnly, "mlsJoinMethod"))
	}
	if cell(openOnly, "closePrice") != "" {
		t.Fatalf("row 5 closePrice = %q, want empty", cell(openOnly, "closePrice"))
	}
}

func TestPipelineDeterministic(t *testing.T) {
	opts := fixtureOptions(t)
	if _, err := NewPipeline(opts).Run(); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatalf("read first output: %v", err)
	}

	if _, err := NewPipeline(opts).Run(); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatalf("read second output: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("re-running on identical inputs must produce byte-identical output")
	}
}

func TestPipelineFatalBeforeWrite(t *testing.T) {
	opts := fixtureOptions(t)
	opts.RealtorDir = filepath.Join(filepath.Dir(opts.CountyPath), "empty-mls")
	if err := os.MkdirAll(opts.RealtorDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := NewPipeline(opts).Run(); err == nil {
		t.Fatalf("expected fatal error for empty brokerage directory")
	}
	if _, err := os.Stat(opts.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("fatal errors must abort before any output is written")
	}
}
