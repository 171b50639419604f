package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/parcel-recon/internal/config"
)

// Counts holds the row counts by category that the external validator
// re-derives pass/fail from.
type Counts struct {
	CountyRows   int `json:"countyRows"`
	MLSParsed    int `json:"mlsParsed"`
	MLSClosed    int `json:"mlsClosed"`
	MLSOpen      int `json:"mlsOpen"`
	MLSActive    int `json:"mlsActive"`
	Matched      int `json:"matched"`
	StubEnriched int `json:"stubEnriched"`
	MLSOnlyAdded int `json:"mlsOnlyAdded"`
	OpenAdded    int `json:"openAdded"`
	DegradedRows int `json:"degradedRows"`
	TotalOutput  int `json:"totalOutput"`
}

// Summary carries aggregate market statistics over the matched pairs.
type Summary struct {
	Samples           int     `json:"samples"`
	MeanSaleToList    float64 `json:"meanSaleToList"`
	MedianSaleToList  float64 `json:"medianSaleToList"`
	MeanBidUpAmount   float64 `json:"meanBidUpAmount"`
	MedianBidUpAmount float64 `json:"medianBidUpAmount"`
}

// Report is the JSON artifact written beside the enriched CSV.
type Report struct {
	RunID       string            `json:"runId"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Tolerances  config.Tolerances `json:"tolerances"`
	Counts      Counts            `json:"counts"`
	Summary     Summary           `json:"summary"`
}

// New creates a report shell with a fresh run ID.
func New(tol config.Tolerances) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Tolerances:  tol,
	}
}

// Summarize fills the aggregate statistics from the matched pairs'
// sale-to-list ratios and bid-up amounts.
func (r *Report) Summarize(saleToList, bidUp []float64) {
	r.Summary.Samples = len(saleToList)
	if len(saleToList) == 0 {
		return
	}

	sort.Float64s(saleToList)
	sort.Float64s(bidUp)

	r.Summary.MeanSaleToList = stat.Mean(saleToList, nil)
	r.Summary.MedianSaleToList = stat.Quantile(0.5, stat.Empirical, saleToList, nil)
	if len(bidUp) > 0 {
		r.Summary.MeanBidUpAmount = stat.Mean(bidUp, nil)
		r.Summary.MedianBidUpAmount = stat.Quantile(0.5, stat.Empirical, bidUp, nil)
	}
}

// Write serializes the report as indented JSON.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Load reads a report back for validation.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, nil
}
