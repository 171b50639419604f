package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Tolerances holds every matching and enrichment threshold in one place.
// Earlier iterations of this pipeline scattered these as literals; they are
// configuration now so a run can be tuned without an edit-and-redeploy cycle.
type Tolerances struct {
	// Closed-sale matching.
	MaxSaleDateLagDays int   `toml:"max_sale_date_lag_days"`
	PriceTolerance     int64 `toml:"price_tolerance"`
	// Fractional close-price tolerance applied when the absolute tolerance
	// fails (0.005 = 0.5%).
	PriceTolerancePct float64 `toml:"price_tolerance_pct"`

	// Listing-stub matching.
	MaxStubLagDays int     `toml:"max_stub_lag_days"`
	StubPriceRatio float64 `toml:"stub_price_ratio"`

	// Hot-market classification.
	UltraHotDays  int `toml:"ultra_hot_days"`
	HotMarketDays int `toml:"hot_market_days"`
}

// DefaultTolerances returns the production thresholds. Each can be
// overridden from the environment; a tolerances file wins over both.
func DefaultTolerances() Tolerances {
	return Tolerances{
		MaxSaleDateLagDays: GetEnvInt("MAX_SALE_DATE_LAG_DAYS", 45),
		PriceTolerance:     int64(GetEnvInt("PRICE_TOLERANCE", 5000)),
		PriceTolerancePct:  GetEnvFloat("PRICE_TOLERANCE_PCT", 0.005),
		MaxStubLagDays:     GetEnvInt("MAX_STUB_LAG_DAYS", 120),
		StubPriceRatio:     GetEnvFloat("STUB_PRICE_RATIO", 0.5),
		UltraHotDays:       GetEnvInt("ULTRA_HOT_DAYS", 5),
		HotMarketDays:      GetEnvInt("HOT_MARKET_DAYS", 10),
	}
}

// LoadTolerances reads thresholds from a TOML file, filling any field left
// unset with its default. An empty path returns the defaults unchanged.
func LoadTolerances(path string) (Tolerances, error) {
	t := DefaultTolerances()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tolerances file: %w", err)
	}
	if err := toml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse tolerances file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate rejects thresholds that would make matching meaningless.
func (t Tolerances) Validate() error {
	if t.MaxSaleDateLagDays < 0 {
		return fmt.Errorf("max_sale_date_lag_days must be >= 0, got %d", t.MaxSaleDateLagDays)
	}
	if t.PriceTolerance < 0 {
		return fmt.Errorf("price_tolerance must be >= 0, got %d", t.PriceTolerance)
	}
	if t.PriceTolerancePct < 0 || t.PriceTolerancePct > 1 {
		return fmt.Errorf("price_tolerance_pct must be in [0,1], got %g", t.PriceTolerancePct)
	}
	if t.MaxStubLagDays < 0 {
		return fmt.Errorf("max_stub_lag_days must be >= 0, got %d", t.MaxStubLagDays)
	}
	if t.StubPriceRatio < 0 || t.StubPriceRatio > 1 {
		return fmt.Errorf("stub_price_ratio must be in [0,1], got %g", t.StubPriceRatio)
	}
	if t.UltraHotDays > t.HotMarketDays {
		return fmt.Errorf("ultra_hot_days (%d) must not exceed hot_market_days (%d)", t.UltraHotDays, t.HotMarketDays)
	}
	return nil
}
