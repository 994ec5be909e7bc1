package strategy

import (
	"fmt"
	"strings"
)

// Thresholds configures every criterion of every scorer. All values must be positive.
type Thresholds struct {
	LeverageCeiling   float64 // max debt/equity
	MinLiquidity      float64 // min current ratio
	MinROE            float64
	MinNetMargin      float64 // quality axis
	MinProfitMargin   float64 // standalone profitability scorer
	MinMarketCap      float64
	MaxPE             float64
	MaxPB             float64
	MaxPEG            float64
	MinRevenueGrowth  float64
	MinEarningsGrowth float64
}

// DefaultThresholds returns the stock screening thresholds used when no configuration is supplied.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LeverageCeiling:   0.5,
		MinLiquidity:      1.5,
		MinROE:            0.15,
		MinNetMargin:      0.10,
		MinProfitMargin:   0.10,
		MinMarketCap:      1e9,
		MaxPE:             25,
		MaxPB:             3,
		MaxPEG:            2,
		MinRevenueGrowth:  0.10,
		MinEarningsGrowth: 0.15,
	}
}

// Validate returns an error naming every threshold that is not a positive number.
func (t Thresholds) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"leverage ceiling", t.LeverageCeiling},
		{"min liquidity", t.MinLiquidity},
		{"min roe", t.MinROE},
		{"min net margin", t.MinNetMargin},
		{"min profit margin", t.MinProfitMargin},
		{"min market cap", t.MinMarketCap},
		{"max pe", t.MaxPE},
		{"max pb", t.MaxPB},
		{"max peg", t.MaxPEG},
		{"min revenue growth", t.MinRevenueGrowth},
		{"min earnings growth", t.MinEarningsGrowth},
	}
	var bad []string
	for _, f := range fields {
		// NaN fails this comparison too.
		if !(f.value > 0) {
			bad = append(bad, f.name)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("thresholds must be positive: %s", strings.Join(bad, ", "))
	}
	return nil
}
