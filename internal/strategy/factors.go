package strategy

import (
	"math"

	"Buffetology/internal/model"
)

// criterion is one binary pass/fail rule within an axis.
type criterion struct {
	Name  string
	Ratio func(*model.RatioSnapshot) *float64
	Pass  func(v float64, th Thresholds) bool
}

// positive is the gate every criterion goes through: the ratio must be present and strictly positive.
// A nil, NaN, zero or negative ratio scores nothing regardless of the threshold.
func positive(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || *v <= 0 {
		return 0, false
	}
	return *v, true
}

func atMost(limit func(Thresholds) float64) func(float64, Thresholds) bool {
	return func(v float64, th Thresholds) bool { return v <= limit(th) }
}

func atLeast(limit func(Thresholds) float64) func(float64, Thresholds) bool {
	return func(v float64, th Thresholds) bool { return v >= limit(th) }
}

var (
	leverage = criterion{
		Name:  "leverage",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.DebtToEquity },
		Pass:  atMost(func(th Thresholds) float64 { return th.LeverageCeiling }),
	}
	liquidity = criterion{
		Name:  "liquidity",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.CurrentRatio },
		Pass:  atLeast(func(th Thresholds) float64 { return th.MinLiquidity }),
	}
	returnOnEquity = criterion{
		Name:  "roe",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.ReturnOnEquity },
		Pass:  atLeast(func(th Thresholds) float64 { return th.MinROE }),
	}
	netMargin = criterion{
		Name:  "net margin",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.ProfitMargin },
		Pass:  atLeast(func(th Thresholds) float64 { return th.MinNetMargin }),
	}
	profitMargin = criterion{
		Name:  "profit margin",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.ProfitMargin },
		Pass:  atLeast(func(th Thresholds) float64 { return th.MinProfitMargin }),
	}
	scale = criterion{
		Name:  "scale",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.MarketCap },
		Pass:  atLeast(func(th Thresholds) float64 { return th.MinMarketCap }),
	}
	priceEarnings = criterion{
		Name:  "p/e",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.TrailingPE },
		Pass:  atMost(func(th Thresholds) float64 { return th.MaxPE }),
	}
	priceBook = criterion{
		Name:  "p/b",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.PriceToBook },
		Pass:  atMost(func(th Thresholds) float64 { return th.MaxPB }),
	}
	peg = criterion{
		Name:  "peg",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.PEGRatio },
		Pass:  atMost(func(th Thresholds) float64 { return th.MaxPEG }),
	}
	revenueGrowth = criterion{
		Name:  "revenue growth",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.RevenueGrowth },
		Pass:  atLeast(func(th Thresholds) float64 { return th.MinRevenueGrowth }),
	}
	earningsGrowth = criterion{
		Name:  "earnings growth",
		Ratio: func(s *model.RatioSnapshot) *float64 { return s.EarningsGrowth },
		Pass:  atLeast(func(th Thresholds) float64 { return th.MinEarningsGrowth }),
	}
)

// axis is a set of equally weighted criteria summing to 100 points.
type axis []criterion

var (
	qualityAxis = axis{leverage, liquidity, returnOnEquity, netMargin, scale}
	valueAxis   = axis{priceEarnings, priceBook, peg, scale}
	// No provider reports free-cash-flow growth, so earnings growth is scored twice as its proxy.
	growthAxis = axis{revenueGrowth, earningsGrowth, earningsGrowth}
)

func (c criterion) passes(s *model.RatioSnapshot, th Thresholds) bool {
	v, ok := positive(c.Ratio(s))
	return ok && c.Pass(v, th)
}

// score sums the points of passing criteria and clamps the total into [0, 100].
func (a axis) score(s *model.RatioSnapshot, th Thresholds) float64 {
	if s == nil || len(a) == 0 {
		return 0
	}
	points := 100.0 / float64(len(a))
	total := 0.0
	for _, c := range a {
		if c.passes(s, th) {
			total += points
		}
	}
	return clamp(total)
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

// QualityScore scores leverage, liquidity, ROE, net margin and size at 20 points each.
func QualityScore(s *model.RatioSnapshot, th Thresholds) float64 {
	return qualityAxis.score(s, th)
}

// ValueScore scores P/E, P/B, PEG and size at 25 points each.
func ValueScore(s *model.RatioSnapshot, th Thresholds) float64 {
	return valueAxis.score(s, th)
}

// GrowthScore scores revenue growth and earnings growth, the latter counted twice, at 100/3 points each.
func GrowthScore(s *model.RatioSnapshot, th Thresholds) float64 {
	return growthAxis.score(s, th)
}
