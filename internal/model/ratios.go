package model

import (
	"math"
	"time"
)

// Ratio names as reported by the upstream data providers.
const (
	RatioDebtToEquity   = "debtToEquity"
	RatioCurrentRatio   = "currentRatio"
	RatioReturnOnEquity = "returnOnEquity"
	RatioProfitMargin   = "profitMargins"
	RatioTrailingPE     = "trailingPE"
	RatioPriceToBook    = "priceToBook"
	RatioPEG            = "pegRatio"
	RatioMarketCap      = "marketCap"
	RatioRevenueGrowth  = "revenueGrowth"
	RatioEarningsGrowth = "earningsGrowth"
)

// RequiredRatios lists every ratio a snapshot must carry before it can be scored.
var RequiredRatios = []string{
	RatioDebtToEquity, RatioCurrentRatio, RatioReturnOnEquity, RatioProfitMargin,
	RatioTrailingPE, RatioPriceToBook, RatioPEG, RatioMarketCap,
	RatioRevenueGrowth, RatioEarningsGrowth,
}

// RatioSnapshot holds one company's fundamental ratios at a point in time.
// A nil field means the provider did not report the ratio.
type RatioSnapshot struct {
	Ticker    string    `json:"ticker"`
	Source    string    `json:"source,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`

	DebtToEquity   *float64 `json:"debtToEquity"`
	CurrentRatio   *float64 `json:"currentRatio"`
	ReturnOnEquity *float64 `json:"returnOnEquity"`
	ProfitMargin   *float64 `json:"profitMargins"`
	TrailingPE     *float64 `json:"trailingPE"`
	PriceToBook    *float64 `json:"priceToBook"`
	PEGRatio       *float64 `json:"pegRatio"`
	MarketCap      *float64 `json:"marketCap"`
	RevenueGrowth  *float64 `json:"revenueGrowth"`
	EarningsGrowth *float64 `json:"earningsGrowth"`
}

// Ratio returns the named ratio, or nil if the name is unknown or the value is absent.
func (s *RatioSnapshot) Ratio(name string) *float64 {
	if s == nil {
		return nil
	}
	switch name {
	case RatioDebtToEquity:
		return s.DebtToEquity
	case RatioCurrentRatio:
		return s.CurrentRatio
	case RatioReturnOnEquity:
		return s.ReturnOnEquity
	case RatioProfitMargin:
		return s.ProfitMargin
	case RatioTrailingPE:
		return s.TrailingPE
	case RatioPriceToBook:
		return s.PriceToBook
	case RatioPEG:
		return s.PEGRatio
	case RatioMarketCap:
		return s.MarketCap
	case RatioRevenueGrowth:
		return s.RevenueGrowth
	case RatioEarningsGrowth:
		return s.EarningsGrowth
	}
	return nil
}

// SetRatio stores v under the named ratio. Unknown names are ignored and reported as false.
func (s *RatioSnapshot) SetRatio(name string, v float64) bool {
	p := &v
	switch name {
	case RatioDebtToEquity:
		s.DebtToEquity = p
	case RatioCurrentRatio:
		s.CurrentRatio = p
	case RatioReturnOnEquity:
		s.ReturnOnEquity = p
	case RatioProfitMargin:
		s.ProfitMargin = p
	case RatioTrailingPE:
		s.TrailingPE = p
	case RatioPriceToBook:
		s.PriceToBook = p
	case RatioPEG:
		s.PEGRatio = p
	case RatioMarketCap:
		s.MarketCap = p
	case RatioRevenueGrowth:
		s.RevenueGrowth = p
	case RatioEarningsGrowth:
		s.EarningsGrowth = p
	default:
		return false
	}
	return true
}

// Missing returns the required ratios that are absent or NaN, in RequiredRatios order.
func (s *RatioSnapshot) Missing() []string {
	var missing []string
	for _, name := range RequiredRatios {
		v := s.Ratio(name)
		if v == nil || math.IsNaN(*v) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Complete reports whether every required ratio is present. A nil snapshot is incomplete.
func (s *RatioSnapshot) Complete() bool {
	if s == nil {
		return false
	}
	return len(s.Missing()) == 0
}

// Float returns a pointer to v. Handy for building snapshots by hand.
func Float(v float64) *float64 { return &v }

// StatementPeriod is one reporting period of a financial statement.
type StatementPeriod struct {
	Date  string             `json:"date"`
	Items map[string]float64 `json:"items"`
}

// FinancialStatements groups the three primary statements for a company, newest period first.
type FinancialStatements struct {
	Ticker   string            `json:"ticker"`
	Income   []StatementPeriod `json:"income"`
	Balance  []StatementPeriod `json:"balance"`
	CashFlow []StatementPeriod `json:"cashFlow"`
}
