package strategy

import "Buffetology/internal/model"

// DebtScore returns 100 when debt/equity is positive and within the leverage ceiling, else 0.
func DebtScore(s *model.RatioSnapshot, th Thresholds) float64 {
	return axis{leverage}.score(s, th)
}

// ProfitabilityScore awards 50 points for ROE and 50 for profit margin.
// It uses MinProfitMargin, not the quality axis' MinNetMargin.
func ProfitabilityScore(s *model.RatioSnapshot, th Thresholds) float64 {
	return axis{returnOnEquity, profitMargin}.score(s, th)
}

// EarningsGrowthScore returns 100 when earnings growth is positive and meets the minimum, else 0.
func EarningsGrowthScore(s *model.RatioSnapshot, th Thresholds) float64 {
	return axis{earningsGrowth}.score(s, th)
}
