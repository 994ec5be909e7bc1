package strategy

import "Buffetology/internal/model"

// Weights of each axis in the overall score. They sum to 1.0.
const (
	QualityWeight = 0.4
	ValueWeight   = 0.3
	GrowthWeight  = 0.3
)

// Bands maps overall scores to recommendations, evaluated top-down; first match wins.
var Bands = []struct {
	MinScore float64
	Label    model.Recommendation
}{
	{80, model.StrongBuy},
	{60, model.Buy},
	{40, model.Hold},
	{30, model.Sell},
}

// DefaultBand is the label for overall scores below every band.
const DefaultBand = model.StrongSell

// MapRecommendation maps an overall score to its recommendation band.
func MapRecommendation(overall float64) model.Recommendation {
	for _, b := range Bands {
		if overall >= b.MinScore {
			return b.Label
		}
	}
	return DefaultBand
}

// Overall combines the three axis scores with the fixed axis weights.
func Overall(quality, value, growth float64) float64 {
	return quality*QualityWeight + value*ValueWeight + growth*GrowthWeight
}

// Evaluate scores one snapshot. An incomplete snapshot short-circuits to the
// insufficient-data result without running any scorer.
func Evaluate(ticker string, s *model.RatioSnapshot, th Thresholds) model.AnalysisResult {
	if !s.Complete() {
		return model.InsufficientDataResult(ticker)
	}

	quality := QualityScore(s, th)
	value := ValueScore(s, th)
	growth := GrowthScore(s, th)
	overall := Overall(quality, value, growth)

	return model.AnalysisResult{
		Ticker:         ticker,
		QualityScore:   quality,
		ValueScore:     value,
		GrowthScore:    growth,
		OverallScore:   overall,
		Recommendation: MapRecommendation(overall),
	}
}
