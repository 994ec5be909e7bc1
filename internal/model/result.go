package model

// Recommendation is the discrete label attached to an analysis result.
type Recommendation string

const (
	StrongBuy  Recommendation = "Strong Buy"
	Buy        Recommendation = "Buy"
	Hold       Recommendation = "Hold"
	Sell       Recommendation = "Sell"
	StrongSell Recommendation = "Strong Sell"

	// Sentinels for results that were not scored.
	InsufficientData Recommendation = "insufficient data"
	Failed           Recommendation = "error"
)

// Scored reports whether r is one of the five band labels rather than a sentinel.
func (r Recommendation) Scored() bool {
	return r != InsufficientData && r != Failed
}

// AnalysisResult is the output record for one ticker.
type AnalysisResult struct {
	Ticker         string         `json:"ticker"`
	QualityScore   float64        `json:"quality_score"`
	ValueScore     float64        `json:"value_score"`
	GrowthScore    float64        `json:"growth_score"`
	OverallScore   float64        `json:"overall_score"`
	Recommendation Recommendation `json:"recommendation"`
	Err            string         `json:"error,omitempty"`
}

// InsufficientDataResult is returned when a snapshot is missing required ratios.
func InsufficientDataResult(ticker string) AnalysisResult {
	return AnalysisResult{Ticker: ticker, Recommendation: InsufficientData}
}

// ErrorResult is returned when fetching or scoring a ticker failed.
func ErrorResult(ticker string, err error) AnalysisResult {
	r := AnalysisResult{Ticker: ticker, Recommendation: Failed}
	if err != nil {
		r.Err = err.Error()
	}
	return r
}
