package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Buffetology/internal/model"
)

// Ticker outcomes.
const (
	OutcomeScored           = "scored"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeError            = "error"
)

// Metrics instruments screening runs. A nil *Metrics records nothing.
type Metrics struct {
	TickersTotal         *prometheus.CounterVec
	BatchDuration        prometheus.Histogram
	RecommendationsTotal *prometheus.CounterVec
}

// New registers the screener collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TickersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_tickers_total",
				Help: "Tickers analyzed, by outcome",
			},
			[]string{"outcome"},
		),
		BatchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "screener_batch_duration_seconds",
				Help:    "Duration of a batch analysis in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		RecommendationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_recommendations_total",
				Help: "Scored tickers, by recommendation",
			},
			[]string{"label"},
		),
	}
}

// ObserveResult counts one per-ticker outcome.
func (m *Metrics) ObserveResult(r model.AnalysisResult) {
	if m == nil {
		return
	}
	switch {
	case r.Recommendation == model.Failed:
		m.TickersTotal.WithLabelValues(OutcomeError).Inc()
	case r.Recommendation == model.InsufficientData:
		m.TickersTotal.WithLabelValues(OutcomeInsufficientData).Inc()
	default:
		m.TickersTotal.WithLabelValues(OutcomeScored).Inc()
		m.RecommendationsTotal.WithLabelValues(string(r.Recommendation)).Inc()
	}
}

// ObserveBatch records how long a batch took.
func (m *Metrics) ObserveBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(d.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
