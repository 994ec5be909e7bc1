// Package screener runs the scoring pipeline over a universe of tickers.
package screener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"Buffetology/internal/collector"
	"Buffetology/internal/metrics"
	"Buffetology/internal/model"
	"Buffetology/internal/strategy"
)

// DefaultTickers is screened when neither custom tickers nor index constituents are available.
var DefaultTickers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META"}

// DefaultWorkers bounds concurrent fetches when no option overrides it.
const DefaultWorkers = 4

// Screener fetches ratios and scores tickers against fixed thresholds.
type Screener struct {
	fetcher    collector.Fetcher
	thresholds strategy.Thresholds
	workers    int
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Screener.
type Option func(*Screener)

// WithWorkers sets the number of tickers processed concurrently.
func WithWorkers(n int) Option {
	return func(s *Screener) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Screener) {
		s.log = log.With().Str("component", "screener").Logger()
	}
}

// WithMetrics records per-ticker outcomes and batch durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Screener) {
		s.metrics = m
	}
}

// New validates the thresholds once; they are read-only afterwards.
func New(fetcher collector.Fetcher, th strategy.Thresholds, opts ...Option) (*Screener, error) {
	if fetcher == nil {
		return nil, errors.New("screener: fetcher is required")
	}
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("screener: %w", err)
	}
	s := &Screener{
		fetcher:    fetcher,
		thresholds: th,
		workers:    DefaultWorkers,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Thresholds returns the thresholds in use.
func (s *Screener) Thresholds() strategy.Thresholds { return s.thresholds }

// Provider names the underlying data provider.
func (s *Screener) Provider() string { return s.fetcher.Name() }

// AnalyzeTicker fetches and scores one ticker. An empty provider response or an
// incomplete snapshot becomes the insufficient-data result; any other fault becomes the error result.
func (s *Screener) AnalyzeTicker(ctx context.Context, ticker string) (result model.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn().Str("ticker", ticker).Interface("panic", r).Msg("analysis panicked")
			result = model.ErrorResult(ticker, fmt.Errorf("panic: %v", r))
		}
		s.metrics.ObserveResult(result)
	}()

	snapshot, err := s.fetcher.FetchRatios(ctx, ticker)
	if errors.Is(err, collector.ErrNoData) {
		s.log.Debug().Str("ticker", ticker).Err(err).Msg("provider returned no data")
		return model.InsufficientDataResult(ticker)
	}
	if err != nil {
		s.log.Warn().Str("ticker", ticker).Err(err).Msg("fetch failed")
		return model.ErrorResult(ticker, err)
	}
	if !snapshot.Complete() {
		s.log.Debug().Str("ticker", ticker).Strs("missing", snapshot.Missing()).Msg("insufficient data")
		return model.InsufficientDataResult(ticker)
	}
	return strategy.Evaluate(ticker, snapshot, s.thresholds)
}

// AnalyzeTickers returns exactly one result per input ticker, ranked by overall score
// descending. Ties keep input order.
func (s *Screener) AnalyzeTickers(ctx context.Context, tickers []string) []model.AnalysisResult {
	start := time.Now()
	results := make([]model.AnalysisResult, len(tickers))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, t := range tickers {
		g.Go(func() error {
			results[i] = s.AnalyzeTicker(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	Rank(results)
	elapsed := time.Since(start)
	s.metrics.ObserveBatch(elapsed)
	s.log.Info().
		Int("tickers", len(tickers)).
		Int("scored", countScored(results)).
		Dur("elapsed", elapsed).
		Msg("batch analyzed")
	return results
}

// AnalyzeIndex screens the first limit index constituents.
func (s *Screener) AnalyzeIndex(ctx context.Context, limit int) ([]model.AnalysisResult, error) {
	tickers, err := s.fetcher.FetchUniverse(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	return s.AnalyzeTickers(ctx, tickers), nil
}

// ResolveUniverse merges custom tickers with the first topN index constituents,
// uppercased and de-duplicated in order. With neither available it falls back to DefaultTickers.
func (s *Screener) ResolveUniverse(ctx context.Context, custom []string, topN int) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(list []string) {
		for _, t := range list {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}

	add(custom)
	if topN > 0 {
		index, err := s.fetcher.FetchUniverse(ctx, topN)
		if err != nil {
			s.log.Warn().Err(err).Int("top_n", topN).Msg("index universe unavailable")
		}
		add(index)
	}
	if len(out) == 0 {
		s.log.Warn().Strs("tickers", DefaultTickers).Msg("no tickers configured, using defaults")
		add(DefaultTickers)
	}
	return out
}

// Rank sorts results by overall score descending, keeping input order on ties.
func Rank(results []model.AnalysisResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OverallScore > results[j].OverallScore
	})
}

func countScored(results []model.AnalysisResult) int {
	n := 0
	for _, r := range results {
		if r.Recommendation.Scored() {
			n++
		}
	}
	return n
}
