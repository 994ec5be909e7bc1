package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"Buffetology/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Snapshots map[string]*model.RatioSnapshot
	Errors    map[string]error
	Panics    map[string]bool
	Universe  []string

	mu    sync.Mutex
	calls map[string]int
}

// NewMockFetcher creates an empty MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Snapshots: make(map[string]*model.RatioSnapshot),
		Errors:    make(map[string]error),
		Panics:    make(map[string]bool),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchRatios(_ context.Context, ticker string) (*model.RatioSnapshot, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[ticker]++
	m.mu.Unlock()

	if m.Panics[ticker] {
		panic(fmt.Sprintf("mock panic for %s", ticker))
	}
	if err, ok := m.Errors[ticker]; ok {
		return nil, err
	}
	s, ok := m.Snapshots[ticker]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w", ticker, ErrNoData)
	}
	return s, nil
}

func (m *MockFetcher) FetchUniverse(_ context.Context, limit int) ([]string, error) {
	if len(m.Universe) == 0 {
		return nil, fmt.Errorf("mock universe: %w", ErrNoData)
	}
	out := make([]string, len(m.Universe))
	copy(out, m.Universe)
	return truncate(out, limit), nil
}

// Calls reports how many times FetchRatios was invoked for ticker.
func (m *MockFetcher) Calls(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[ticker]
}

// DemoFetcher returns a MockFetcher seeded with a small deterministic universe
// covering every recommendation band. Used by the -mock CLI flag.
func DemoFetcher() *MockFetcher {
	m := NewMockFetcher()
	add := func(ticker string, de, cr, roe, pm, pe, pb, peg, mcap, rg, eg float64) {
		m.Snapshots[ticker] = &model.RatioSnapshot{
			Ticker:         ticker,
			Source:         "mock",
			FetchedAt:      time.Now().UTC(),
			DebtToEquity:   model.Float(de),
			CurrentRatio:   model.Float(cr),
			ReturnOnEquity: model.Float(roe),
			ProfitMargin:   model.Float(pm),
			TrailingPE:     model.Float(pe),
			PriceToBook:    model.Float(pb),
			PEGRatio:       model.Float(peg),
			MarketCap:      model.Float(mcap),
			RevenueGrowth:  model.Float(rg),
			EarningsGrowth: model.Float(eg),
		}
		m.Universe = append(m.Universe, ticker)
	}
	add("MOAT", 0.3, 2.0, 0.25, 0.20, 15, 2, 1, 5e10, 0.15, 0.20)
	add("STDY", 0.4, 1.8, 0.18, 0.12, 30, 4, 1.5, 2e10, 0.12, 0.05)
	add("MIDL", 0.9, 1.6, 0.16, 0.12, 22, 5, 3, 8e9, 0.05, 0.02)
	add("DEBT", 2.5, 1.6, 0.05, 0.02, 20, 6, 3, 5e9, 0.01, 0.01)
	add("LOSS", 3.0, 0.5, -0.1, -0.05, 80, 9, 5, 2e8, -0.2, -0.4)
	m.Snapshots["THIN"] = &model.RatioSnapshot{Ticker: "THIN", Source: "mock", MarketCap: model.Float(3e9)}
	m.Universe = append(m.Universe, "THIN")
	return m
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
