package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"Buffetology/internal/model"
)

// yahooInfo is the subset of the Yahoo quote summary used for screening.
type yahooInfo struct {
	DebtToEquity   float64
	CurrentRatio   float64
	ReturnOnEquity float64
	ProfitMargins  float64
	TrailingPE     float64
	PriceToBook    float64
	PegRatio       float64
	MarketCap      float64
	RevenueGrowth  float64
	EarningsGrowth float64
}

// YahooFetcher implements Fetcher using Yahoo Finance via go-yfinance.
type YahooFetcher struct {
	Index *IndexSource

	loadInfo func(symbol string) (*yahooInfo, error)
	log      zerolog.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(index *IndexSource, log zerolog.Logger) *YahooFetcher {
	return &YahooFetcher{
		Index:    index,
		loadInfo: loadYahooInfo,
		log:      log.With().Str("component", "yahoo").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func loadYahooInfo(symbol string) (*yahooInfo, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("create ticker: %w", err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return nil, fmt.Errorf("get info: %w", err)
	}
	return &yahooInfo{
		DebtToEquity:   info.DebtToEquity,
		CurrentRatio:   info.CurrentRatio,
		ReturnOnEquity: info.ReturnOnEquity,
		ProfitMargins:  info.ProfitMargins,
		TrailingPE:     info.TrailingPE,
		PriceToBook:    info.PriceToBook,
		PegRatio:       info.PegRatio,
		MarketCap:      float64(info.MarketCap),
		RevenueGrowth:  info.RevenueGrowth,
		EarningsGrowth: info.EarningsGrowth,
	}, nil
}

func (f *YahooFetcher) FetchRatios(ctx context.Context, symbol string) (*model.RatioSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol = yahooSymbol(symbol)
	info, err := f.loadInfo(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	s := snapshotFromInfo(symbol, info)
	if len(s.Missing()) == len(model.RequiredRatios) {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	f.log.Debug().Str("ticker", symbol).Strs("missing", s.Missing()).Msg("ratios fetched")
	return s, nil
}

func (f *YahooFetcher) FetchUniverse(ctx context.Context, limit int) ([]string, error) {
	if f.Index == nil {
		return nil, fmt.Errorf("yahoo universe: no index source")
	}
	return f.Index.Constituents(ctx, limit)
}

// snapshotFromInfo maps quote fields into a snapshot. go-yfinance reports absent
// fields as zero, so zero is mapped to a missing ratio.
func snapshotFromInfo(symbol string, info *yahooInfo) *model.RatioSnapshot {
	s := &model.RatioSnapshot{
		Ticker:    symbol,
		Source:    "yahoo",
		FetchedAt: time.Now().UTC(),
	}
	nonZero := func(v float64) *float64 {
		if v == 0 {
			return nil
		}
		return model.Float(v)
	}
	// Yahoo quotes debt/equity as a percentage (45.0 means 0.45).
	s.DebtToEquity = nonZero(info.DebtToEquity / 100)
	s.CurrentRatio = nonZero(info.CurrentRatio)
	s.ReturnOnEquity = nonZero(info.ReturnOnEquity)
	s.ProfitMargin = nonZero(info.ProfitMargins)
	s.TrailingPE = nonZero(info.TrailingPE)
	s.PriceToBook = nonZero(info.PriceToBook)
	s.PEGRatio = nonZero(info.PegRatio)
	s.MarketCap = nonZero(info.MarketCap)
	s.RevenueGrowth = nonZero(info.RevenueGrowth)
	s.EarningsGrowth = nonZero(info.EarningsGrowth)
	return s
}

// yahooSymbol converts class-share tickers to Yahoo notation (BRK.B -> BRK-B).
func yahooSymbol(symbol string) string {
	return strings.ReplaceAll(normalizeTicker(symbol), ".", "-")
}
