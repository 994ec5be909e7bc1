package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"Buffetology/internal/cache"
	"Buffetology/internal/model"
)

const universeKey = "sp500_tickers"

// CachedFetcher serves ratios, statements and the index universe from a cache.Store before
// falling back to the wrapped provider. Cache failures are logged and never surface.
type CachedFetcher struct {
	next  Fetcher
	store cache.Store
	log   zerolog.Logger
}

// NewCachedFetcher wraps next. A nil store returns next unchanged.
func NewCachedFetcher(next Fetcher, store cache.Store, log zerolog.Logger) Fetcher {
	if store == nil {
		return next
	}
	return &CachedFetcher{
		next:  next,
		store: store,
		log:   log.With().Str("component", "cache").Logger(),
	}
}

func (c *CachedFetcher) Name() string { return c.next.Name() }

func (c *CachedFetcher) FetchRatios(ctx context.Context, ticker string) (*model.RatioSnapshot, error) {
	key := normalizeTicker(ticker) + "_metrics"
	var s model.RatioSnapshot
	if c.load(ctx, key, &s) {
		return &s, nil
	}
	fresh, err := c.next.FetchRatios(ctx, ticker)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, fresh)
	return fresh, nil
}

// FetchUniverse caches the full list and truncates on the way out.
func (c *CachedFetcher) FetchUniverse(ctx context.Context, limit int) ([]string, error) {
	var tickers []string
	if c.load(ctx, universeKey, &tickers) && len(tickers) > 0 {
		return truncate(tickers, limit), nil
	}
	tickers, err := c.next.FetchUniverse(ctx, 0)
	if err != nil {
		return nil, err
	}
	c.save(ctx, universeKey, tickers)
	return truncate(tickers, limit), nil
}

// FetchStatements is available when the wrapped provider supports statements.
func (c *CachedFetcher) FetchStatements(ctx context.Context, ticker string) (*model.FinancialStatements, error) {
	sf, ok := c.next.(StatementFetcher)
	if !ok {
		return nil, fmt.Errorf("%s: financial statements not supported", c.next.Name())
	}
	key := normalizeTicker(ticker) + "_financials"
	var fs model.FinancialStatements
	if c.load(ctx, key, &fs) {
		return &fs, nil
	}
	fresh, err := sf.FetchStatements(ctx, ticker)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, fresh)
	return fresh, nil
}

func (c *CachedFetcher) load(ctx context.Context, key string, dst any) bool {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return false
	}
	c.log.Debug().Str("key", key).Msg("cache hit")
	return true
}

func (c *CachedFetcher) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
