package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"Buffetology/internal/model"
)

// ErrNoData is returned when a provider has nothing for a ticker.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching fundamental ratios.
type Fetcher interface {
	FetchRatios(ctx context.Context, ticker string) (*model.RatioSnapshot, error)
	FetchUniverse(ctx context.Context, limit int) ([]string, error)
	Name() string
}

// StatementFetcher is implemented by providers that expose full financial statements.
type StatementFetcher interface {
	FetchStatements(ctx context.Context, ticker string) (*model.FinancialStatements, error)
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func truncate(tickers []string, limit int) []string {
	if limit > 0 && len(tickers) > limit {
		return tickers[:limit]
	}
	return tickers
}
