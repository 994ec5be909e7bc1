package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"Buffetology/internal/model"
)

const (
	// DefaultFMPBaseURL is the Financial Modeling Prep v3 API root.
	DefaultFMPBaseURL = "https://financialmodelingprep.com/api/v3"

	// DefaultFMPRateLimit is requests per second.
	DefaultFMPRateLimit = 5

	statementLimit = 120
)

// FMPFetcher implements Fetcher and StatementFetcher using the Financial Modeling Prep REST API.
type FMPFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// FMPOption configures the FMPFetcher.
type FMPOption func(*FMPFetcher)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) FMPOption {
	return func(f *FMPFetcher) {
		if baseURL != "" {
			f.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FMPOption {
	return func(f *FMPFetcher) {
		f.client = client
	}
}

// WithRateLimit sets a custom rate limit in requests per second.
func WithRateLimit(requestsPerSecond int) FMPOption {
	return func(f *FMPFetcher) {
		if requestsPerSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithLogger sets a logger.
func WithLogger(log zerolog.Logger) FMPOption {
	return func(f *FMPFetcher) {
		f.log = log.With().Str("component", "fmp").Logger()
	}
}

// NewFMPFetcher creates a new FMP fetcher.
func NewFMPFetcher(apiKey string, opts ...FMPOption) *FMPFetcher {
	f := &FMPFetcher{
		baseURL: DefaultFMPBaseURL,
		apiKey:  apiKey,
		client:  newHTTPClient("", 0),
		limiter: rate.NewLimiter(rate.Limit(DefaultFMPRateLimit), DefaultFMPRateLimit),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FMPFetcher) Name() string { return "fmp" }

// APIError represents a non-200 response from the FMP API.
type APIError struct {
	StatusCode int
	Body       string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fmp API error: status %d, endpoint: %s, body: %s", e.StatusCode, e.Endpoint, e.Body)
}

func (f *FMPFetcher) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", f.apiKey)
	endpoint := fmt.Sprintf("%s/%s?%s", f.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	f.log.Debug().Str("path", path).Msg("fmp request")
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fmp %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body), Endpoint: path}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// fmpKeyMetrics is the key-metrics record. Null fields decode to nil.
type fmpKeyMetrics struct {
	MarketCap       *float64 `json:"marketCap"`
	PERatio         *float64 `json:"peRatio"`
	PEGRatio        *float64 `json:"pegRatio"`
	PBRatio         *float64 `json:"pbRatio"`
	DebtToEquity    *float64 `json:"debtToEquity"`
	CurrentRatio    *float64 `json:"currentRatio"`
	ROE             *float64 `json:"roe"`
	NetProfitMargin *float64 `json:"netProfitMargin"`
	RevenueGrowth   *float64 `json:"revenueGrowth"`
	EarningsGrowth  *float64 `json:"earningsGrowth"`
}

func (f *FMPFetcher) FetchRatios(ctx context.Context, ticker string) (*model.RatioSnapshot, error) {
	ticker = normalizeTicker(ticker)
	var records []fmpKeyMetrics
	if err := f.get(ctx, "key-metrics/"+url.PathEscape(ticker), url.Values{"limit": {"1"}}, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("fmp %s: %w", ticker, ErrNoData)
	}
	m := records[0]
	return &model.RatioSnapshot{
		Ticker:         ticker,
		Source:         "fmp",
		FetchedAt:      time.Now().UTC(),
		DebtToEquity:   m.DebtToEquity,
		CurrentRatio:   m.CurrentRatio,
		ReturnOnEquity: m.ROE,
		ProfitMargin:   m.NetProfitMargin,
		TrailingPE:     m.PERatio,
		PriceToBook:    m.PBRatio,
		PEGRatio:       m.PEGRatio,
		MarketCap:      m.MarketCap,
		RevenueGrowth:  m.RevenueGrowth,
		EarningsGrowth: m.EarningsGrowth,
	}, nil
}

func (f *FMPFetcher) FetchUniverse(ctx context.Context, limit int) ([]string, error) {
	var constituents []struct {
		Symbol string `json:"symbol"`
	}
	if err := f.get(ctx, "sp500_constituent", nil, &constituents); err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(constituents))
	for _, c := range constituents {
		if c.Symbol != "" {
			tickers = append(tickers, yahooSymbol(c.Symbol))
		}
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("fmp universe: %w", ErrNoData)
	}
	return truncate(tickers, limit), nil
}

// FetchStatements retrieves income, balance sheet and cash flow statements, newest first.
func (f *FMPFetcher) FetchStatements(ctx context.Context, ticker string) (*model.FinancialStatements, error) {
	ticker = normalizeTicker(ticker)
	out := &model.FinancialStatements{Ticker: ticker}
	targets := []struct {
		path string
		dst  *[]model.StatementPeriod
	}{
		{"income-statement", &out.Income},
		{"balance-sheet-statement", &out.Balance},
		{"cash-flow-statement", &out.CashFlow},
	}
	params := url.Values{"limit": {fmt.Sprint(statementLimit)}}
	for _, t := range targets {
		var rows []map[string]any
		if err := f.get(ctx, t.path+"/"+url.PathEscape(ticker), params, &rows); err != nil {
			return nil, err
		}
		*t.dst = statementPeriods(rows)
	}
	if len(out.Income)+len(out.Balance)+len(out.CashFlow) == 0 {
		return nil, fmt.Errorf("fmp statements %s: %w", ticker, ErrNoData)
	}
	return out, nil
}

// statementPeriods keeps the numeric line items of each row.
func statementPeriods(rows []map[string]any) []model.StatementPeriod {
	periods := make([]model.StatementPeriod, 0, len(rows))
	for _, row := range rows {
		p := model.StatementPeriod{Items: make(map[string]float64)}
		for k, v := range row {
			switch val := v.(type) {
			case float64:
				p.Items[k] = val
			case string:
				if k == "date" {
					p.Date = val
				}
			}
		}
		periods = append(periods, p)
	}
	return periods
}
