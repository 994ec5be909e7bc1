package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"Buffetology/internal/model"
)

// DefaultFTBaseURL is the Financial Times markets data site.
const DefaultFTBaseURL = "https://markets.ft.com"

const ftIndexSymbol = "INX:IOM"

// ftValueKind says how a tearsheet cell is converted.
type ftValueKind int

const (
	ftPlain ftValueKind = iota
	ftPercent
	ftMoney
)

// moneySuffixes is checked in order; two-letter forms come first.
var moneySuffixes = []struct {
	suffix string
	mult   float64
}{
	{"TN", 1e12}, {"BN", 1e9}, {"MN", 1e6},
	{"T", 1e12}, {"B", 1e9}, {"M", 1e6}, {"K", 1e3},
}

// ftLabels maps tearsheet row labels, lowercased, to snapshot ratios.
var ftLabels = map[string]struct {
	ratio string
	kind  ftValueKind
}{
	"total debt/total equity": {model.RatioDebtToEquity, ftPlain},
	"debt/equity":             {model.RatioDebtToEquity, ftPlain},
	"current ratio":           {model.RatioCurrentRatio, ftPlain},
	"return on equity":        {model.RatioReturnOnEquity, ftPercent},
	"net profit margin":       {model.RatioProfitMargin, ftPercent},
	"p/e (ttm)":               {model.RatioTrailingPE, ftPlain},
	"price/book":              {model.RatioPriceToBook, ftPlain},
	"peg ratio":               {model.RatioPEG, ftPlain},
	"market cap":              {model.RatioMarketCap, ftMoney},
	"revenue growth rate":     {model.RatioRevenueGrowth, ftPercent},
	"eps growth rate":         {model.RatioEarningsGrowth, ftPercent},
	"earnings growth":         {model.RatioEarningsGrowth, ftPercent},
}

// FTFetcher implements Fetcher by scraping Financial Times tearsheets with an authenticated session.
type FTFetcher struct {
	BaseURL  string
	Username string
	Password string

	client   *http.Client
	log      zerolog.Logger
	mu       sync.Mutex
	loggedIn bool
}

// NewFTFetcher creates a new Financial Times fetcher with optional proxy support.
func NewFTFetcher(baseURL, username, password, proxyURL string, timeout time.Duration, log zerolog.Logger) *FTFetcher {
	if baseURL == "" {
		baseURL = DefaultFTBaseURL
	}
	client := newHTTPClient(proxyURL, timeout)
	jar, _ := cookiejar.New(nil)
	client.Jar = jar
	return &FTFetcher{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Username: username,
		Password: password,
		client:   client,
		log:      log.With().Str("component", "ft").Logger(),
	}
}

func (f *FTFetcher) Name() string { return "ft" }

// login posts the credentials once; the session cookie lives in the client jar.
func (f *FTFetcher) login(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loggedIn {
		return nil
	}
	form := url.Values{"username": {f.Username}, "password": {f.Password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("ft login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ft login: status %d", resp.StatusCode)
	}
	f.loggedIn = true
	f.log.Debug().Msg("session established")
	return nil
}

func (f *FTFetcher) document(ctx context.Context, path string, symbol string) (*goquery.Document, error) {
	if err := f.login(ctx); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s%s?s=%s", f.BaseURL, path, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ft %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ft %s: status %d", path, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ft parse %s: %w", path, err)
	}
	return doc, nil
}

func (f *FTFetcher) FetchRatios(ctx context.Context, ticker string) (*model.RatioSnapshot, error) {
	ticker = normalizeTicker(ticker)
	doc, err := f.document(ctx, "/data/equities/tearsheet/summary", ticker)
	if err != nil {
		return nil, err
	}
	s := parseTearsheet(doc)
	if len(s.Missing()) == len(model.RequiredRatios) {
		return nil, fmt.Errorf("ft %s: %w", ticker, ErrNoData)
	}
	s.Ticker = ticker
	return s, nil
}

func (f *FTFetcher) FetchUniverse(ctx context.Context, limit int) ([]string, error) {
	doc, err := f.document(ctx, "/data/indices/tearsheet/constituents", ftIndexSymbol)
	if err != nil {
		return nil, err
	}
	var tickers []string
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		// Symbols are shown as "AAPL:NSQ".
		sym := strings.TrimSpace(row.Find("td").First().Find("span").Last().Text())
		if sym == "" {
			sym = strings.TrimSpace(row.Find("td").First().Text())
		}
		if i := strings.Index(sym, ":"); i > 0 {
			sym = sym[:i]
		}
		if sym != "" {
			tickers = append(tickers, yahooSymbol(sym))
		}
	})
	if len(tickers) == 0 {
		return nil, fmt.Errorf("ft universe: %w", ErrNoData)
	}
	return truncate(tickers, limit), nil
}

// parseTearsheet walks every label/value row of the summary tables.
func parseTearsheet(doc *goquery.Document) *model.RatioSnapshot {
	s := &model.RatioSnapshot{Source: "ft", FetchedAt: time.Now().UTC()}
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(row.Find("th").First().Text()))
		if label == "" {
			label = strings.ToLower(strings.TrimSpace(row.Find("td").First().Text()))
		}
		field, ok := ftLabels[label]
		if !ok {
			return
		}
		v, ok := parseFTValue(row.Find("td").Last().Text(), field.kind)
		if !ok {
			return
		}
		s.SetRatio(field.ratio, v)
	})
	return s
}

// parseFTValue converts a tearsheet cell. "--" and blanks report false.
func parseFTValue(raw string, kind ftValueKind) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	if cleaned == "" || cleaned == "--" || strings.EqualFold(cleaned, "n/a") {
		return 0, false
	}

	switch kind {
	case ftPercent:
		v, err := strconv.ParseFloat(strings.TrimSuffix(cleaned, "%"), 64)
		if err != nil {
			return 0, false
		}
		return v / 100, true
	case ftMoney:
		cleaned = strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(cleaned), "USD"))
		multiplier := 1.0
		for _, sfx := range moneySuffixes {
			if strings.HasSuffix(cleaned, sfx.suffix) {
				multiplier = sfx.mult
				cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, sfx.suffix))
				break
			}
		}
		v, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return v * multiplier, true
	default:
		v, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
}
