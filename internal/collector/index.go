package collector

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// DefaultIndexURL lists the S&P 500 constituents ordered by the page's table.
const DefaultIndexURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// FallbackSP500 is used when the constituents page yields nothing.
var FallbackSP500 = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "META", "BRK-B", "JNJ", "V", "PG", "JPM",
	"MA", "HD", "NVDA", "BAC", "PFE", "DIS", "KO", "NFLX", "PEP", "MRK",
	"ABBV", "TMO", "CSCO", "WMT", "MCD", "ABT", "CVX", "VZ", "ADBE", "CRM",
	"CMCSA", "NKE", "ACN", "T", "UNH", "PYPL", "INTC", "IBM", "ORCL", "QCOM",
	"INTU", "AMGN", "HON", "TXN", "AVGO", "LOW", "SBUX", "GS", "BA", "CAT",
}

// IndexSource scrapes S&P 500 constituents from a public HTML table.
type IndexSource struct {
	URL    string
	Client *http.Client
	log    zerolog.Logger
}

// NewIndexSource creates an IndexSource. An empty url selects DefaultIndexURL.
func NewIndexSource(url string, client *http.Client, log zerolog.Logger) *IndexSource {
	if url == "" {
		url = DefaultIndexURL
	}
	if client == nil {
		client = newHTTPClient("", 0)
	}
	return &IndexSource{
		URL:    url,
		Client: client,
		log:    log.With().Str("component", "index").Logger(),
	}
}

// Constituents returns up to limit tickers in page order. A limit of zero or less returns all.
// Scrape failures fall back to FallbackSP500.
func (s *IndexSource) Constituents(ctx context.Context, limit int) ([]string, error) {
	tickers, err := s.scrape(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("constituents scrape failed, using fallback list")
	}
	if len(tickers) == 0 {
		tickers = append([]string(nil), FallbackSP500...)
	}
	return truncate(tickers, limit), nil
}

func (s *IndexSource) scrape(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch constituents: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse constituents: %w", err)
	}
	return parseConstituents(doc), nil
}

// parseConstituents reads the first column of table#constituents.
func parseConstituents(doc *goquery.Document) []string {
	var tickers []string
	seen := make(map[string]bool)
	doc.Find("table#constituents tbody tr").Each(func(_ int, row *goquery.Selection) {
		sym := yahooSymbol(row.Find("td").First().Text())
		if sym == "" || seen[sym] {
			return
		}
		seen[sym] = true
		tickers = append(tickers, sym)
	})
	return tickers
}
