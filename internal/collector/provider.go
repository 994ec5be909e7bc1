package collector

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"Buffetology/internal/config"
)

// New selects the data provider named by data_provider.default.
func New(cfg *config.Config, log zerolog.Logger) (Fetcher, error) {
	dp := cfg.DataProvider
	timeout := time.Duration(dp.TimeoutSeconds) * time.Second
	client := newHTTPClient(cfg.Proxy, timeout)

	switch dp.Default {
	case "yahoo":
		index := NewIndexSource(dp.Yahoo.IndexURL, client, log)
		return NewYahooFetcher(index, log), nil
	case "fmp":
		if dp.FMP.APIKey == "" {
			return nil, fmt.Errorf("fmp: api key is required")
		}
		return NewFMPFetcher(dp.FMP.APIKey,
			WithBaseURL(dp.FMP.BaseURL),
			WithHTTPClient(client),
			WithRateLimit(dp.FMP.RateLimit),
			WithLogger(log),
		), nil
	case "ft":
		if dp.FT.Username == "" || dp.FT.Password == "" {
			return nil, fmt.Errorf("ft: username and password are required")
		}
		return NewFTFetcher(dp.FT.BaseURL, dp.FT.Username, dp.FT.Password, cfg.Proxy, timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", dp.Default)
	}
}
