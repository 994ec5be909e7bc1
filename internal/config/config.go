package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"Buffetology/internal/strategy"
)

// ErrMissingThreshold is returned when the analysis section lacks a scoring threshold.
var ErrMissingThreshold = errors.New("missing analysis threshold")

// Providers supported by data_provider.default.
var Providers = []string{"yahoo", "fmp", "ft"}

// Config holds all application configuration.
type Config struct {
	DataProvider struct {
		Default string `yaml:"default"`
		Yahoo   struct {
			IndexURL string `yaml:"index_url"`
		} `yaml:"yahoo"`
		FMP struct {
			APIKey    string `yaml:"api_key"`
			BaseURL   string `yaml:"base_url"`
			RateLimit int    `yaml:"rate_limit"`
		} `yaml:"fmp"`
		FT struct {
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			BaseURL  string `yaml:"base_url"`
		} `yaml:"ft"`
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"data_provider"`
	Analysis Analysis `yaml:"analysis"`
	Cache    struct {
		Enabled    bool   `yaml:"enabled"`
		Backend    string `yaml:"backend"`
		Directory  string `yaml:"directory"`
		ExpiryDays int    `yaml:"expiry_days"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Output struct {
		Format string `yaml:"format"`
		Path   string `yaml:"path"`
		TopN   int    `yaml:"top_n"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ScreenCron string `yaml:"screen_cron"`
	} `yaml:"schedule"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Analysis holds the screening universe and scoring thresholds.
// Thresholds are pointers so an absent key can be told apart from a zero value.
type Analysis struct {
	SP500TopN     int      `yaml:"sp500_top_n"`
	CustomTickers []string `yaml:"custom_tickers"`
	Workers       int      `yaml:"workers"`

	DebtToEquityThreshold *float64 `yaml:"debt_to_equity_threshold"`
	MinCurrentRatio       *float64 `yaml:"min_current_ratio"`
	MinROE                *float64 `yaml:"min_roe"`
	MinNetMargin          *float64 `yaml:"min_net_margin"`
	MinProfitMargin       *float64 `yaml:"min_profit_margin"`
	MinMarketCap          *float64 `yaml:"min_market_cap"`
	MaxPERatio            *float64 `yaml:"max_pe_ratio"`
	MaxPBRatio            *float64 `yaml:"max_pb_ratio"`
	MaxPEGRatio           *float64 `yaml:"max_peg_ratio"`
	MinRevenueGrowth      *float64 `yaml:"min_revenue_growth"`
	MinEarningsGrowth     *float64 `yaml:"min_earnings_growth"`
}

// Load reads config from a YAML file, then applies environment variable overrides and
// defaults for everything except the scoring thresholds.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a complete configuration using the default scoring thresholds.
func Default() *Config {
	cfg := &Config{}
	cfg.Analysis.SetThresholds(strategy.DefaultThresholds())
	cfg.Analysis.SP500TopN = 50
	cfg.Cache.Enabled = true
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataProvider.Default = v
	}
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		c.DataProvider.FMP.APIKey = v
	}
	if v := os.Getenv("FT_USERNAME"); v != "" {
		c.DataProvider.FT.Username = v
	}
	if v := os.Getenv("FT_PASSWORD"); v != "" {
		c.DataProvider.FT.Password = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("CRON_SCREEN"); v != "" {
		c.Schedule.ScreenCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SP500_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.SP500TopN = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataProvider.Default == "" {
		c.DataProvider.Default = "yahoo"
	}
	if c.DataProvider.TimeoutSeconds == 0 {
		c.DataProvider.TimeoutSeconds = 30
	}
	if c.DataProvider.FMP.RateLimit == 0 {
		c.DataProvider.FMP.RateLimit = 5
	}
	if c.Analysis.Workers == 0 {
		c.Analysis.Workers = 4
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	if c.Cache.Directory == "" {
		c.Cache.Directory = "cache"
	}
	if c.Cache.ExpiryDays == 0 {
		c.Cache.ExpiryDays = 7
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Output.Format == "" {
		c.Output.Format = "table"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks provider credentials and the enumerated settings.
func (c *Config) Validate() error {
	switch c.DataProvider.Default {
	case "yahoo":
	case "fmp":
		if c.DataProvider.FMP.APIKey == "" {
			return fmt.Errorf("data_provider.fmp.api_key is required")
		}
	case "ft":
		if c.DataProvider.FT.Username == "" || c.DataProvider.FT.Password == "" {
			return fmt.Errorf("data_provider.ft.username and password are required")
		}
	default:
		return fmt.Errorf("data_provider.default must be one of %s, got %q",
			strings.Join(Providers, ", "), c.DataProvider.Default)
	}
	if c.Analysis.SP500TopN < 0 {
		return fmt.Errorf("analysis.sp500_top_n must not be negative")
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be at least 1")
	}
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "file", "redis", "badger":
		default:
			return fmt.Errorf("cache.backend must be file, redis or badger, got %q", c.Cache.Backend)
		}
		if c.Cache.ExpiryDays <= 0 {
			return fmt.Errorf("cache.expiry_days must be positive")
		}
	}
	switch c.Output.Format {
	case "table", "csv", "json":
	default:
		return fmt.Errorf("output.format must be table, csv or json, got %q", c.Output.Format)
	}
	return nil
}

// Thresholds builds the scoring thresholds. Every key must be present; the values
// are then checked by strategy.Thresholds.Validate.
func (c *Config) Thresholds() (strategy.Thresholds, error) {
	a := c.Analysis
	var th strategy.Thresholds
	fields := []struct {
		key string
		src *float64
		dst *float64
	}{
		{"debt_to_equity_threshold", a.DebtToEquityThreshold, &th.LeverageCeiling},
		{"min_current_ratio", a.MinCurrentRatio, &th.MinLiquidity},
		{"min_roe", a.MinROE, &th.MinROE},
		{"min_net_margin", a.MinNetMargin, &th.MinNetMargin},
		{"min_profit_margin", a.MinProfitMargin, &th.MinProfitMargin},
		{"min_market_cap", a.MinMarketCap, &th.MinMarketCap},
		{"max_pe_ratio", a.MaxPERatio, &th.MaxPE},
		{"max_pb_ratio", a.MaxPBRatio, &th.MaxPB},
		{"max_peg_ratio", a.MaxPEGRatio, &th.MaxPEG},
		{"min_revenue_growth", a.MinRevenueGrowth, &th.MinRevenueGrowth},
		{"min_earnings_growth", a.MinEarningsGrowth, &th.MinEarningsGrowth},
	}
	var missing []string
	for _, f := range fields {
		if f.src == nil {
			missing = append(missing, f.key)
			continue
		}
		*f.dst = *f.src
	}
	if len(missing) > 0 {
		return strategy.Thresholds{}, fmt.Errorf("%w: analysis.%s", ErrMissingThreshold, strings.Join(missing, ", analysis."))
	}
	if err := th.Validate(); err != nil {
		return strategy.Thresholds{}, fmt.Errorf("analysis: %w", err)
	}
	return th, nil
}

// SetThresholds stores th into the analysis section.
func (a *Analysis) SetThresholds(th strategy.Thresholds) {
	a.DebtToEquityThreshold = &th.LeverageCeiling
	a.MinCurrentRatio = &th.MinLiquidity
	a.MinROE = &th.MinROE
	a.MinNetMargin = &th.MinNetMargin
	a.MinProfitMargin = &th.MinProfitMargin
	a.MinMarketCap = &th.MinMarketCap
	a.MaxPERatio = &th.MaxPE
	a.MaxPBRatio = &th.MaxPB
	a.MaxPEGRatio = &th.MaxPEG
	a.MinRevenueGrowth = &th.MinRevenueGrowth
	a.MinEarningsGrowth = &th.MinEarningsGrowth
}
