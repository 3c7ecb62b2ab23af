package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"SignalSentinel/internal/guardrail"
	"SignalSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Tickers    []string `yaml:"tickers"`
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Days     int    `yaml:"days"`
		Interval string `yaml:"interval"`
	} `yaml:"data_source"`
	RSI struct {
		Mode         strategy.Mode `yaml:"mode"`
		Period       int           `yaml:"period"`
		Centerline   float64       `yaml:"centerline"`
		Oversold     float64       `yaml:"oversold"`
		Overbought   float64       `yaml:"overbought"`
		RequireCross bool          `yaml:"require_cross"`
	} `yaml:"rsi"`
	Trend struct {
		Type       strategy.TrendKind `yaml:"type"`
		MACDFast   int                `yaml:"macd_fast"`
		MACDSlow   int                `yaml:"macd_slow"`
		MACDSignal int                `yaml:"macd_signal"`
		SMAWindow  int                `yaml:"sma_window"`
	} `yaml:"trend"`
	Guardrails struct {
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
		MaxPositionsPerDay  int     `yaml:"max_positions_per_day"`
	} `yaml:"guardrails"`
	Scan struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"scan"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Stream   string `yaml:"stream"`
		MaxLen   int64  `yaml:"max_len"`
	} `yaml:"redis"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	cfg := &Config{
		Tickers: []string{"ES=F", "NQ=F", "GC=F", "CL=F", "EURUSD=X"},
	}
	cfg.DataSource.Provider = "yahoo"
	cfg.DataSource.Days = 200
	cfg.DataSource.Interval = "1d"

	sc := strategy.DefaultConfig()
	cfg.RSI.Mode = sc.Mode
	cfg.RSI.Period = sc.Period
	cfg.RSI.Centerline = sc.Centerline
	cfg.RSI.Oversold = sc.Oversold
	cfg.RSI.Overbought = sc.Overbought
	cfg.RSI.RequireCross = sc.RequireCross
	cfg.Trend.Type = strategy.TrendMACD
	cfg.Trend.MACDFast = sc.Trend.MACDFast
	cfg.Trend.MACDSlow = sc.Trend.MACDSlow
	cfg.Trend.MACDSignal = sc.Trend.MACDSignal
	cfg.Trend.SMAWindow = sc.Trend.SMAWindow

	cfg.Guardrails.ConfidenceThreshold = guardrail.WorkflowConfidenceThreshold
	cfg.Guardrails.MaxPositionsPerDay = guardrail.DefaultMaxPositionsPerDay

	cfg.Scan.Concurrency = 4
	cfg.Schedule.DailyCron = "0 30 22 * * 1-5"
	cfg.Database.SQLitePath = "data/signal_sentinel.db"
	cfg.Export.Dir = "data/export"
	cfg.Redis.Stream = "signals"
	cfg.Redis.MaxLen = 10000
	cfg.Log.Level = "info"
	return cfg
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &cfg.Telegram.ChatID,
		"DATA_BASE_URL":      &cfg.DataSource.BaseURL,
		"DATA_API_KEY":       &cfg.DataSource.APIKey,
		"HTTPS_PROXY":        &cfg.Proxy,
		"CRON_DAILY":         &cfg.Schedule.DailyCron,
		"SQLITE_PATH":        &cfg.Database.SQLitePath,
		"EXPORT_DIR":         &cfg.Export.Dir,
		"REDIS_ADDR":         &cfg.Redis.Addr,
		"REDIS_PASSWORD":     &cfg.Redis.Password,
		"METRICS_ADDR":       &cfg.Metrics.Addr,
		"LOG_LEVEL":          &cfg.Log.Level,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("TICKERS"); v != "" {
		var tickers []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, t)
			}
		}
		cfg.Tickers = tickers
	}
	if v := os.Getenv("SCAN_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Concurrency = n
		}
	}
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return fmt.Errorf("tickers must not be empty")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.Days <= 0 {
		return fmt.Errorf("data_source.days must be positive")
	}
	if c.RSI.Period <= 0 {
		return fmt.Errorf("rsi.period must be positive")
	}
	if c.RSI.Oversold >= c.RSI.Overbought {
		return fmt.Errorf("rsi.oversold must be below rsi.overbought")
	}
	if c.RSI.Centerline <= 0 || c.RSI.Centerline >= 100 {
		return fmt.Errorf("rsi.centerline must be inside (0, 100)")
	}
	if c.Trend.MACDFast <= 0 || c.Trend.MACDSlow <= 0 || c.Trend.MACDSignal <= 0 {
		return fmt.Errorf("trend.macd spans must be positive")
	}
	if c.Trend.MACDFast >= c.Trend.MACDSlow {
		return fmt.Errorf("trend.macd_fast must be below trend.macd_slow")
	}
	if c.Trend.SMAWindow <= 0 {
		return fmt.Errorf("trend.sma_window must be positive")
	}
	if t := c.Guardrails.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("guardrails.confidence_threshold must be in [0, 1]")
	}
	if c.Guardrails.MaxPositionsPerDay < 0 {
		return fmt.Errorf("guardrails.max_positions_per_day must not be negative")
	}
	if c.Scan.Concurrency <= 0 {
		return fmt.Errorf("scan.concurrency must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// StrategyConfig returns the signal generator parameters.
func (c *Config) StrategyConfig() strategy.Config {
	return strategy.Config{
		Mode:         c.RSI.Mode,
		Period:       c.RSI.Period,
		Centerline:   c.RSI.Centerline,
		Oversold:     c.RSI.Oversold,
		Overbought:   c.RSI.Overbought,
		RequireCross: c.RSI.RequireCross,
		Trend: strategy.TrendConfig{
			Kind:       c.Trend.Type,
			MACDFast:   c.Trend.MACDFast,
			MACDSlow:   c.Trend.MACDSlow,
			MACDSignal: c.Trend.MACDSignal,
			SMAWindow:  c.Trend.SMAWindow,
		},
	}
}

// GuardrailConfig returns the guardrail limits.
func (c *Config) GuardrailConfig() guardrail.Config {
	return guardrail.Config{
		ConfidenceThreshold: c.Guardrails.ConfidenceThreshold,
		MaxPositionsPerDay:  c.Guardrails.MaxPositionsPerDay,
	}
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
