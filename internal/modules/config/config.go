package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"spot_bot/internal/helper"
	"spot_bot/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	apiKeyENV         = "GATE_API_KEY"
	apiSecretENV      = "GATE_API_SECRET"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"

	defaultConfigFile = "values_local.yaml"
)

const (
	LedgerPostgres = "postgres"
	LedgerMemory   = "memory"

	DedupMemory = "memory"
	DedupRedis  = "redis"
)

// Config mirrors configs/*.yaml. The flat top-level keys are the legacy
// layout, so existing files load unchanged.
type Config struct {
	APIKey         string  `yaml:"api_key"`
	APISecret      string  `yaml:"api_secret"`
	CheckInterval  int     `yaml:"check_interval"` // seconds
	MinUSDTBalance float64 `yaml:"min_usdt_balance"`
	MinTradeUSDT   float64 `yaml:"min_trade_usdt"`
	QuoteCurrency  string  `yaml:"quote_currency"`
	EnableFollower bool    `yaml:"enable_follower"`

	Symbols []Symbol `yaml:"symbols"`

	Exchange struct {
		BaseURL        string        `yaml:"base_url"`
		WSURL          string        `yaml:"ws_url"`
		WSEnabled      bool          `yaml:"ws_enabled"`
		PriceMaxAge    time.Duration `yaml:"price_max_age"`
		Timeout        time.Duration `yaml:"timeout"`
		RateLimitRPS   float64       `yaml:"rate_limit_rps"`
		RateLimitBurst int           `yaml:"rate_limit_burst"`
		SettleDelay    time.Duration `yaml:"settle_delay"`
	} `yaml:"exchange"`

	Follower struct {
		SignalFile   string        `yaml:"signal_file"`
		EnableFile   string        `yaml:"enable_file"`
		TradeAmount  float64       `yaml:"trade_amount"`
		PollInterval time.Duration `yaml:"poll_interval"`
		Dedup        string        `yaml:"dedup"`
		RedisAddr    string        `yaml:"redis_addr"`
		RedisKey     string        `yaml:"redis_key"`
	} `yaml:"follower"`

	DB     string `yaml:"db_dsn"`
	Ledger struct {
		Driver string `yaml:"driver"`
	} `yaml:"ledger"`

	Log struct {
		File    string `yaml:"file"`
		Console bool   `yaml:"console"`
		Debug   bool   `yaml:"debug"`
	} `yaml:"log"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Service string `yaml:"service"`
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
	} `yaml:"tracing"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`
}

// Symbol is one entry of the symbols list. Percent fields are written as
// percentages (10 means 10%).
type Symbol struct {
	Symbol   string `yaml:"symbol"`
	Strategy string `yaml:"strategy"`

	TradePercent float64 `yaml:"trade_percent"`
	TradeAmount  float64 `yaml:"trade_amount"`
	BuyAmount    float64 `yaml:"buy_amount"` // grid configs use this name

	BuyThreshold      float64  `yaml:"buy_threshold"`
	SellThreshold     float64  `yaml:"sell_threshold"`
	ATRPeriod         int      `yaml:"atr_period"`
	ATRMultiplier     float64  `yaml:"atr_multiplier"`
	MAPeriod          int      `yaml:"ma_period"`
	MinExpectedProfit *float64 `yaml:"min_expected_profit"`
	ProfitMargin      float64  `yaml:"profit_margin"`
	MaxExposure       float64  `yaml:"max_exposure"`
	BuyOffset         float64  `yaml:"buy_offset"`
	SellOffset        float64  `yaml:"sell_offset"`
	CandleInterval    string   `yaml:"candle_interval"`

	CheckInterval  int      `yaml:"check_interval"`
	MinTradeUSDT   *float64 `yaml:"min_trade_usdt"`
	MinUSDTBalance *float64 `yaml:"min_usdt_balance"`
}

func defaults() Config {
	var c Config
	c.CheckInterval = 60
	c.MinUSDTBalance = 0
	c.MinTradeUSDT = 5
	c.QuoteCurrency = "USDT"

	c.Exchange.PriceMaxAge = 10 * time.Second
	c.Exchange.Timeout = 10 * time.Second
	c.Exchange.RateLimitRPS = 10
	c.Exchange.RateLimitBurst = 5
	c.Exchange.SettleDelay = 2 * time.Second

	c.Follower.SignalFile = "signals.json"
	c.Follower.EnableFile = "follower.enabled"
	c.Follower.TradeAmount = 20
	c.Follower.PollInterval = 5 * time.Second
	c.Follower.Dedup = DedupMemory
	c.Follower.RedisKey = "spot_bot:follower:processed"

	c.Ledger.Driver = LedgerPostgres
	c.Log.File = "bot.log"
	c.Log.Console = true
	c.Tracing.Service = "spot_bot"
	c.Health.Addr = ":8080"
	return c
}

// NewConfig loads the file named by CONFIG_FILE from configs/.
func NewConfig() (*Config, error) {
	name := os.Getenv(configFilePathENV)
	if name == "" {
		name = defaultConfigFile
	}
	return Load(filepath.Join("configs", name))
}

// Load reads path, applies defaults and environment overrides and validates
// the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}
	defer func() {
		_ = file.Close()
	}()

	config := defaults()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, errors.Wrapf(err, "decode config file %s", path)
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(apiKeyENV); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(apiSecretENV); v != "" {
		c.APISecret = v
	}
	if v := os.Getenv(tokenTelegramENV); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv(databaseDSN); v != "" {
		c.DB = v
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, errors.Errorf(format, args...).Error())
	}

	if c.APIKey == "" || c.APISecret == "" {
		add("api_key and api_secret are required")
	}
	if len(c.Symbols) == 0 && !c.EnableFollower {
		add("no symbols configured and follower disabled")
	}
	if c.CheckInterval <= 0 {
		add("check_interval must be positive")
	}
	switch c.Ledger.Driver {
	case LedgerMemory:
	case LedgerPostgres:
		if c.DB == "" && c.hasGrid() {
			add("db_dsn is required for the postgres ledger")
		}
	default:
		add("unknown ledger driver %q", c.Ledger.Driver)
	}
	if c.EnableFollower {
		if c.Follower.TradeAmount <= 0 {
			add("follower.trade_amount must be positive")
		}
		switch c.Follower.Dedup {
		case DedupMemory:
		case DedupRedis:
			if c.Follower.RedisAddr == "" {
				add("follower.redis_addr is required for redis dedup")
			}
		default:
			add("unknown follower.dedup %q", c.Follower.Dedup)
		}
	}

	seen := map[string]bool{}
	for i, s := range c.Symbols {
		if _, _, ok := helper.SplitPair(s.Symbol); !ok {
			add("symbols[%d]: symbol must look like BASE_QUOTE", i)
			continue
		}
		if seen[s.Symbol] {
			add("symbols[%d]: %s configured twice", i, s.Symbol)
		}
		seen[s.Symbol] = true
		for _, p := range s.problems() {
			add("%s: %s", s.Symbol, p)
		}
	}

	if len(problems) > 0 {
		return errors.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) hasGrid() bool {
	for _, s := range c.Symbols {
		if s.kind().IsGrid() {
			return true
		}
	}
	return false
}

func (s Symbol) kind() models.StrategyType {
	if s.Strategy == "" {
		return models.StrategyATR
	}
	return models.StrategyType(strings.ToLower(s.Strategy))
}

func (s Symbol) fixedAmount() float64 {
	if s.TradeAmount > 0 {
		return s.TradeAmount
	}
	return s.BuyAmount
}

func (s Symbol) problems() []string {
	var out []string
	switch s.kind() {
	case models.StrategyThreshold:
		if s.TradePercent <= 0 || s.TradePercent > 100 {
			out = append(out, "trade_percent must be in (0, 100]")
		}
		if s.BuyThreshold >= 0 || s.SellThreshold <= 0 {
			out = append(out, "buy_threshold must be negative and sell_threshold positive")
		}
	case models.StrategyMomentum:
		if s.fixedAmount() <= 0 {
			out = append(out, "trade_amount must be positive")
		}
		if s.BuyThreshold >= 0 || s.SellThreshold <= 0 {
			out = append(out, "buy_threshold must be negative and sell_threshold positive")
		}
	case models.StrategyATR:
		if s.TradePercent <= 0 || s.TradePercent > 100 {
			out = append(out, "trade_percent must be in (0, 100]")
		}
		if s.ATRMultiplier < 0 {
			out = append(out, "atr_multiplier must not be negative")
		}
	case models.StrategyGrid:
		if s.fixedAmount() <= 0 {
			out = append(out, "buy_amount must be positive")
		}
		if s.ProfitMargin <= 1 {
			out = append(out, "profit_margin must be above 1")
		}
		if s.MaxExposure <= 0 {
			out = append(out, "max_exposure must be positive")
		}
	case models.StrategyGridDynamic:
		if s.fixedAmount() <= 0 && (s.TradePercent <= 0 || s.TradePercent > 100) {
			out = append(out, "buy_amount must be positive or trade_percent in (0, 100]")
		}
		if s.ProfitMargin <= 1 {
			out = append(out, "profit_margin must be above 1")
		}
		if s.BuyOffset <= 0 || s.SellOffset <= 0 {
			out = append(out, "buy_offset and sell_offset must be positive")
		}
	default:
		out = append(out, "unknown strategy "+s.Strategy)
	}
	if s.ATRPeriod < 0 || s.MAPeriod < 0 {
		out = append(out, "indicator periods must not be negative")
	}
	return out
}

// SymbolConfigs builds the immutable per-trader configurations.
func (c *Config) SymbolConfigs() []models.SymbolConfig {
	out := make([]models.SymbolConfig, 0, len(c.Symbols))
	for _, s := range c.Symbols {
		out = append(out, c.symbolConfig(s))
	}
	return out
}

func (c *Config) symbolConfig(s Symbol) models.SymbolConfig {
	pct := func(v float64) decimal.Decimal { return decimal.NewFromFloat(v).Shift(-2) }

	cfg := models.SymbolConfig{
		Symbol:            s.Symbol,
		Strategy:          s.kind(),
		RiskFraction:      pct(s.TradePercent),
		FixedAmount:       decimal.NewFromFloat(s.fixedAmount()),
		BuyThreshold:      pct(s.BuyThreshold),
		SellThreshold:     pct(s.SellThreshold),
		ATRMultiplier:     decimal.NewFromFloat(orFloat(s.ATRMultiplier, 0.7)),
		BuyOffset:         decimal.NewFromFloat(s.BuyOffset),
		SellOffset:        decimal.NewFromFloat(s.SellOffset),
		ProfitMargin:      decimal.NewFromFloat(s.ProfitMargin),
		MaxExposure:       decimal.NewFromFloat(s.MaxExposure),
		MinExpectedProfit: decimal.NewFromFloat(1.0),
		ATRPeriod:         orInt(s.ATRPeriod, 10),
		MAPeriod:          orInt(s.MAPeriod, 20),
		MinTradeValue:     decimal.NewFromFloat(c.MinTradeUSDT),
		MinReserved:       decimal.NewFromFloat(c.MinUSDTBalance),
		QuoteCurrency:     c.QuoteCurrency,
		CandleInterval:    helper.NormInterval(s.CandleInterval),
		CheckInterval:     time.Duration(orInt(s.CheckInterval, c.CheckInterval)) * time.Second,
	}
	if cfg.CandleInterval == "" {
		cfg.CandleInterval = "1m"
	}
	if s.MinExpectedProfit != nil {
		cfg.MinExpectedProfit = decimal.NewFromFloat(*s.MinExpectedProfit)
	}
	if s.MinTradeUSDT != nil {
		cfg.MinTradeValue = decimal.NewFromFloat(*s.MinTradeUSDT)
	}
	if s.MinUSDTBalance != nil {
		cfg.MinReserved = decimal.NewFromFloat(*s.MinUSDTBalance)
	}
	return cfg
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
