package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"NiftyScreener/internal/calculator"
	"NiftyScreener/internal/collector"
	"NiftyScreener/internal/markethours"
	"NiftyScreener/internal/strategy"
	"NiftyScreener/internal/symbols"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

var validate = validator.New()

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider      string  `yaml:"provider" validate:"oneof=upstox yahoo mock"`
		BaseURL       string  `yaml:"base_url" validate:"omitempty,url"`
		AccessToken   string  `yaml:"access_token"`
		From          string  `yaml:"from" validate:"required,datetime=2006-01-02"`
		LookbackDays  int     `yaml:"lookback_days" validate:"gt=0"`
		RatePerSecond float64 `yaml:"rate_per_second" validate:"gt=0"`
		Burst         int     `yaml:"burst" validate:"gte=1"`
	} `yaml:"data_source"`
	Symbols struct {
		Master string             `yaml:"master"`
		Lists  []symbols.ListSpec `yaml:"lists" validate:"required,min=1,dive"`
	} `yaml:"symbols"`
	Indicators calculator.IndicatorConfig `yaml:"indicators"`
	Trades     struct {
		Preset string        `yaml:"preset" validate:"omitempty,oneof=equity etf"`
		Rules  RuleOverrides `yaml:"rules"`
	} `yaml:"trades"`
	Breakout strategy.BreakoutRules `yaml:"breakout"`
	Runner   struct {
		Workers       int `yaml:"workers" validate:"gte=1,lte=64"`
		NotifyRetries int `yaml:"notify_retries" validate:"gte=0"`
	} `yaml:"runner"`
	Export struct {
		Format          string `yaml:"format" validate:"oneof=sheets csv parquet"`
		Dir             string `yaml:"dir"`
		SpreadsheetID   string `yaml:"spreadsheet_id" validate:"required_if=Format sheets"`
		CredentialsFile string `yaml:"credentials_file" validate:"required_if=Format sheets"`
		TradesSheet     string `yaml:"trades_sheet" validate:"required"`
		BreakoutSheet   string `yaml:"breakout_sheet" validate:"required"`
		Underlying      bool   `yaml:"underlying"`
	} `yaml:"export"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr" validate:"omitempty,hostname_port"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db" validate:"gte=0"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Schedule struct {
		TradesCron   string `yaml:"trades_cron" validate:"required"`
		BreakoutCron string `yaml:"breakout_cron" validate:"required"`
		SkipHolidays bool   `yaml:"skip_holidays"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// RuleOverrides replaces individual thresholds of the trade preset. Zero
// fields keep the preset value.
type RuleOverrides struct {
	OversoldRSI   float64 `yaml:"oversold_rsi" validate:"omitempty,gt=0,lt=100"`
	EntryRatio    float64 `yaml:"entry_ratio" validate:"omitempty,gt=0"`
	ExitRatio     float64 `yaml:"exit_ratio" validate:"omitempty,gt=0"`
	OverboughtRSI float64 `yaml:"overbought_rsi" validate:"omitempty,gt=0,lt=100"`
	StopLoss      float64 `yaml:"stop_loss" validate:"omitempty,gt=0,lte=1"`
}

// Default returns the configuration used for fields the file leaves unset.
func Default() *Config {
	cfg := &Config{}
	cfg.DataSource.Provider = "upstox"
	cfg.DataSource.BaseURL = collector.DefaultUpstoxBaseURL
	cfg.DataSource.From = "2024-10-01"
	cfg.DataSource.LookbackDays = 1000
	cfg.DataSource.RatePerSecond = 5
	cfg.DataSource.Burst = 1
	cfg.Symbols.Master = symbols.DefaultMasterURL
	cfg.Indicators = calculator.DefaultIndicatorConfig()
	cfg.Trades.Preset = "equity"
	cfg.Breakout = strategy.DefaultBreakoutRules
	cfg.Runner.Workers = 10
	cfg.Runner.NotifyRetries = 2
	cfg.Export.Format = "csv"
	cfg.Export.Dir = "data/export"
	cfg.Export.TradesSheet = "Trades"
	cfg.Export.BreakoutSheet = "Breakout"
	cfg.Database.SQLitePath = "data/screener.db"
	cfg.Cache.TTL = 6 * time.Hour
	cfg.Metrics.Addr = ":9090"
	cfg.Schedule.TradesCron = "0 0 16 * * 1-5"
	cfg.Schedule.BreakoutCron = "0 30 16 * * 1-5"
	cfg.Schedule.SkipHolidays = true
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath picks the config file: flag value, then CONFIG_PATH, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

func (c *Config) applyEnv() error {
	for env, dst := range map[string]*string{
		"TELEGRAM_BOT_TOKEN":  &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":    &c.Telegram.ChatID,
		"DATA_SOURCE":         &c.DataSource.Provider,
		"UPSTOX_BASE_URL":     &c.DataSource.BaseURL,
		"UPSTOX_ACCESS_TOKEN": &c.DataSource.AccessToken,
		"GCP_CREDS_FILE":      &c.Export.CredentialsFile,
		"SPREADSHEET_ID":      &c.Export.SpreadsheetID,
		"SQLITE_PATH":         &c.Database.SQLitePath,
		"POSTGRES_DSN":        &c.Database.PostgresDSN,
		"REDIS_ADDR":          &c.Cache.RedisAddr,
		"METRICS_ADDR":        &c.Metrics.Addr,
		"HTTPS_PROXY":         &c.Proxy,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WORKERS: %w", err)
		}
		c.Runner.Workers = n
	}
	return nil
}

// Validate checks struct constraints and the derived trade rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	set, err := c.RuleSet()
	if err != nil {
		return err
	}
	if err := checkRules("trades.rules", set.Default); err != nil {
		return err
	}
	for name, rules := range set.ByList {
		if err := checkRules("symbols.lists["+name+"]", rules); err != nil {
			return err
		}
	}
	return nil
}

func checkRules(field string, rules strategy.TradeRules) error {
	if err := validate.Struct(rules); err != nil {
		return fmt.Errorf("invalid trade rules for %s: %w", field, err)
	}
	if rules.ExitRatio <= rules.EntryRatio {
		return fmt.Errorf("%s: exit_ratio %.2f must exceed entry_ratio %.2f", field, rules.ExitRatio, rules.EntryRatio)
	}
	return nil
}

// TradeRules returns the global preset with any overrides applied.
func (c *Config) TradeRules() (strategy.TradeRules, error) {
	return c.presetRules(c.Trades.Preset)
}

// RuleSet returns the global rules plus the rules of every list that picks
// its own preset. Overrides apply to all of them.
func (c *Config) RuleSet() (strategy.RuleSet, error) {
	def, err := c.TradeRules()
	if err != nil {
		return strategy.RuleSet{}, err
	}
	set := strategy.Uniform(def)
	for _, spec := range c.Symbols.Lists {
		preset := spec.DefaultPreset()
		if preset == "" {
			continue
		}
		rules, err := c.presetRules(preset)
		if err != nil {
			return strategy.RuleSet{}, fmt.Errorf("list %s: %w", spec.Name, err)
		}
		if set.ByList == nil {
			set.ByList = map[string]strategy.TradeRules{}
		}
		set.ByList[spec.Name] = rules
	}
	return set, nil
}

func (c *Config) presetRules(preset string) (strategy.TradeRules, error) {
	rules, err := strategy.RulesPreset(preset)
	if err != nil {
		return rules, err
	}
	o := c.Trades.Rules
	if o.OversoldRSI != 0 {
		rules.OversoldRSI = o.OversoldRSI
	}
	if o.EntryRatio != 0 {
		rules.EntryRatio = o.EntryRatio
	}
	if o.ExitRatio != 0 {
		rules.ExitRatio = o.ExitRatio
	}
	if o.OverboughtRSI != 0 {
		rules.OverboughtRSI = o.OverboughtRSI
	}
	if o.StopLoss != 0 {
		rules.StopLoss = o.StopLoss
	}
	return rules, nil
}

// SheetFor returns the breakout and trades tabs of a list, falling back to
// the export defaults.
func (c *Config) SheetFor(list symbols.List) (breakout, trades string) {
	breakout, trades = list.Sheet, list.TradesSheet
	if breakout == "" {
		breakout = c.Export.BreakoutSheet
	}
	if trades == "" {
		trades = c.Export.TradesSheet
	}
	return breakout, trades
}

// TradesFrom returns the fixed start date of the trade history, IST midnight.
func (c *Config) TradesFrom() (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", c.DataSource.From, markethours.IST)
	if err != nil {
		return time.Time{}, fmt.Errorf("data_source.from: %w", err)
	}
	return t, nil
}

// BreakoutFrom returns the start of the breakout lookback window ending at asOf.
func (c *Config) BreakoutFrom(asOf time.Time) time.Time {
	return markethours.Date(asOf).AddDate(0, 0, -c.DataSource.LookbackDays)
}
