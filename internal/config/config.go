package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"signal-watcher/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Market    MarketConfig    `mapstructure:"market"`
	Symbols   []string        `mapstructure:"symbols"`
	Signals   SignalsConfig   `mapstructure:"signals"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs scan cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// MarketConfig covers exchange REST access.
type MarketConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeframe      string        `mapstructure:"timeframe"`
	CandleLimit    int           `mapstructure:"candle_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SignalsConfig tunes classification, deduplication, and notification batching.
type SignalsConfig struct {
	Cooldown       time.Duration `mapstructure:"cooldown"`
	Retention      time.Duration `mapstructure:"retention"`
	BatchThreshold int           `mapstructure:"batch_threshold"`
	MaxPerRun      int           `mapstructure:"max_per_run"`
	SendDelay      time.Duration `mapstructure:"send_delay"`
	HistoryFile    string        `mapstructure:"history_file"`
}

// TelegramConfig describes the notification delivery endpoint.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SIGWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sigwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "15m")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("market.base_url", "https://api.binance.com")
	v.SetDefault("market.timeframe", "15m")
	v.SetDefault("market.candle_limit", 200)
	v.SetDefault("market.request_timeout", "10s")
	v.SetDefault("market.user_agent", "sigwatcher/1.0")

	v.SetDefault("symbols", []string{
		"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT", "LINKUSDT",
		"ENAUSDT", "SUIUSDT", "BNBUSDT", "1000PEPEUSDT",
		"PUMPUSDT", "PENGUUSDT",
	})

	v.SetDefault("signals.cooldown", "60m")
	v.SetDefault("signals.retention", "24h")
	v.SetDefault("signals.batch_threshold", 3)
	v.SetDefault("signals.max_per_run", 8)
	v.SetDefault("signals.send_delay", "1s")
	v.SetDefault("signals.history_file", "signal_history.json")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must list at least one trading pair")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Market.CandleLimit < 50 {
		return fmt.Errorf("market.candle_limit must be at least 50")
	}
	if c.Signals.Cooldown <= 0 {
		return fmt.Errorf("signals.cooldown must be greater than zero")
	}
	if c.Signals.Retention < c.Signals.Cooldown {
		return fmt.Errorf("signals.retention must not be shorter than signals.cooldown")
	}
	if c.Signals.BatchThreshold < 2 {
		return fmt.Errorf("signals.batch_threshold must be at least 2")
	}
	if c.Signals.MaxPerRun <= 0 {
		return fmt.Errorf("signals.max_per_run must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
