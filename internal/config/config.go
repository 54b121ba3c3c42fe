package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Exchange   ExchangeConfig   `mapstructure:"exchange"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Whale      WhaleConfig      `mapstructure:"whale"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Captcha    CaptchaConfig    `mapstructure:"captcha"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// TelegramConfig holds chat platform configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ExchangeConfig holds price feed API configuration
type ExchangeConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// AlertsConfig holds price alert scheduler configuration
type AlertsConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// WhaleConfig holds whale watch scheduler configuration
type WhaleConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	TradeLimit    int           `mapstructure:"trade_limit"`
	DedupCapacity int           `mapstructure:"dedup_capacity"`
}

// PredictionConfig holds prediction game configuration
type PredictionConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	RoundWindow time.Duration `mapstructure:"round_window"`
}

// CaptchaConfig holds verification challenge configuration
type CaptchaConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// CacheConfig holds TTL cache configuration
type CacheConfig struct {
	AdminTTL    time.Duration `mapstructure:"admin_ttl"`
	SettingsTTL time.Duration `mapstructure:"settings_ttl"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("XBOT")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Telegram defaults
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Exchange defaults
	v.SetDefault("exchange.base_url", "https://www.okx.com")
	v.SetDefault("exchange.timeout", "10s")
	v.SetDefault("exchange.max_retries", 3)
	v.SetDefault("exchange.retry_delay_base", "1s")

	// Scheduler defaults
	v.SetDefault("alerts.interval", "60s")
	v.SetDefault("whale.interval", "45s")
	v.SetDefault("whale.trade_limit", 40)
	v.SetDefault("whale.dedup_capacity", 200)
	v.SetDefault("prediction.interval", "30s")
	v.SetDefault("prediction.round_window", "1h")

	// Captcha defaults
	v.SetDefault("captcha.ttl", "60s")

	// Cache defaults
	v.SetDefault("cache.admin_ttl", "5m")
	v.SetDefault("cache.settings_ttl", "1m")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/xbot.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Telegram config
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	if c.Telegram.MaxRetries < 1 {
		return fmt.Errorf("telegram.max_retries must be at least 1")
	}

	// Validate Exchange config
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if c.Exchange.Timeout < time.Second {
		return fmt.Errorf("exchange.timeout must be at least 1 second")
	}
	if c.Exchange.MaxRetries < 1 {
		return fmt.Errorf("exchange.max_retries must be at least 1")
	}

	// Validate scheduler config
	if c.Alerts.Interval < 5*time.Second {
		return fmt.Errorf("alerts.interval must be at least 5 seconds")
	}
	if c.Whale.Interval < 5*time.Second {
		return fmt.Errorf("whale.interval must be at least 5 seconds")
	}
	if c.Whale.TradeLimit < 1 || c.Whale.TradeLimit > 500 {
		return fmt.Errorf("whale.trade_limit must be between 1 and 500")
	}
	if c.Whale.DedupCapacity < 1 {
		return fmt.Errorf("whale.dedup_capacity must be at least 1")
	}
	if c.Prediction.Interval < 5*time.Second {
		return fmt.Errorf("prediction.interval must be at least 5 seconds")
	}
	if c.Prediction.RoundWindow < time.Minute {
		return fmt.Errorf("prediction.round_window must be at least 1 minute")
	}

	// Validate Captcha config
	if c.Captcha.TTL < 10*time.Second {
		return fmt.Errorf("captcha.ttl must be at least 10 seconds")
	}

	// Validate Cache config
	if c.Cache.AdminTTL < time.Second {
		return fmt.Errorf("cache.admin_ttl must be at least 1 second")
	}
	if c.Cache.SettingsTTL < time.Second {
		return fmt.Errorf("cache.settings_ttl must be at least 1 second")
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
