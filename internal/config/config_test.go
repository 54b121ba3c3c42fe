package config

import (
	"os"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	content := `
telegram:
  bot_token: "test_token"
  enabled: true

exchange:
  base_url: "https://www.okx.com"
  timeout: 10s

alerts:
  interval: 60s

whale:
  interval: 45s
  trade_limit: 40
  dedup_capacity: 200

prediction:
  interval: 30s
  round_window: 1h

captcha:
  ttl: 60s

storage:
  db_path: "./data/test.db"

logging:
  level: "info"
  format: "json"
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("got bot token %q, want test_token", cfg.Telegram.BotToken)
	}
	if cfg.Alerts.Interval != 60*time.Second {
		t.Errorf("got alerts interval %v, want 60s", cfg.Alerts.Interval)
	}
	if cfg.Whale.TradeLimit != 40 {
		t.Errorf("got trade limit %d, want 40", cfg.Whale.TradeLimit)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "telegram:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate with defaults: %v", err)
	}

	if cfg.Exchange.Timeout != 10*time.Second {
		t.Errorf("got exchange timeout %v, want default 10s", cfg.Exchange.Timeout)
	}
	if cfg.Whale.Interval != 45*time.Second {
		t.Errorf("got whale interval %v, want default 45s", cfg.Whale.Interval)
	}
	if cfg.Prediction.RoundWindow != time.Hour {
		t.Errorf("got round window %v, want default 1h", cfg.Prediction.RoundWindow)
	}
	if cfg.Captcha.TTL != 60*time.Second {
		t.Errorf("got captcha ttl %v, want default 60s", cfg.Captcha.TTL)
	}
	if cfg.Cache.AdminTTL != 5*time.Minute {
		t.Errorf("got admin ttl %v, want default 5m", cfg.Cache.AdminTTL)
	}
	if cfg.Cache.SettingsTTL != time.Minute {
		t.Errorf("got settings ttl %v, want default 1m", cfg.Cache.SettingsTTL)
	}
	if cfg.Whale.DedupCapacity != 200 {
		t.Errorf("got dedup capacity %d, want default 200", cfg.Whale.DedupCapacity)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeTempConfig(t, "telegram:\n  enabled: false\n"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"enabled without token", func(c *Config) { c.Telegram.Enabled = true }},
		{"empty base url", func(c *Config) { c.Exchange.BaseURL = "" }},
		{"tiny exchange timeout", func(c *Config) { c.Exchange.Timeout = time.Millisecond }},
		{"tiny alerts interval", func(c *Config) { c.Alerts.Interval = time.Second }},
		{"zero trade limit", func(c *Config) { c.Whale.TradeLimit = 0 }},
		{"huge trade limit", func(c *Config) { c.Whale.TradeLimit = 1000 }},
		{"zero dedup capacity", func(c *Config) { c.Whale.DedupCapacity = 0 }},
		{"tiny round window", func(c *Config) { c.Prediction.RoundWindow = time.Second }},
		{"tiny captcha ttl", func(c *Config) { c.Captcha.TTL = time.Second }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
