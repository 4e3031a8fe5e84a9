package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	REST      RESTConfig      `yaml:"rest"`
	Alert     AlertConfig     `yaml:"alert"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Health    HealthConfig    `yaml:"health"`
	State     StateConfig     `yaml:"state"`
	Timescale TimescaleConfig `yaml:"timescale"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type RESTConfig struct {
	BaseURL       string        `yaml:"base_url"`
	LaunchpoolURL string        `yaml:"launchpool_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

type AlertConfig struct {
	Interval       time.Duration `yaml:"interval"`
	QuoteSuffix    string        `yaml:"quote_suffix"`
	FundingWindow  time.Duration `yaml:"funding_window"`
	TimezoneOffset string        `yaml:"timezone_offset"`
	PageSize       int           `yaml:"page_size"`
}

type TelegramConfig struct {
	Token       string        `yaml:"token"`
	ChatID      string        `yaml:"chat_id"`
	BaseURL     string        `yaml:"base_url"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
	PollDelay   time.Duration `yaml:"poll_delay"`
}

type HealthConfig struct {
	Address     string `yaml:"address"`
	MetricsPath string `yaml:"metrics_path"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type TimescaleConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueueSize       int           `yaml:"queue_size"`
}

// Environment variables holding the bot credentials. The suffixed pair wins
// over the plain pair when both are set.
var (
	tokenEnvKeys  = []string{"TELEGRAM_BOT_TOKEN_MD", "TELEGRAM_BOT_TOKEN"}
	chatIDEnvKeys = []string{"TELEGRAM_CHAT_ID_MD", "TELEGRAM_CHAT_ID"}
)

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyEnv(cfg *Config) {
	if v := firstEnv(tokenEnvKeys...); v != "" {
		cfg.Telegram.Token = v
	}
	if v := firstEnv(chatIDEnvKeys...); v != "" {
		cfg.Telegram.ChatID = v
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.REST.BaseURL == "" {
		cfg.REST.BaseURL = "https://api.gateio.ws/api/v4"
	}
	if cfg.REST.LaunchpoolURL == "" {
		cfg.REST.LaunchpoolURL = "https://www.gate.io/apiw/v2/earn/launch-pool/project-list"
	}
	if cfg.REST.Timeout == 0 {
		cfg.REST.Timeout = 10 * time.Second
	}
	if cfg.Alert.Interval == 0 {
		cfg.Alert.Interval = 60 * time.Second
	}
	if cfg.Alert.QuoteSuffix == "" {
		cfg.Alert.QuoteSuffix = "_USDT"
	}
	if cfg.Alert.FundingWindow == 0 {
		cfg.Alert.FundingWindow = 30 * time.Minute
	}
	if cfg.Alert.TimezoneOffset == "" {
		cfg.Alert.TimezoneOffset = "+09:00"
	}
	if cfg.Alert.PageSize == 0 {
		cfg.Alert.PageSize = 50
	}
	if cfg.Telegram.BaseURL == "" {
		cfg.Telegram.BaseURL = "https://api.telegram.org"
	}
	if cfg.Telegram.PollTimeout == 0 {
		cfg.Telegram.PollTimeout = 60 * time.Second
	}
	if cfg.Telegram.PollDelay == 0 {
		cfg.Telegram.PollDelay = 5 * time.Second
	}
	if cfg.Health.Address == "" {
		cfg.Health.Address = ":8080"
	}
	if cfg.Health.MetricsPath == "" {
		cfg.Health.MetricsPath = "/metrics"
	}
	if cfg.Timescale.Schema == "" {
		cfg.Timescale.Schema = "public"
	}
	if cfg.Timescale.QueueSize == 0 {
		cfg.Timescale.QueueSize = 256
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if strings.TrimSpace(cfg.Telegram.ChatID) == "" {
		return errors.New("telegram.chat_id is required")
	}
	if cfg.Alert.Interval < time.Second {
		return errors.New("alert.interval must be >= 1s")
	}
	if cfg.Alert.FundingWindow <= 0 {
		return errors.New("alert.funding_window must be > 0")
	}
	if cfg.Alert.PageSize < 0 {
		return errors.New("alert.page_size must be >= 0")
	}
	if _, err := cfg.Alert.Location(); err != nil {
		return err
	}
	if cfg.Timescale.Enabled && strings.TrimSpace(cfg.Timescale.DSN) == "" {
		return errors.New("timescale.dsn is required when timescale is enabled")
	}
	return nil
}

// Location returns the fixed zone used for funding countdowns and message
// timestamps.
func (a AlertConfig) Location() (*time.Location, error) {
	raw := strings.TrimSpace(a.TimezoneOffset)
	if raw == "" {
		return time.UTC, nil
	}
	ts, err := time.Parse("-07:00", raw)
	if err != nil {
		return nil, fmt.Errorf("alert.timezone_offset: %w", err)
	}
	_, offset := ts.Zone()
	return time.FixedZone("UTC"+raw, offset), nil
}
