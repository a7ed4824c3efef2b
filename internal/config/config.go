// Package config defines the top-level configuration for the arbitrage
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PREDICTARB_* environment
// variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Venues   VenuesConfig   `toml:"venues"`
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Alerts   AlertsConfig   `toml:"alerts"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds recompute-cycle parameters.
type EngineConfig struct {
	Interval       duration `toml:"interval"`        // time between recompute cycles
	CycleTimeout   duration `toml:"cycle_timeout"`   // deadline per cycle; expired cycles are abandoned
	MatchThreshold float64  `toml:"match_threshold"` // minimum pairwise similarity to cluster
	MinVenues      int      `toml:"min_venues"`
	BlockWindow    duration `toml:"block_window"` // end-time window for candidate blocking
	ExposureShare  float64  `toml:"exposure_share"`
}

// VenuesConfig holds the per-venue feed settings.
type VenuesConfig struct {
	Polymarket   VenueConfig `toml:"polymarket"`
	Kalshi       VenueConfig `toml:"kalshi"`
	Limitless    VenueConfig `toml:"limitless"`
	OpinionTrade VenueConfig `toml:"opiniontrade"`
}

// VenueConfig holds one venue's feed settings.
type VenueConfig struct {
	Enabled           bool    `toml:"enabled"`
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled      bool     `toml:"enabled"`
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	APIKey       string   `toml:"api_key"` // empty disables auth
	RateLimitRPS float64  `toml:"rate_limit_rps"`
	RateBurst    int      `toml:"rate_burst"`
}

// PostgresConfig holds PostgreSQL connection parameters. Postgres is
// optional: without it, alert CRUD and opportunity history are disabled.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional: without
// it, cooldowns fall back to in-process state and venue outages cannot be
// bridged from cache.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the snapshot
// archiver. Optional.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// AlertsConfig holds alert-evaluator parameters.
type AlertsConfig struct {
	Enabled     bool     `toml:"enabled"`
	CooldownTTL duration `toml:"cooldown_ttl"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string     `toml:"telegram_token"`
	TelegramChatID    string     `toml:"telegram_chat_id"`
	DiscordWebhookURL string     `toml:"discord_webhook_url"`
	SMTP              SMTPConfig `toml:"smtp"`
}

// SMTPConfig holds email delivery parameters.
type SMTPConfig struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "90s", "6h").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			Interval:       duration{90 * time.Second},
			CycleTimeout:   duration{60 * time.Second},
			MatchThreshold: 0.5,
			MinVenues:      2,
			BlockWindow:    duration{72 * time.Hour},
			ExposureShare:  0.10,
		},
		Venues: VenuesConfig{
			Polymarket: VenueConfig{
				Enabled:           true,
				BaseURL:           "https://gamma-api.polymarket.com",
				RequestsPerSecond: 5,
			},
			Kalshi: VenueConfig{
				Enabled:           true,
				BaseURL:           "https://api.elections.kalshi.com/trade-api/v2",
				RequestsPerSecond: 5,
			},
			Limitless: VenueConfig{
				BaseURL:           "https://api.limitless.exchange",
				RequestsPerSecond: 3,
			},
			OpinionTrade: VenueConfig{
				BaseURL:           "https://api.opiniontrade.io",
				RequestsPerSecond: 3,
			},
		},
		Server: ServerConfig{
			Enabled:      true,
			Port:         8080,
			RateLimitRPS: 20,
			RateBurst:    40,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "predictarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "predictarb-snapshots",
			ForcePathStyle: true,
		},
		Alerts: AlertsConfig{
			Enabled:     true,
			CooldownTTL: duration{6 * time.Hour},
		},
		Notify: NotifyConfig{
			SMTP: SMTPConfig{Port: 587},
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for inconsistencies. It collects all
// problems rather than stopping at the first, so an operator can fix a bad
// file in one pass.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Engine.Interval.Duration <= 0 {
		errs = append(errs, "engine: interval must be positive")
	}
	if c.Engine.CycleTimeout.Duration <= 0 {
		errs = append(errs, "engine: cycle_timeout must be positive")
	}
	if c.Engine.MatchThreshold < 0 || c.Engine.MatchThreshold > 1 {
		errs = append(errs, fmt.Sprintf("engine: match_threshold must be in [0,1], got %v", c.Engine.MatchThreshold))
	}
	if c.Engine.MinVenues < 2 {
		errs = append(errs, "engine: min_venues must be at least 2")
	}
	if c.Engine.ExposureShare <= 0 || c.Engine.ExposureShare > 1 {
		errs = append(errs, fmt.Sprintf("engine: exposure_share must be in (0,1], got %v", c.Engine.ExposureShare))
	}

	enabled := 0
	for name, v := range map[string]VenueConfig{
		"polymarket":   c.Venues.Polymarket,
		"kalshi":       c.Venues.Kalshi,
		"limitless":    c.Venues.Limitless,
		"opiniontrade": c.Venues.OpinionTrade,
	} {
		if !v.Enabled {
			continue
		}
		enabled++
		if v.BaseURL == "" {
			errs = append(errs, fmt.Sprintf("venues: %s is enabled but base_url is empty", name))
		}
	}
	if enabled < 2 {
		errs = append(errs, "venues: at least two venues must be enabled for cross-venue matching")
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be in 1..65535, got %d", c.Server.Port))
	}

	if c.Postgres.Enabled && c.Postgres.DSN == "" && c.Postgres.Host == "" {
		errs = append(errs, "postgres: either dsn or host must be set when enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must be set when enabled")
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must be set when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must be set when enabled")
		}
	}

	// Alerts without Postgres is not an error: the evaluator is skipped at
	// wire-up since there is no store to read definitions from.
	if c.Alerts.CooldownTTL.Duration < 0 {
		errs = append(errs, "alerts: cooldown_ttl must not be negative")
	}

	if c.Notify.SMTP.Host != "" && c.Notify.SMTP.From == "" {
		errs = append(errs, "notify: smtp.from must be set when smtp.host is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
