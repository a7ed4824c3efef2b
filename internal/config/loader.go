package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PREDICTARB_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PREDICTARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setDuration(&cfg.Engine.Interval, "PREDICTARB_ENGINE_INTERVAL")
	setDuration(&cfg.Engine.CycleTimeout, "PREDICTARB_ENGINE_CYCLE_TIMEOUT")
	setFloat64(&cfg.Engine.MatchThreshold, "PREDICTARB_ENGINE_MATCH_THRESHOLD")
	setInt(&cfg.Engine.MinVenues, "PREDICTARB_ENGINE_MIN_VENUES")
	setDuration(&cfg.Engine.BlockWindow, "PREDICTARB_ENGINE_BLOCK_WINDOW")
	setFloat64(&cfg.Engine.ExposureShare, "PREDICTARB_ENGINE_EXPOSURE_SHARE")

	// ── Venues ──
	applyVenueOverrides(&cfg.Venues.Polymarket, "POLYMARKET")
	applyVenueOverrides(&cfg.Venues.Kalshi, "KALSHI")
	applyVenueOverrides(&cfg.Venues.Limitless, "LIMITLESS")
	applyVenueOverrides(&cfg.Venues.OpinionTrade, "OPINIONTRADE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "PREDICTARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "PREDICTARB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PREDICTARB_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "PREDICTARB_SERVER_API_KEY")
	setFloat64(&cfg.Server.RateLimitRPS, "PREDICTARB_SERVER_RATE_LIMIT_RPS")
	setInt(&cfg.Server.RateBurst, "PREDICTARB_SERVER_RATE_BURST")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "PREDICTARB_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "PREDICTARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PREDICTARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PREDICTARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PREDICTARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PREDICTARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PREDICTARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PREDICTARB_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PREDICTARB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PREDICTARB_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "PREDICTARB_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "PREDICTARB_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PREDICTARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PREDICTARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PREDICTARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PREDICTARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PREDICTARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PREDICTARB_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "PREDICTARB_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "PREDICTARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PREDICTARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "PREDICTARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PREDICTARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PREDICTARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PREDICTARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PREDICTARB_S3_FORCE_PATH_STYLE")

	// ── Alerts ──
	setBool(&cfg.Alerts.Enabled, "PREDICTARB_ALERTS_ENABLED")
	setDuration(&cfg.Alerts.CooldownTTL, "PREDICTARB_ALERTS_COOLDOWN_TTL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PREDICTARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PREDICTARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PREDICTARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.SMTP.Host, "PREDICTARB_NOTIFY_SMTP_HOST")
	setInt(&cfg.Notify.SMTP.Port, "PREDICTARB_NOTIFY_SMTP_PORT")
	setStr(&cfg.Notify.SMTP.From, "PREDICTARB_NOTIFY_SMTP_FROM")
	setStringSlice(&cfg.Notify.SMTP.To, "PREDICTARB_NOTIFY_SMTP_TO")
	setStr(&cfg.Notify.SMTP.Username, "PREDICTARB_NOTIFY_SMTP_USERNAME")
	setStr(&cfg.Notify.SMTP.Password, "PREDICTARB_NOTIFY_SMTP_PASSWORD")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "PREDICTARB_LOG_LEVEL")
}

func applyVenueOverrides(v *VenueConfig, name string) {
	setBool(&v.Enabled, "PREDICTARB_VENUES_"+name+"_ENABLED")
	setStr(&v.BaseURL, "PREDICTARB_VENUES_"+name+"_BASE_URL")
	setStr(&v.APIKey, "PREDICTARB_VENUES_"+name+"_API_KEY")
	setFloat64(&v.RequestsPerSecond, "PREDICTARB_VENUES_"+name+"_REQUESTS_PER_SECOND")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
