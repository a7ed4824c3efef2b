package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v, want nil", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "verbose"
	cfg.Engine.MatchThreshold = 1.5
	cfg.Engine.MinVenues = 1
	cfg.Server.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"log_level", "match_threshold", "min_venues", "port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidateRequiresTwoVenues(t *testing.T) {
	cfg := Defaults()
	cfg.Venues.Kalshi.Enabled = false

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "at least two venues") {
		t.Fatalf("error = %v, want two-venue requirement", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
log_level = "debug"

[engine]
interval = "2m"
match_threshold = 0.6

[venues.limitless]
enabled = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Engine.Interval.Duration != 2*time.Minute {
		t.Errorf("Interval = %v, want 2m", cfg.Engine.Interval.Duration)
	}
	if cfg.Engine.MatchThreshold != 0.6 {
		t.Errorf("MatchThreshold = %v, want 0.6", cfg.Engine.MatchThreshold)
	}
	// Untouched sections keep defaults.
	if !cfg.Venues.Polymarket.Enabled || cfg.Venues.Polymarket.BaseURL == "" {
		t.Error("polymarket defaults lost during merge")
	}
	if !cfg.Venues.Limitless.Enabled {
		t.Error("limitless enable flag not applied")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PREDICTARB_ENGINE_INTERVAL", "45s")
	t.Setenv("PREDICTARB_POSTGRES_PASSWORD", "s3cret")
	t.Setenv("PREDICTARB_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Engine.Interval.Duration != 45*time.Second {
		t.Errorf("Interval = %v, want 45s", cfg.Engine.Interval.Duration)
	}
	if cfg.Postgres.Password != "s3cret" {
		t.Errorf("Password = %q, want s3cret", cfg.Postgres.Password)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "topsecret"
	cfg.Notify.TelegramToken = "tok"

	red := RedactedConfig(&cfg)

	if red.Postgres.Password != "***" || red.S3.SecretKey != "***" || red.Notify.TelegramToken != "***" {
		t.Error("secrets not redacted")
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Error("original config mutated")
	}
	// Empty secrets stay empty rather than being replaced.
	if red.Server.APIKey != "" {
		t.Errorf("empty APIKey became %q", red.Server.APIKey)
	}
}
