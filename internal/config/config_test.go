package config_test

import (
	"testing"
	"time"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/vacancies")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8082" {
		t.Errorf("Port = %q, want 8082", cfg.Port)
	}
	if cfg.HHBaseURL != "https://api.hh.ru" {
		t.Errorf("HHBaseURL = %q, want https://api.hh.ru", cfg.HHBaseURL)
	}
	if cfg.RequestDelay != 300*time.Millisecond {
		t.Errorf("RequestDelay = %v, want 300ms", cfg.RequestDelay)
	}
	if cfg.RunIntervalHours != 0 {
		t.Errorf("RunIntervalHours = %d, want 0 (scheduler off)", cfg.RunIntervalHours)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	if _, err := config.Load(); err == nil {
		t.Fatal("Load succeeded without DATABASE_URL")
	}
}

func TestLoad_MissingRedisURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/vacancies")
	t.Setenv("REDIS_URL", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("Load succeeded without REDIS_URL")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("VACANCY_PORT", "9000")
	t.Setenv("RUN_INTERVAL_HOURS", "6")
	t.Setenv("REQUEST_DELAY", "500ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.RunIntervalHours != 6 {
		t.Errorf("RunIntervalHours = %d, want 6", cfg.RunIntervalHours)
	}
	if cfg.RequestDelay != 500*time.Millisecond {
		t.Errorf("RequestDelay = %v, want 500ms", cfg.RequestDelay)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_RejectsDelayBelowRateLimit(t *testing.T) {
	setRequired(t)
	t.Setenv("REQUEST_DELAY", "50ms")

	if _, err := config.Load(); err == nil {
		t.Fatal("Load accepted a delay below the hh.ru rate-limit floor")
	}
}

func TestLoad_RejectsBadInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("RUN_INTERVAL_HOURS", "-1")

	if _, err := config.Load(); err == nil {
		t.Fatal("Load accepted a negative run interval")
	}
}
