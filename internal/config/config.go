// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the vacancy service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	HHBaseURL   string // hh.ru API base, override for tests/staging
	HHUserAgent string

	RequestTimeout time.Duration // per-page HTTP timeout
	RequestDelay   time.Duration // pause between page requests

	RunIntervalHours int // 0 disables the periodic scheduler
	LogLevel         string
}

// Load reads environment variables (optionally seeded from .env) and
// returns a validated Config.
func Load() (*Config, error) {
	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	cfg := &Config{
		Port:             "8082",
		DatabaseURL:      dbURL,
		RedisURL:         redisURL,
		HHBaseURL:        "https://api.hh.ru",
		HHUserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		RequestTimeout:   15 * time.Second,
		RequestDelay:     300 * time.Millisecond,
		RunIntervalHours: 0,
		LogLevel:         "info",
	}

	if v := os.Getenv("VACANCY_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("HH_BASE_URL"); v != "" {
		cfg.HHBaseURL = v
	}
	if v := os.Getenv("HH_USER_AGENT"); v != "" {
		cfg.HHUserAgent = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if s := os.Getenv("RUN_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("RUN_INTERVAL_HOURS must be a non-negative integer, got %q", s)
		}
		cfg.RunIntervalHours = v
	}

	if s := os.Getenv("REQUEST_DELAY"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("REQUEST_DELAY must be a duration, got %q", s)
		}
		if d < 300*time.Millisecond {
			return nil, fmt.Errorf("REQUEST_DELAY must be at least 300ms to respect the hh.ru rate limit, got %q", s)
		}
		cfg.RequestDelay = d
	}

	if s := os.Getenv("REQUEST_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("REQUEST_TIMEOUT must be a positive duration, got %q", s)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}
