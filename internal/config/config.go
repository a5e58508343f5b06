// Package config reads the service settings from .env files and the process
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	// SinkURL is empty when no webhook is configured; submissions then fail
	// with an operator message.
	SinkURL string
	// SinkFromPublicVar is set when SinkURL came from the development-only
	// public variable.
	SinkFromPublicVar bool
	SinkTimeout       time.Duration

	RateLimitMax            int
	RateLimitWindow         time.Duration
	RateLimitSweepThreshold int
	RateLimitSweepInterval  time.Duration

	DatabaseURL string
	AMQPURL     string

	MailHost     string
	MailPort     int
	MailUser     string
	MailPassword string
	MailFrom     string
	LeadNotifyTo string

	AllowedOrigins []string
	LogLevel       string
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c *Config) MailEnabled() bool {
	return c.MailHost != "" && c.LeadNotifyTo != ""
}

// LoadDotEnv loads .env.local then .env; variables already set win and
// missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// Load reads the configuration from the environment. Call LoadDotEnv first
// to pick up local files.
func Load() (*Config, error) {
	cfg := &Config{
		Env:          strings.ToLower(getEnv("APP_ENV", EnvProduction)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		MailHost:     os.Getenv("MAIL_HOST"),
		MailUser:     os.Getenv("MAIL_USER"),
		MailPassword: os.Getenv("MAIL_PASS"),
		MailFrom:     getEnv("MAIL_FROM", "nepasrepondre@immo-reso.fr"),
		LeadNotifyTo: os.Getenv("LEAD_NOTIFY_TO"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
	}

	var err error
	if cfg.Port, err = intEnv("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.SinkTimeout, err = durationEnv("SINK_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = intEnv("RATE_LIMIT_MAX", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = durationEnv("RATE_LIMIT_WINDOW", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitSweepThreshold, err = intEnv("RATE_LIMIT_SWEEP_THRESHOLD", 1000); err != nil {
		return nil, err
	}
	if cfg.RateLimitSweepInterval, err = durationEnv("RATE_LIMIT_SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MailPort, err = intEnv("MAIL_PORT", 587); err != nil {
		return nil, err
	}

	cfg.SinkURL = strings.TrimSpace(os.Getenv("MAKE_WEBHOOK_URL"))
	if cfg.SinkURL == "" && cfg.IsDevelopment() {
		// The public variable is readable by the browser bundle; only accepted
		// locally.
		if public := strings.TrimSpace(os.Getenv("NEXT_PUBLIC_MAKE_WEBHOOK_URL")); public != "" {
			cfg.SinkURL = public
			cfg.SinkFromPublicVar = true
		}
	}

	cfg.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration, got %q", key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
