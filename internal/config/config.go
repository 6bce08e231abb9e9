package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the chat service and CLI.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	ChatTimeout      time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool
	DefaultSessionID string

	// Env is "development" or "production"; production refuses mock replies.
	Env string

	LLMProvider    string
	GeminiAPIKey   string
	GeminiModel    string
	Temperature    float64
	CLITemperature float64

	DatabaseURL string
}

// Load reads an optional .env file, then environment variables, and applies
// safe defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8000"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "empath"),
		DefaultSessionID: envOrDefault("APP_DEFAULT_SESSION_ID", "default"),
		AllowAnyOrigin:   true,
		Env:              strings.ToLower(envOrDefault("APP_ENV", "development")),
		LLMProvider:      strings.ToLower(envOrDefault("LLM_PROVIDER", "auto")),
		GeminiAPIKey:     firstNonEmpty(envTrimmed("GEMINI_API_KEY"), envTrimmed("GOOGLE_API_KEY")),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		ShutdownTimeout:  15 * time.Second,
		// Zero leaves model calls bounded only by the client connection.
		ChatTimeout:    0,
		Temperature:    0.8,
		CLITemperature: 0.7,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ChatTimeout, err = durationFromEnv("APP_CHAT_TIMEOUT", cfg.ChatTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.Temperature, err = floatFromEnv("LLM_TEMPERATURE", cfg.Temperature)
	if err != nil {
		return Config{}, err
	}
	cfg.CLITemperature, err = floatFromEnv("CLI_TEMPERATURE", cfg.CLITemperature)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.ChatTimeout < 0 {
		return fmt.Errorf("APP_CHAT_TIMEOUT must be >= 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2]")
	}
	if c.CLITemperature < 0 || c.CLITemperature > 2 {
		return fmt.Errorf("CLI_TEMPERATURE must be within [0, 2]")
	}
	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("invalid APP_ENV: %q (expected development|production)", c.Env)
	}
	switch c.LLMProvider {
	case "auto", "mock":
		if c.Env == "production" && c.UsesMockModel() {
			return fmt.Errorf("LLM_PROVIDER=%s without GEMINI_API_KEY would serve mock replies in production", c.LLMProvider)
		}
	case "gemini", "langchain", "fallback":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("LLM_PROVIDER=%s requires GEMINI_API_KEY (or GOOGLE_API_KEY)", c.LLMProvider)
		}
	default:
		return fmt.Errorf("invalid LLM_PROVIDER: %q (expected auto|gemini|langchain|fallback|mock)", c.LLMProvider)
	}
	return nil
}

// UsesMockModel reports whether turns will be answered by the offline echo
// model instead of Gemini.
func (c Config) UsesMockModel() bool {
	switch c.LLMProvider {
	case "mock":
		return true
	case "auto":
		return c.GeminiAPIKey == ""
	default:
		return false
	}
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
