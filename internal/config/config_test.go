package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.BindAddr != ":8000" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8000")
	}
	if cfg.LLMProvider != "auto" {
		t.Fatalf("LLMProvider = %q, want auto", cfg.LLMProvider)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Fatalf("GeminiModel = %q, want gemini-2.5-flash", cfg.GeminiModel)
	}
	if cfg.Temperature != 0.8 || cfg.CLITemperature != 0.7 {
		t.Fatalf("temperatures = (%v, %v), want (0.8, 0.7)", cfg.Temperature, cfg.CLITemperature)
	}
	if cfg.ChatTimeout != 0 {
		t.Fatalf("ChatTimeout = %v, want disabled", cfg.ChatTimeout)
	}
	if cfg.DefaultSessionID != "default" {
		t.Fatalf("DefaultSessionID = %q, want default", cfg.DefaultSessionID)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = false, want true")
	}
	if cfg.Env != "development" {
		t.Fatalf("Env = %q, want development", cfg.Env)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9191")
	t.Setenv("APP_CHAT_TIMEOUT", "45s")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GOOGLE_API_KEY", " key-from-google ")
	t.Setenv("LLM_TEMPERATURE", "1.1")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "off")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.BindAddr != ":9191" || cfg.ChatTimeout != 45*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("LLMProvider = %q, want gemini", cfg.LLMProvider)
	}
	if cfg.GeminiAPIKey != "key-from-google" {
		t.Fatalf("GeminiAPIKey = %q, want GOOGLE_API_KEY fallback", cfg.GeminiAPIKey)
	}
	if cfg.Temperature != 1.1 {
		t.Fatalf("Temperature = %v, want 1.1", cfg.Temperature)
	}
	if cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = true, want false")
	}
}

func TestFromEnvPrefersGeminiKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("GOOGLE_API_KEY", "google")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.GeminiAPIKey != "gemini" {
		t.Fatalf("GeminiAPIKey = %q, want gemini", cfg.GeminiAPIKey)
	}
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":       {"APP_CHAT_TIMEOUT": "soon"},
		"negative timeout":   {"APP_CHAT_TIMEOUT": "-1s"},
		"bad temperature":    {"LLM_TEMPERATURE": "warm"},
		"temperature range":  {"CLI_TEMPERATURE": "3"},
		"bad bool":           {"APP_ALLOW_ANY_ORIGIN": "maybe"},
		"unknown provider":   {"LLM_PROVIDER": "openai"},
		"provider needs key": {"LLM_PROVIDER": "langchain"},
		"fallback needs key": {"LLM_PROVIDER": "fallback"},
		"unknown env":        {"APP_ENV": "staging"},
		"mock in production": {"APP_ENV": "production"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Fatalf("FromEnv() error = nil, want error")
			}
		})
	}
}

func TestUsesMockModel(t *testing.T) {
	cases := []struct {
		provider string
		key      string
		want     bool
	}{
		{provider: "auto", key: "", want: true},
		{provider: "auto", key: "k", want: false},
		{provider: "mock", key: "k", want: true},
		{provider: "gemini", key: "k", want: false},
		{provider: "fallback", key: "k", want: false},
	}
	for _, tc := range cases {
		cfg := Config{LLMProvider: tc.provider, GeminiAPIKey: tc.key}
		if got := cfg.UsesMockModel(); got != tc.want {
			t.Fatalf("UsesMockModel(%s, key=%q) = %v, want %v", tc.provider, tc.key, got, tc.want)
		}
	}
}

func TestFromEnvProductionWithKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Env != "production" || cfg.UsesMockModel() {
		t.Fatalf("unexpected config: env=%q mock=%v", cfg.Env, cfg.UsesMockModel())
	}
}

func TestEnvTrimmed(t *testing.T) {
	t.Setenv("EMPATH_TEST_TRIMMED", "  value \t")
	if got := envTrimmed("EMPATH_TEST_TRIMMED"); got != "value" {
		t.Fatalf("envTrimmed() = %q, want value", got)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_CHAT_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_DEFAULT_SESSION_ID",
		"APP_ENV",
		"LLM_PROVIDER",
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
		"GEMINI_MODEL",
		"LLM_TEMPERATURE",
		"CLI_TEMPERATURE",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
