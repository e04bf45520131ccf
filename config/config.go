package config

import (
	"os"
	"strings"

	"github.com/pwojcik/flashgen-api/errs"
)

// Config holds all application configuration, assembled once at startup and
// injected into components. Nothing re-reads the environment after Load.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string

	CookieDomain   string
	CookieSecure   bool
	AllowedOrigins []string
}

// Load reads configuration from environment variables. Missing secrets fail
// fast with a descriptive error rather than surfacing per-request.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		Port:              getEnv("PORT", "8080"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
		CookieDomain:      os.Getenv("COOKIE_DOMAIN"),
	}

	// No cookie domain means local development
	cfg.CookieSecure = cfg.CookieDomain != ""
	if cfg.CookieDomain == "" {
		cfg.CookieDomain = "localhost"
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	if cfg.DatabaseURL == "" {
		return nil, &errs.ConfigurationError{Message: "DATABASE_URL is required"}
	}
	if cfg.JWTSecret == "" {
		return nil, &errs.ConfigurationError{Message: "JWT_SECRET is required"}
	}
	if cfg.OpenRouterAPIKey == "" {
		return nil, &errs.ConfigurationError{Message: "OPENROUTER_API_KEY is required"}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
