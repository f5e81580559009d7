package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultSessionSecret = "development-key"

type Config struct {
	Port          string
	Environment   string
	DatabaseURL   string
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool
	SeedDemoData  bool
	LogDir        string
	LogLevel      string

	GiteaURL          string
	GiteaClientID     string
	GiteaClientSecret string
	GiteaRedirectURL  string

	GoogleCredentials string
	GoogleSheetID     string

	SentryDSN string
}

func Load() (*Config, error) {
	godotenv.Load()

	sessionHours := parseInt(getEnv("SESSION_TTL_HOURS", ""), 24)
	if sessionHours <= 0 {
		sessionHours = 24
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       strings.ToLower(getEnv("APP_ENV", "development")),
		DatabaseURL:       getEnv("DATABASE_URL", "microcanvas.db"),
		SessionSecret:     getEnv("SESSION_SECRET", defaultSessionSecret),
		SessionTTL:        time.Duration(sessionHours) * time.Hour,
		SecureCookies:     parseBool(getEnv("SECURE_COOKIES", ""), false),
		SeedDemoData:      parseBool(getEnv("SEED_DEMO_DATA", ""), true),
		LogDir:            getEnv("LOG_DIR", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		GiteaURL:          strings.TrimRight(getEnv("GITEA_URL", ""), "/"),
		GiteaClientID:     getEnv("GITEA_CLIENT_ID", ""),
		GiteaClientSecret: getEnv("GITEA_CLIENT_SECRET", ""),
		GiteaRedirectURL:  getEnv("GITEA_REDIRECT_URL", ""),
		GoogleCredentials: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleSheetID:     getEnv("GOOGLE_SHEET_ID", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
	}

	if cfg.IsProduction() && cfg.SessionSecret == defaultSessionSecret {
		return nil, fmt.Errorf("SESSION_SECRET must be set in production")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GiteaEnabled reports whether Gitea sign-in is fully configured.
func (c *Config) GiteaEnabled() bool {
	return c.GiteaURL != "" && c.GiteaClientID != "" && c.GiteaClientSecret != "" && c.GiteaRedirectURL != ""
}

func (c *Config) SheetsEnabled() bool {
	return c.GoogleCredentials != "" && c.GoogleSheetID != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return fallback
}

func parseBool(s string, fallback bool) bool {
	if val, err := strconv.ParseBool(s); err == nil {
		return val
	}
	return fallback
}
