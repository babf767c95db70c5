package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, sourced from the environment with an
// optional .env file for local development.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// JWTSecret signs bearer tokens. Required outside of tests.
	JWTSecret string

	// BaseURL is the frontend origin used in invitation links.
	BaseURL string

	// Postmark invitation mail settings. Mail is disabled when the token
	// is empty.
	PostmarkToken string
	MailFrom      string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:          getenv("RENTMATE_PORT", "8080"),
		DBPath:        getenv("RENTMATE_DB_PATH", "rentmate.db"),
		LogLevel:      getenv("RENTMATE_LOG_LEVEL", "info"),
		LogFormat:     getenv("RENTMATE_LOG_FORMAT", "text"),
		JWTSecret:     os.Getenv("RENTMATE_JWT_SECRET"),
		BaseURL:       getenv("RENTMATE_BASE_URL", "http://localhost:3000"),
		PostmarkToken: os.Getenv("RENTMATE_POSTMARK_TOKEN"),
		MailFrom:      getenv("RENTMATE_MAIL_FROM", "noreply@rentmate.local"),
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("RENTMATE_JWT_SECRET is required")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
