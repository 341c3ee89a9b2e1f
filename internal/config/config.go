package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the scoutpool client.
type Config struct {
	APIURL    string // Base URL of the carpool REST API
	WSURL     string // URL of the realtime gateway
	ConfigDir string // Directory where the session cookie is persisted
	Env       string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:    getEnv("SCOUTPOOL_API_URL", "http://localhost:5000"),
		WSURL:     getEnv("SCOUTPOOL_WS_URL", "ws://localhost:5000/ws"),
		ConfigDir: os.Getenv("SCOUTPOOL_CONFIG"),
		Env:       getEnv("ENV", "development"),
	}

	if cfg.ConfigDir == "" {
		home, _ := os.UserHomeDir()
		cfg.ConfigDir = filepath.Join(home, ".scoutpool")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
