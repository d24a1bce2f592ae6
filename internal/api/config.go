package api

import (
	"fmt"
	"os"
	"time"
)

// Config holds the backend connection settings.
type Config struct {
	// BaseURL is the root of the question-serving API.
	BaseURL string

	// Token is the bearer token carried on every call.
	Token string

	// Timeout bounds a single HTTP round trip. Default: 30s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.prepdeck.app/v1",
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("PREPDECK_API_URL"); u != "" {
		cfg.BaseURL = u
	}
	if t := os.Getenv("PREPDECK_API_TOKEN"); t != "" {
		cfg.Token = t
	}
	if d := os.Getenv("PREPDECK_API_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil && parsed > 0 {
			cfg.Timeout = parsed
		}
	}

	return cfg
}

// Validate checks that the config can authenticate.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	if c.Token == "" {
		return fmt.Errorf("PREPDECK_API_TOKEN is required")
	}
	return nil
}
