package util

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string        `validate:"required,number"`
	InactivityTimeout time.Duration `validate:"required"`
	CleanupInterval   time.Duration `validate:"required"`
}

const (
	defaultPort              = "8080"
	defaultInactivityTimeout = "5m"
	defaultCleanupInterval   = "1m"
)

// LoadConfig reads configuration from the environment, with a .env file as a
// fallback source. Every knob has a default so the server starts with no
// environment at all.
func LoadConfig() (*Config, error) {
	godotenv.Load()

	timeout, err := time.ParseDuration(envOr("INACTIVITY_TIMEOUT", defaultInactivityTimeout))
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(envOr("CLEANUP_INTERVAL", defaultCleanupInterval))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Port:              envOr("PORT", defaultPort),
		InactivityTimeout: timeout,
		CleanupInterval:   interval,
	}

	if err := Validate.Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
