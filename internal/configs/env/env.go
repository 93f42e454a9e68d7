// Package env reads configuration values from the process environment,
// optionally seeded from a .env file. Unset or malformed values fall
// back to the given default.
package env

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// LoadEnv seeds the process environment from .env when one exists.
func LoadEnv() error {
	return godotenv.Load()
}

func GetEnv(key, fallback string) string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	return raw
}

func GetEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		warnMalformed(key, raw, err)
		return fallback
	}
	return n
}

func GetEnvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		warnMalformed(key, raw, err)
		return fallback
	}
	return f
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		warnMalformed(key, raw, err)
		return fallback
	}
	return d
}

func warnMalformed(key, raw string, err error) {
	log.Warn().Err(err).Str("key", key).Str("value", raw).Msg("Malformed environment value, using default")
}
