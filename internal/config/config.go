// Package config provides application configuration management.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Upper/lower bounds enforced by Validate, to prevent a malformed
// environment from producing a degenerate or resource-exhausting server.
const (
	maxBrowserPoolSize = 50
	minBrowserPoolSize = 1
	maxRequestTimeout  = 10 * time.Minute
	minRequestTimeout  = 1 * time.Second
)

// Config holds all application configuration. Every field is overridable
// via a PANTIN_* environment variable (see Load), matching the external
// configuration contract.
type Config struct {
	ServerHost string
	ServerPort int

	RequestTimeout time.Duration

	BrowserPoolMaxSize     int
	BrowserMaxAge          time.Duration
	BrowserMaxRecycleCount int64
	BrowserProgram         string

	LogLevel string
}

// Load reads configuration from PANTIN_* environment variables, falling
// back to the documented defaults for anything unset.
func Load() *Config {
	cfg := &Config{
		ServerHost: getEnvString("PANTIN_SERVER_HOST", "localhost"),
		ServerPort: getEnvInt("PANTIN_SERVER_PORT", 4242),

		RequestTimeout: getEnvDuration("PANTIN_REQUEST_TIMEOUT", 30*time.Second),

		BrowserPoolMaxSize:     getEnvInt("PANTIN_BROWSER_POOL_MAX_SIZE", 5),
		BrowserMaxAge:          getEnvDuration("PANTIN_BROWSER_MAX_AGE", 60*time.Second),
		BrowserMaxRecycleCount: int64(getEnvInt("PANTIN_BROWSER_MAX_RECYCLE_COUNT", 10)),
		BrowserProgram:         getEnvString("PANTIN_BROWSER_PROGRAM", "firefox"),

		LogLevel: getEnvString("PANTIN_LOG_LEVEL", "info"),
	}

	cfg.Validate()

	return cfg
}

// Validate clamps out-of-range values to their nearest bound, logging a
// warning for each adjustment, rather than panicking on a bad environment.
func (c *Config) Validate() {
	if c.BrowserPoolMaxSize < minBrowserPoolSize {
		log.Warn().Int("value", c.BrowserPoolMaxSize).Int("clamped_to", minBrowserPoolSize).
			Msg("PANTIN_BROWSER_POOL_MAX_SIZE below minimum, clamping")
		c.BrowserPoolMaxSize = minBrowserPoolSize
	}
	if c.BrowserPoolMaxSize > maxBrowserPoolSize {
		log.Warn().Int("value", c.BrowserPoolMaxSize).Int("clamped_to", maxBrowserPoolSize).
			Msg("PANTIN_BROWSER_POOL_MAX_SIZE above maximum, clamping")
		c.BrowserPoolMaxSize = maxBrowserPoolSize
	}

	if c.RequestTimeout < minRequestTimeout {
		log.Warn().Dur("value", c.RequestTimeout).Dur("clamped_to", minRequestTimeout).
			Msg("PANTIN_REQUEST_TIMEOUT below minimum, clamping")
		c.RequestTimeout = minRequestTimeout
	}
	if c.RequestTimeout > maxRequestTimeout {
		log.Warn().Dur("value", c.RequestTimeout).Dur("clamped_to", maxRequestTimeout).
			Msg("PANTIN_REQUEST_TIMEOUT above maximum, clamping")
		c.RequestTimeout = maxRequestTimeout
	}

	switch c.LogLevel {
	case "info", "debug", "trace":
	default:
		log.Warn().Str("value", c.LogLevel).Msg("PANTIN_LOG_LEVEL not one of info/debug/trace, defaulting to info")
		c.LogLevel = "info"
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			log.Warn().Str("key", key).Str("value", value).Err(err).Int("default", defaultValue).
				Msg("invalid integer in environment variable, using default")
			return defaultValue
		}
		return int(intValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			// PANTIN_REQUEST_TIMEOUT etc. are documented in plain seconds.
			if seconds, serr := strconv.Atoi(value); serr == nil {
				return time.Duration(seconds) * time.Second
			}
			log.Warn().Str("key", key).Str("value", value).Err(err).Dur("default", defaultValue).
				Msg("invalid duration in environment variable, using default")
			return defaultValue
		}
		return duration
	}
	return defaultValue
}
