package app

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	SigningKey []byte // Required: HS512 signing key, base64-encoded in the environment

	Issuer         string        // Optional: issuer claim for tokens (default: veil)
	AccessTokenTTL time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL     time.Duration // Optional: refresh token lifetime (default: 168h)

	DatabaseFile  string // Optional: path to SQLite database file (default: ./veil.db)
	PepperFile    string // Optional: path to file containing the identity hash pepper (default: ./pepper)
	RedisAddr     string // Optional: Redis address; empty falls back to the in-memory session store
	RedisPassword string // Optional: Redis password
	RedisDB       int    // Optional: Redis database number (default: 0)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads configuration from the environment. The signing key is
// the one hard requirement: a missing or undecodable key is a startup
// failure, never something to limp past.
func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:              getEnvOrDefault("VEIL_ISSUER", "veil"),
		AccessTokenTTL:      getEnvDurationOrDefault("VEIL_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:          getEnvDurationOrDefault("VEIL_REFRESH_TOKEN_TTL", 168*time.Hour),
		DatabaseFile:        getEnvOrDefault("VEIL_DATABASE_FILE", "veil.db"),
		PepperFile:          getEnvOrDefault("VEIL_PEPPER_FILE", "pepper"),
		RedisAddr:           os.Getenv("VEIL_REDIS_ADDR"),
		RedisPassword:       os.Getenv("VEIL_REDIS_PASSWORD"),
		RedisDB:             getEnvIntOrDefault("VEIL_REDIS_DB", 0),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	encoded := os.Getenv("VEIL_SIGNING_KEY")
	if encoded == "" {
		return Config{}, fmt.Errorf("VEIL_SIGNING_KEY is required")
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Config{}, fmt.Errorf("decoding VEIL_SIGNING_KEY: %w", err)
	}
	cfg.SigningKey = key

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
