// Package config loads runtime configuration from the process environment.
//
// A .env file in the working directory is loaded first (via godotenv) so
// local development needs no exported variables; real deployments set the
// environment directly and ship no .env file. Every setting has a
// local-development fallback — the server always starts, but Load reports
// whether the session secret fell back to the insecure default so main can
// log a warning.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the corresponding environment variable is unset.
const (
	DefaultPort          = 8080
	DefaultDBPath        = "data/screenroom.db"
	DefaultSessionTTL    = 24 // hours
	defaultSessionSecret = "dev-only-secret-change-me"
)

// Config holds every runtime setting the server needs.
type Config struct {
	Port          int
	DBPath        string
	SessionSecret string
	SessionTTL    int    // hours a login session stays valid
	BcryptCost    int    // 0 means the auth package's default
	RedisAddr     string // empty disables login rate limiting

	// DevSecret is true when SessionSecret is the built-in fallback.
	// main logs a warning so the default never sneaks into production silently.
	DevSecret bool
}

// SessionDuration returns the session TTL as a time.Duration.
func (c Config) SessionDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Hour
}

// Load reads the .env file (if present) and the environment, applying
// fallbacks for anything unset.
func Load() (Config, error) {
	// Ignore the error: a missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		Port:          DefaultPort,
		DBPath:        getEnv("DB_PATH", DefaultDBPath),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    DefaultSessionTTL,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = defaultSessionSecret
		cfg.DevSecret = true
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", DefaultPort); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getEnvInt("SESSION_TTL_HOURS", DefaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", 0); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}
