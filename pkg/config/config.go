// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds the process settings.
type Config struct {
	Addr            string
	Store           string
	DatabaseURL     string
	RedisAddr       string
	RedisPrefix     string
	Seed            bool
	LogLevel        string
	OTELHost        string
	OTELProbability float64
	TLSCert         string
	TLSKey          string
	ShutdownTimeout time.Duration
}

// TLS reports whether both certificate and key are configured.
func (c Config) TLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Load reads the configuration using getenv, typically os.Getenv.
func Load(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Config{
		Addr:        orDefault(getenv("ADDR"), ":8080"),
		Store:       orDefault(getenv("STORE"), StoreMemory),
		DatabaseURL: getenv("DATABASE_URL"),
		RedisAddr:   getenv("REDIS_ADDR"),
		RedisPrefix: orDefault(getenv("REDIS_PREFIX"), "items"),
		LogLevel:    orDefault(getenv("LOG_LEVEL"), "info"),
		OTELHost:    getenv("OTEL_HOST"),
		TLSCert:     getenv("TLS_CERT"),
		TLSKey:      getenv("TLS_KEY"),
	}

	var err error
	if cfg.Seed, err = parseBool(getenv, "SEED", true); err != nil {
		return Config{}, err
	}
	if cfg.OTELProbability, err = parseFloat(getenv, "OTEL_PROBABILITY", 1.0); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDuration(getenv, "SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("STORE=postgres requires DATABASE_URL")
		}
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return Config{}, fmt.Errorf("STORE=redis requires REDIS_ADDR")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
	if cfg.OTELProbability < 0 || cfg.OTELProbability > 1 {
		return Config{}, fmt.Errorf("OTEL_PROBABILITY must be within [0,1], got %v", cfg.OTELProbability)
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseBool(getenv func(string) string, key string, def bool) (bool, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseFloat(getenv func(string) string, key string, def float64) (float64, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
