// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// devSecret signs tokens when the memory driver runs without JWT_SECRET.
const devSecret = "nexttrip-dev-secret"

// Config holds all configuration values for the API server and CLI.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StoreDriver selects the key-value backend: memory, sqlite, postgres or
	// redis. Defaults to sqlite.
	StoreDriver string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces Redis keys and the change channel so several
	// deployments can share one Redis. Defaults to "nexttrip:".
	KeyPrefix string

	// JWTSecret signs session tokens. Required unless StoreDriver is memory.
	JWTSecret string
	TokenTTL  time.Duration

	// SignInDelay simulates the latency of a remote auth call.
	SignInDelay time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	// MaxBodyBytes caps request bodies. Photo memories arrive as data URIs,
	// so the default is generous.
	MaxBodyBytes int64

	// StatusSweepSchedule is the cron spec for advancing trip statuses.
	StatusSweepSchedule string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that do not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SQLitePath:          getEnv("SQLITE_PATH", "nexttrip.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		KeyPrefix:           getEnv("KEY_PREFIX", "nexttrip:"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StatusSweepSchedule: getEnv("STATUS_SWEEP_SCHEDULE", "5 0 * * *"),
	}

	var missing, invalid []string
	p := parser{invalid: &invalid}
	cfg.RedisDB = p.int("REDIS_DB", 0)
	cfg.TokenTTL = p.duration("TOKEN_TTL", 24*time.Hour)
	cfg.SignInDelay = p.duration("SIGNIN_DELAY", time.Second)
	cfg.RateLimitRPS = p.float("RATE_LIMIT_RPS", 10)
	cfg.RateLimitBurst = p.int("RATE_LIMIT_BURST", 20)
	cfg.MaxBodyBytes = int64(p.int("MAX_BODY_BYTES", 8<<20))

	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite, DriverRedis:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		invalid = append(invalid, "STORE_DRIVER")
	}

	if cfg.JWTSecret == "" {
		if cfg.StoreDriver == DriverMemory {
			cfg.JWTSecret = devSecret
		} else {
			missing = append(missing, "JWT_SECRET")
		}
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", ")))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv reads variables from the given files (".env" when none are
// named) without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config.LoadDotEnv: %s: %w", path, err)
		}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level, falling back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parser reads typed optional variables, recording the names of any that
// are set but malformed.
type parser struct {
	invalid *[]string
}

func (p parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return n
}

func (p parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return f
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*p.invalid = append(*p.invalid, key)
		return fallback
	}
	return d
}
