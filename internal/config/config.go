// Package config loads and validates application configuration from the
// environment and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Remote backends selectable with REMOTE_BACKEND.
const (
	BackendNone     = "none"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all configuration values for the API server.
// Values are populated by Load.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFormat is "json" (default) or "text" for coloured development output.
	LogFormat string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// DataDir holds the local document store. Defaults to "./data".
	DataDir string

	// RemoteBackend is one of none, postgres, redis. With none the trip
	// cannot be shared and works local-only.
	RemoteBackend string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// RedisURL is the Redis connection URL. Required for redis.
	RedisURL string

	Travellers            int
	SyncPushTimeout       time.Duration
	MaxCodeAttempts       int
	MaxBodyBytes          int64
	JoinAttemptsPerMinute int
}

var defaults = map[string]any{
	"port":                     "8080",
	"log_level":                "info",
	"log_format":               "json",
	"cors_origins":             "http://localhost:5173",
	"data_dir":                 "./data",
	"remote_backend":           BackendNone,
	"database_url":             "",
	"redis_url":                "",
	"travellers":               5,
	"sync_push_timeout":        "0s",
	"max_code_attempts":        10,
	"max_body_bytes":           1 << 20,
	"join_attempts_per_minute": 20,
}

// Load reads configuration and returns a Config. Environment variables
// (PORT, DATABASE_URL, ...) win over the YAML file named by CONFIG_FILE,
// which wins over defaults. Returns one error listing every problem found,
// including required variables that are not set.
func Load() (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:                  v.GetString("port"),
		LogLevel:              v.GetString("log_level"),
		LogFormat:             strings.ToLower(v.GetString("log_format")),
		CORSOrigins:           stringList(v, "cors_origins"),
		DataDir:               v.GetString("data_dir"),
		RemoteBackend:         strings.ToLower(v.GetString("remote_backend")),
		DatabaseURL:           v.GetString("database_url"),
		RedisURL:              v.GetString("redis_url"),
		Travellers:            v.GetInt("travellers"),
		SyncPushTimeout:       v.GetDuration("sync_push_timeout"),
		MaxCodeAttempts:       v.GetInt("max_code_attempts"),
		MaxBodyBytes:          v.GetInt64("max_body_bytes"),
		JoinAttemptsPerMinute: v.GetInt("join_attempts_per_minute"),
	}

	if problems := cfg.validate(); len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func (c Config) validate() []string {
	var problems, missing []string

	switch c.RemoteBackend {
	case BackendNone:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	default:
		problems = append(problems, fmt.Sprintf("REMOTE_BACKEND must be one of none, postgres, redis (got %q)", c.RemoteBackend))
	}
	if c.DataDir == "" {
		missing = append(missing, "DATA_DIR")
	}
	if len(missing) > 0 {
		problems = append([]string{"required environment variables not set: " + strings.Join(missing, ", ")}, problems...)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be json or text (got %q)", c.LogFormat))
	}
	if c.Travellers < 1 {
		problems = append(problems, "TRAVELLERS must be at least 1")
	}
	if c.MaxCodeAttempts < 1 {
		problems = append(problems, "MAX_CODE_ATTEMPTS must be at least 1")
	}
	if c.MaxBodyBytes < 1 {
		problems = append(problems, "MAX_BODY_BYTES must be positive")
	}
	if c.SyncPushTimeout < 0 {
		problems = append(problems, "SYNC_PUSH_TIMEOUT must not be negative")
	}
	return problems
}

// stringList accepts either a comma-separated string (environment) or a
// YAML list for key.
func stringList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		return splitCSV(s)
	}
	return v.GetStringSlice(key)
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
