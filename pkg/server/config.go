package server

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable this server reads at startup: the CLI port
// argument, the DB_* environment contract, and an ambient TOML file for
// operational tunables the wire protocol itself has no opinion about.
type Config struct {
	Port int

	DB DBConfig

	WorkerPoolSize      int
	MaxConnectionsPerIP int
	MessageRateLimit    int
	ResyncMaxMismatches int
}

// DBConfig mirrors the DB_HOST/DB_USER/DB_PASSWORD/DB_NAME/DB_PORT
// environment variables read by the original's main().
type DBConfig struct {
	Host     string
	User     string
	Password string
	Database string
	Port     int
}

// DefaultConfig returns the baseline configuration before any TOML file or
// environment overrides are applied.
func DefaultConfig() Config {
	return Config{
		Port: 8888,
		DB: DBConfig{
			Host:     "127.0.0.1",
			User:     "root",
			Password: "",
			Database: "im_server",
			Port:     3306,
		},
		WorkerPoolSize:      0, // 0 => runtime.NumCPU()
		MaxConnectionsPerIP: 10,
		MessageRateLimit:    10,
		ResyncMaxMismatches: 10,
	}
}

// tomlConfig is the on-disk shape of the ambient config file.
type tomlConfig struct {
	Server ServerSection `toml:"server"`
	Limits LimitsSection `toml:"limits"`
}

// ServerSection holds tunables with no dedicated CLI flag or env var.
type ServerSection struct {
	WorkerPoolSize int `toml:"worker_pool_size"`
}

// LimitsSection holds the advisory connection/rate limits and the decoder's
// resync limit, which is enforced.
type LimitsSection struct {
	MaxConnectionsPerIP int `toml:"max_connections_per_ip"`
	MessageRateLimit    int `toml:"message_rate_limit"`
	ResyncMaxMismatches int `toml:"resync_max_mismatches"`
}

// LoadConfig builds the full Config: defaults, overridden by an optional
// TOML file at path (silently skipped if absent), overridden by
// IMSERVER_SECTION_KEY environment variables, overridden by the port
// argument and DB_* environment variables (which always win, matching
// main.cpp's precedence).
func LoadConfig(path string, portArg *int) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var t tomlConfig
			if _, err := toml.DecodeFile(path, &t); err != nil {
				return Config{}, fmt.Errorf("server: parse config file: %w", err)
			}
			if t.Server.WorkerPoolSize != 0 {
				cfg.WorkerPoolSize = t.Server.WorkerPoolSize
			}
			if t.Limits.MaxConnectionsPerIP != 0 {
				cfg.MaxConnectionsPerIP = t.Limits.MaxConnectionsPerIP
			}
			if t.Limits.MessageRateLimit != 0 {
				cfg.MessageRateLimit = t.Limits.MessageRateLimit
			}
			if t.Limits.ResyncMaxMismatches != 0 {
				cfg.ResyncMaxMismatches = t.Limits.ResyncMaxMismatches
			}
		}
	}

	applyEnvInt("IMSERVER_SERVER_WORKER_POOL_SIZE", &cfg.WorkerPoolSize)
	applyEnvInt("IMSERVER_LIMITS_MAX_CONNECTIONS_PER_IP", &cfg.MaxConnectionsPerIP)
	applyEnvInt("IMSERVER_LIMITS_MESSAGE_RATE_LIMIT", &cfg.MessageRateLimit)
	applyEnvInt("IMSERVER_LIMITS_RESYNC_MAX_MISMATCHES", &cfg.ResyncMaxMismatches)

	cfg.DB.Host = envOrDefault("DB_HOST", cfg.DB.Host)
	cfg.DB.User = envOrDefault("DB_USER", cfg.DB.User)
	cfg.DB.Password = envOrDefault("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Database = envOrDefault("DB_NAME", cfg.DB.Database)
	applyEnvInt("DB_PORT", &cfg.DB.Port)

	if portArg != nil {
		cfg.Port = *portArg
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func applyEnvInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
