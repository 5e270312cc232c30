// Package config provides configuration management for the Tonearm server.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/prn-tf/tonearm/internal/pkg/crypto"
)

// Isolation level names accepted in configuration.
const (
	IsolationSerializable    = "serializable"
	IsolationRepeatableRead  = "repeatable_read"
	IsolationReadCommitted   = "read_committed"
	IsolationReadUncommitted = "read_uncommitted"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database connection settings.
// Supports both PostgreSQL and SQLite backends.
type DatabaseConfig struct {
	// Driver specifies the database driver: "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`

	// PostgreSQL settings (used when Driver is "postgres")
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// SQLite settings (used when Driver is "sqlite")
	Path            string `mapstructure:"path"`             // Path to SQLite database file
	JournalMode     string `mapstructure:"journal_mode"`     // WAL, DELETE, TRUNCATE, etc.
	BusyTimeout     int    `mapstructure:"busy_timeout"`     // Milliseconds to wait for locks
	SynchronousMode string `mapstructure:"synchronous_mode"` // NORMAL, FULL, OFF

	// DefaultIsolation is the isolation level of every unit of work that
	// does not ask for something else.
	DefaultIsolation string `mapstructure:"default_isolation"`

	// AggregateIsolation is the isolation level of the album rating
	// aggregate read. Defaults to read_uncommitted.
	AggregateIsolation string `mapstructure:"aggregate_isolation"`

	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Only valid when Driver is "postgres".
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// IsEmbedded returns true if using an embedded database (SQLite).
func (c DatabaseConfig) IsEmbedded() bool {
	return c.Driver == "sqlite"
}

// SessionConfig holds the signed session cookie settings.
type SessionConfig struct {
	// CookieName is the name of the session cookie.
	CookieName string `mapstructure:"cookie_name"`

	// HashKey is the hex-encoded HMAC key (32 or 64 bytes) used to sign the cookie.
	// A random key is generated at start-up when empty.
	HashKey string `mapstructure:"hash_key"`

	// BlockKey is the optional hex-encoded AES key (16, 24 or 32 bytes) used
	// to encrypt the cookie value.
	BlockKey string `mapstructure:"block_key"`

	// MaxAge is the cookie lifetime.
	MaxAge time.Duration `mapstructure:"max_age"`

	// Secure marks the cookie as HTTPS only.
	Secure bool `mapstructure:"secure"`
}

// Keys decodes the configured hash and block keys and checks their sizes.
// Empty values decode to nil.
func (c SessionConfig) Keys() (hashKey, blockKey []byte, err error) {
	if c.HashKey != "" {
		if hashKey, err = crypto.ParseHexKey(c.HashKey, 32, 64); err != nil {
			return nil, nil, fmt.Errorf("session.hash_key: %w", err)
		}
	}
	if c.BlockKey != "" {
		if blockKey, err = crypto.ParseHexKey(c.BlockKey, 16, 24, 32); err != nil {
			return nil, nil, fmt.Errorf("session.block_key: %w", err)
		}
	}
	return hashKey, blockKey, nil
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if metrics collection is active.
	Enabled bool `mapstructure:"enabled"`

	// Path is the URL path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with TONEARM_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TONEARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tonearm")
	}

	// Config file is optional; defaults and env vars are enough.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tonearm")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "tonearm")
	v.SetDefault("database.ssl_mode", "prefer")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("database.path", "./data/tonearm.db")
	v.SetDefault("database.journal_mode", "WAL")
	v.SetDefault("database.busy_timeout", 5000)
	v.SetDefault("database.synchronous_mode", "NORMAL")
	v.SetDefault("database.default_isolation", IsolationSerializable)
	v.SetDefault("database.aggregate_isolation", IsolationReadUncommitted)
	v.SetDefault("database.auto_migrate", true)

	// Session defaults
	v.SetDefault("session.cookie_name", "tonearm_session")
	v.SetDefault("session.hash_key", "")
	v.SetDefault("session.block_key", "")
	v.SetDefault("session.max_age", 7*24*time.Hour)
	v.SetDefault("session.secure", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	validDrivers := map[string]bool{"postgres": true, "sqlite": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite'")
	}

	if c.Database.Driver == "postgres" {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for postgres driver")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required for postgres driver")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres driver")
		}
	} else if c.Database.Path == "" {
		return fmt.Errorf("database.path is required for sqlite driver")
	}

	validIsolation := map[string]bool{
		IsolationSerializable: true, IsolationRepeatableRead: true,
		IsolationReadCommitted: true, IsolationReadUncommitted: true,
	}
	if !validIsolation[c.Database.DefaultIsolation] {
		return fmt.Errorf("database.default_isolation must be one of: serializable, repeatable_read, read_committed, read_uncommitted")
	}
	if !validIsolation[c.Database.AggregateIsolation] {
		return fmt.Errorf("database.aggregate_isolation must be one of: serializable, repeatable_read, read_committed, read_uncommitted")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	if _, _, err := c.Session.Keys(); err != nil {
		return err
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
