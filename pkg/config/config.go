// Package config loads the loader configuration from a YAML file, a .env file and the
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"press-transcripts/pkg/db"
)

// EnvPrefix prefixes every environment variable, e.g. PRESS_DATABASE_DSN.
const EnvPrefix = "PRESS_"

// Configuration validation errors.
var (
	ErrMissingDSN         = errors.New("database.dsn is required")
	ErrInvalidDriver      = errors.New("database.driver must be 'sqlite' or 'pgx'")
	ErrInvalidLockType    = errors.New("lock.backend must be 'memory' or 'redis'")
	ErrMissingRedisURL    = errors.New("redis.url is required for the redis lock backend")
	ErrInvalidWorkers     = errors.New("loader.workers must be at least 1")
	ErrInvalidTimezone    = errors.New("loader.timezone is not a known location")
	ErrMissingMongoURI    = errors.New("mongo.uri is required when mongo is enabled")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat   = errors.New("logging.format must be 'console' or 'json'")
	ErrMissingCategory    = errors.New("loader.category is required")
	ErrInvalidLockTTL     = errors.New("lock.ttl must be positive")
	ErrMissingTitlePrefix = errors.New("loader.title_prefix is required")
)

// Config is the complete configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Mongo    MongoConfig    `yaml:"mongo" envPrefix:"MONGO_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Lock     LockConfig     `yaml:"lock" envPrefix:"LOCK_"`
	Loader   LoaderConfig   `yaml:"loader" envPrefix:"LOADER_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOG_"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	Driver       string        `yaml:"driver" env:"DRIVER"`
	DSN          string        `yaml:"dsn" env:"DSN"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxIdle  time.Duration `yaml:"conn_max_idle" env:"CONN_MAX_IDLE"`
	ConnMaxLife  time.Duration `yaml:"conn_max_life" env:"CONN_MAX_LIFE"`
}

// SQLConfig converts to the db client configuration.
func (c DatabaseConfig) SQLConfig() db.SQLConfig {
	return db.SQLConfig{
		Driver:       c.Driver,
		DSN:          c.DSN,
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
		ConnMaxIdle:  c.ConnMaxIdle,
		ConnMaxLife:  c.ConnMaxLife,
	}
}

// MongoConfig configures publishing of conference snapshots.
type MongoConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLED"`
	URI        string `yaml:"uri" env:"URI"`
	Database   string `yaml:"database" env:"DATABASE"`
	Collection string `yaml:"collection" env:"COLLECTION"`
}

type RedisConfig struct {
	URL string `yaml:"url" env:"URL"`
}

// LockConfig selects how loads of the same conference are serialized.
type LockConfig struct {
	Backend string        `yaml:"backend" env:"BACKEND"`
	TTL     time.Duration `yaml:"ttl" env:"TTL"`
}

// LoaderConfig holds the parsing and batch settings.
type LoaderConfig struct {
	Category     string `yaml:"category" env:"CATEGORY"`
	Jurisdiction string `yaml:"jurisdiction" env:"JURISDICTION"`
	TitlePrefix  string `yaml:"title_prefix" env:"TITLE_PREFIX"`
	Timezone     string `yaml:"timezone" env:"TIMEZONE"`
	Workers      int    `yaml:"workers" env:"WORKERS"`
	DumpDir      string `yaml:"dump_dir" env:"DUMP_DIR"`
}

// Location returns the configured timezone.
func (c LoaderConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, c.Timezone)
	}
	return loc, nil
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       db.DriverSQLite,
			DSN:          "file:press.db?_pragma=foreign_keys(1)",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			ConnMaxIdle:  5 * time.Minute,
			ConnMaxLife:  time.Hour,
		},
		Mongo: MongoConfig{
			Database:   "press",
			Collection: "press_conferences",
		},
		Lock: LockConfig{
			Backend: "memory",
			TTL:     2 * time.Minute,
		},
		Loader: LoaderConfig{
			Category:     "bpk",
			Jurisdiction: "bund",
			TitlePrefix:  "Regierungspressekonferenz vom",
			Timezone:     "Europe/Berlin",
			Workers:      4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path (optional), then .env files (optional), then the environment.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Missing .env files are fine; variables already set win.
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", f, err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return ErrInvalidDriver
	}
	if c.Database.DSN == "" {
		return ErrMissingDSN
	}

	switch c.Lock.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return ErrMissingRedisURL
		}
	default:
		return ErrInvalidLockType
	}
	if c.Lock.TTL <= 0 {
		return ErrInvalidLockTTL
	}

	if c.Mongo.Enabled && c.Mongo.URI == "" {
		return ErrMissingMongoURI
	}

	if c.Loader.Category == "" {
		return ErrMissingCategory
	}
	if c.Loader.TitlePrefix == "" {
		return ErrMissingTitlePrefix
	}
	if c.Loader.Workers < 1 {
		return ErrInvalidWorkers
	}
	if _, err := c.Loader.Location(); err != nil {
		return err
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}
