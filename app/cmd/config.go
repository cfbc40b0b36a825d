package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/devshark/starkbank/api"
	"github.com/devshark/starkbank/pkg/env"
)

type DbConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSL      bool
}

func (c DbConfig) ConnectionString() string {
	sslMode := "disable"
	if c.SSL {
		sslMode = "require"
	}

	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Database, sslMode)
}

type RedisConfig struct {
	Addr       string
	Expiration time.Duration
}

type Config struct {
	apiURL        string
	accessID      string
	httpTimeout   time.Duration
	maxAttempts   int
	logLevel      string
	metricsAddr   string
	migrationPath string
	archiveAfter  api.Date
	archiveLimit  int
	archiveTypes  []api.TransferLogType
	interval      time.Duration
	redis         RedisConfig
	postgres      DbConfig
}

func NewConfig() *Config {
	return &Config{
		apiURL:        env.GetEnv("BANK_API_URL", api.SandboxURL),
		accessID:      env.RequireEnv("BANK_ACCESS_ID"),
		httpTimeout:   env.GetEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		maxAttempts:   env.GetEnvInt("HTTP_MAX_ATTEMPTS", 3),
		logLevel:      env.GetEnv("LOG_LEVEL", "info"),
		metricsAddr:   env.GetEnv("METRICS_ADDR", ""),
		migrationPath: env.GetEnv("MIGRATION_PATH", "migrations"),
		archiveAfter:  api.Date(env.GetEnv("ARCHIVE_AFTER", "")),
		archiveLimit:  env.GetEnvInt("ARCHIVE_LIMIT", 0),
		archiveTypes:  logTypes(env.GetEnvValues("ARCHIVE_TYPES")),
		interval:      env.GetEnvDuration("ARCHIVE_INTERVAL", 0),
		redis: RedisConfig{
			Addr:       env.GetEnv("REDIS_ADDR", ""),
			Expiration: env.GetEnvDuration("REDIS_EXPIRATION", 24*time.Hour),
		},
		postgres: DbConfig{
			Host:     env.RequireEnv("POSTGRES_HOST"),
			Port:     env.RequireEnv("POSTGRES_PORT"),
			User:     env.RequireEnv("POSTGRES_USER"),
			Password: env.RequireEnv("POSTGRES_PASSWORD"),
			Database: env.RequireEnv("POSTGRES_DATABASE"),
			SSL:      env.GetEnvBool("POSTGRES_SSL", false),
		},
	}
}

var errLimitWithInterval = errors.New("ARCHIVE_LIMIT cannot be combined with ARCHIVE_INTERVAL")

// validate rejects settings that would keep a scheduled archive from making progress.
// A run stopped by ARCHIVE_LIMIT never advances the checkpoint, so repeating it
// on every tick would fetch the same newest logs forever.
func (c *Config) validate() error {
	if c.interval > 0 && c.archiveLimit > 0 {
		return errLimitWithInterval
	}

	return nil
}

// limit is nil when ARCHIVE_LIMIT is unset or not positive.
func (c *Config) limit() *int {
	if c.archiveLimit <= 0 {
		return nil
	}

	return api.Limit(c.archiveLimit)
}

func logTypes(values []string) []api.TransferLogType {
	types := make([]api.TransferLogType, 0, len(values))
	for _, value := range values {
		types = append(types, api.TransferLogType(value))
	}

	return types
}
