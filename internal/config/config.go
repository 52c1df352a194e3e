// Package config loads application configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // containers may ship without a zone database

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverMongo  = "mongo"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	Timezone        string

	// Store Configuration
	StoreDriver   string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string

	// SendReminderToken, when set, must be presented as a bearer token on /send-reminder.
	SendReminderToken string

	// Metrics Authentication (empty password = no auth)
	MetricsUsername        string
	MetricsPassword        string
	MetricsRefreshInterval time.Duration

	// Sentry (empty DSN = disabled)
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack (empty token = disabled)
	BetterStackToken    string
	BetterStackEndpoint string

	Backup BackupConfig

	Bot BotConfig
}

// BackupConfig configures periodic SQLite uploads to S3-compatible storage.
type BackupConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Key             string
	Interval        time.Duration
}

// Enabled reports whether all credentials are present.
func (b BackupConfig) Enabled() bool {
	return b.Endpoint != "" && b.AccessKeyID != "" && b.SecretAccessKey != "" && b.Bucket != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	bot := DefaultBotConfig()
	bot.WebhookTimeout = getDurationEnv(EnvWebhookTimeout, bot.WebhookTimeout)
	bot.GlobalRateRPS = getFloatEnv(EnvGlobalRateRPS, bot.GlobalRateRPS)

	cfg := &Config{
		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),

		Port:            getEnv(EnvPort, "3000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		Timezone:        getEnv(EnvTimezone, "Asia/Taipei"),

		StoreDriver:   strings.ToLower(getEnv(EnvStoreDriver, StoreDriverSQLite)),
		SQLitePath:    getEnv(EnvSQLitePath, "data/medreminder.db"),
		MongoURI:      getEnv(EnvMongoURI, ""),
		MongoDatabase: getEnv(EnvMongoDatabase, "medreminder"),

		SendReminderToken: getEnv(EnvSendReminderToken, ""),

		MetricsUsername:        getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword:        getEnv(EnvMetricsPassword, ""),
		MetricsRefreshInterval: getDurationEnv(EnvMetricsRefreshInterval, MetricsRefreshInterval),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		Backup: BackupConfig{
			Endpoint:        getEnv(EnvBackupEndpoint, ""),
			AccessKeyID:     getEnv(EnvBackupAccessKeyID, ""),
			SecretAccessKey: getEnv(EnvBackupSecretAccessKey, ""),
			Bucket:          getEnv(EnvBackupBucket, ""),
			Key:             getEnv(EnvBackupKey, "backups/medreminder.db.zst"),
			Interval:        getDurationEnv(EnvBackupInterval, BackupInterval),
		},

		Bot: bot,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks required values and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelAccessToken))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelSecret))
	}
	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	switch c.StoreDriver {
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("%s is required for the sqlite driver", EnvSQLitePath))
		}
	case StoreDriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, fmt.Errorf("%s is required for the mongo driver", EnvMongoURI))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", EnvStoreDriver, StoreDriverSQLite, StoreDriverMongo, c.StoreDriver))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvTimezone, err))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}
	if c.MetricsRefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvMetricsRefreshInterval, c.MetricsRefreshInterval))
	}
	if c.Backup.Enabled() && c.Backup.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvBackupInterval, c.Backup.Interval))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}

	return errors.Join(errs...)
}

// Location returns the configured time zone. Validate guarantees it loads;
// UTC+8 is used if the zone database is missing at runtime.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone(c.Timezone, 8*60*60)
	}
	return loc
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
