package config

// Environment variable keys. Names match the ones the deployment already uses.
//
//nolint:gosec // Keys are not credentials.
const (
	// LINE (required)
	EnvLineChannelAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "LINE_CHANNEL_SECRET"

	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvTimezone        = "TIMEZONE"

	// Store
	EnvStoreDriver   = "STORE_DRIVER"
	EnvSQLitePath    = "SQLITE_PATH"
	EnvMongoURI      = "MONGO_URI"
	EnvMongoDatabase = "MONGO_DATABASE"

	// Webhook
	EnvWebhookTimeout = "WEBHOOK_TIMEOUT"
	EnvGlobalRateRPS  = "GLOBAL_RATE_RPS"

	// Reminder delivery endpoint
	EnvSendReminderToken = "SEND_REMINDER_TOKEN"

	// Metrics
	EnvMetricsUsername        = "METRICS_USERNAME"
	EnvMetricsPassword        = "METRICS_PASSWORD"
	EnvMetricsRefreshInterval = "METRICS_REFRESH_INTERVAL"

	// Sentry
	EnvSentryDSN         = "SENTRY_DSN"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Backups (S3-compatible, e.g. Cloudflare R2)
	EnvBackupEndpoint        = "BACKUP_ENDPOINT"
	EnvBackupAccessKeyID     = "BACKUP_ACCESS_KEY_ID"
	EnvBackupSecretAccessKey = "BACKUP_SECRET_ACCESS_KEY"
	EnvBackupBucket          = "BACKUP_BUCKET"
	EnvBackupKey             = "BACKUP_KEY"
	EnvBackupInterval        = "BACKUP_INTERVAL"
)
