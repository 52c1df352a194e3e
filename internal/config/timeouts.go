// Timeout and interval constants.
//
// LINE expects the webhook to be acknowledged quickly; the reply token stays
// valid long enough for dispatch to finish on a detached goroutine.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing bounds the dispatch of a single event, including
	// store reads/writes and the reply call.
	WebhookProcessing = 30 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout. LINE payloads are small.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the keep-alive idle timeout.
	WebhookHTTPIdle = 120 * time.Second
)

// Delivery timeouts
const (
	// PushRequest bounds a single /send-reminder push.
	PushRequest = 10 * time.Second
)

// Store timeouts
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	// DatabaseConnMaxLifetime recycles pooled SQLite connections.
	DatabaseConnMaxLifetime = time.Hour

	// MongoConnect bounds the initial connect and ping.
	MongoConnect = 10 * time.Second

	// AccountLookup bounds a coalesced account lookup. It is detached from
	// the callers' contexts, so it needs a limit of its own.
	AccountLookup = 10 * time.Second

	// ReadinessPing bounds the store ping done by /readyz.
	ReadinessPing = 2 * time.Second
)

// Background job intervals
const (
	// MetricsRefreshInterval is how often store gauges are refreshed.
	MetricsRefreshInterval = 5 * time.Minute

	// BackupInterval is the default interval between SQLite backups.
	BackupInterval = 6 * time.Hour

	// BackupTimeout bounds one snapshot+compress+upload cycle.
	BackupTimeout = 5 * time.Minute
)

// GracefulShutdown is the default timeout for graceful server shutdown.
const GracefulShutdown = 30 * time.Second
