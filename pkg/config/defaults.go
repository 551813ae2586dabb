package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "circdesk"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Circulation policy. The hold shelf window and the balance above which
	// a patron is blocked are configuration, not code.
	DefaultHoldExpiry        = 48 * time.Hour
	DefaultHoldSweepInterval = 5 * time.Minute
	DefaultBlockThreshold    = 0 // cents

	// Per-entity advisory locks: how long a lock may live before it is
	// considered abandoned, and how acquisition backs off before giving up
	// with a busy signal.
	DefaultLockTTL           = 10 * time.Second
	DefaultLockRetryAttempts = 5
	DefaultLockRetryBackoff  = 50 * time.Millisecond

	DefaultNotificationsTopic    = "circulation.notifications"
	DefaultNotificationsDLQTopic = "circulation.notifications.dlq"
	DefaultNotificationsGroupID  = "circdesk-notifier"

	DefaultLogLevel = "info"

	MaxPaginationLimit = 100
)
