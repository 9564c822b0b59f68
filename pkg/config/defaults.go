package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "gatherly"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMongoTransactions = true

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCurrency            = "usd"
	DefaultGatewayTimeout      = 10 * time.Second
	DefaultGatewayMaxRetries   = 3
	DefaultGatewayRetryBackoff = 200 * time.Millisecond

	DefaultEventLockTTL  = 10 * time.Second
	DefaultEventLockWait = 5 * time.Second

	DefaultKafkaEnabled       = false
	DefaultBookingEventsTopic = "bookings.events"
	DefaultBookingEventsDLQ   = "dlq-bookings"
	DefaultReviewEventsTopic  = "reviews.events"
	DefaultReviewEventsDLQ    = "dlq-reviews"
	DefaultRatingsGroupID     = "ratings-aggregator"

	DefaultPaginationLimit = 10
	MaxPaginationLimit     = 100
)
