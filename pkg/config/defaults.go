package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "pustaka"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultCORSAllowedOrigins = "http://localhost:3000"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLoanPeriodDays    = 5
	DefaultMaxActiveLoans    = 3
	DefaultMaxRenewals       = 2
	DefaultRenewalWindowDays = 2
	DefaultFinePerDay        = 5000
	DefaultLibraryTimezone   = "Asia/Jakarta"
	DefaultLoanLockTTL       = 10 * time.Second

	DefaultKafkaEnabled       = false
	DefaultLoanEventsTopic    = "loan-events"
	DefaultLoanEventsDLQTopic = "loan-events-dlq"
	DefaultNotifierGroupID    = "notifier"
	DefaultReminderInterval   = 1 * time.Hour

	DefaultGatewayBaseURL    = "https://app.sandbox.midtrans.com"
	DefaultMinDonationAmount = 10000

	DefaultPaginationLimit = 100
)
