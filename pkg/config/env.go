package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret          = "JWT_SECRET"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLoanPeriodDays    = "LOAN_PERIOD_DAYS"
	EnvMaxActiveLoans    = "MAX_ACTIVE_LOANS"
	EnvMaxRenewals       = "MAX_RENEWALS"
	EnvRenewalWindowDays = "RENEWAL_WINDOW_DAYS"
	EnvFinePerDay        = "FINE_PER_DAY"
	EnvLibraryTimezone   = "LIBRARY_TIMEZONE"
	EnvLoanLockTTL       = "LOAN_LOCK_TTL"

	EnvKafkaEnabled       = "KAFKA_ENABLED"
	EnvLoanEventsTopic    = "LOAN_EVENTS_TOPIC"
	EnvLoanEventsDLQTopic = "LOAN_EVENTS_DLQ_TOPIC"
	EnvNotifierGroupID    = "NOTIFIER_GROUP_ID"
	EnvReminderInterval   = "REMINDER_INTERVAL"

	EnvGatewayBaseURL    = "PAYMENT_GATEWAY_BASE_URL"
	EnvGatewayServerKey  = "PAYMENT_GATEWAY_SERVER_KEY"
	EnvMinDonationAmount = "MIN_DONATION_AMOUNT"
)
