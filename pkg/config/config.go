package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pustaka/pkg/client"
	"pustaka/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	JWTSecret          string
	CORSAllowedOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LoanPeriodDays    int
	MaxActiveLoans    int
	MaxRenewals       int
	RenewalWindowDays int
	FinePerDay        int
	LibraryTimezone   string
	LoanLockTTL       time.Duration

	KafkaEnabled       bool
	LoanEventsTopic    string
	LoanEventsDLQTopic string
	NotifierGroupID    string
	ReminderInterval   time.Duration

	GatewayBaseURL    string
	GatewayServerKey  string
	MinDonationAmount int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret:          getEnvStr(EnvJWTSecret, ""),
		CORSAllowedOrigins: splitList(getEnvStr(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins)),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		LoanPeriodDays:    getEnvNum(EnvLoanPeriodDays, DefaultLoanPeriodDays),
		MaxActiveLoans:    getEnvNum(EnvMaxActiveLoans, DefaultMaxActiveLoans),
		MaxRenewals:       getEnvNum(EnvMaxRenewals, DefaultMaxRenewals),
		RenewalWindowDays: getEnvNum(EnvRenewalWindowDays, DefaultRenewalWindowDays),
		FinePerDay:        getEnvNum(EnvFinePerDay, DefaultFinePerDay),
		LibraryTimezone:   getEnvStr(EnvLibraryTimezone, DefaultLibraryTimezone),
		LoanLockTTL:       getEnvDuration(EnvLoanLockTTL, DefaultLoanLockTTL),

		KafkaEnabled:       getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		LoanEventsTopic:    getEnvStr(EnvLoanEventsTopic, DefaultLoanEventsTopic),
		LoanEventsDLQTopic: getEnvStr(EnvLoanEventsDLQTopic, DefaultLoanEventsDLQTopic),
		NotifierGroupID:    getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),
		ReminderInterval:   getEnvDuration(EnvReminderInterval, DefaultReminderInterval),

		GatewayBaseURL:    getEnvStr(EnvGatewayBaseURL, DefaultGatewayBaseURL),
		GatewayServerKey:  getEnvStr(EnvGatewayServerKey, ""),
		MinDonationAmount: getEnvNum(EnvMinDonationAmount, DefaultMinDonationAmount),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// Location returns the library's time zone. Loan dates are normalized to
// midnight in this location. Validate guarantees it parses.
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.LibraryTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if len(cfg.JWTSecret) < 16 {
		errors = append(errors, "JWTSecret must be set and at least 16 characters long")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"LoanLockTTL", cfg.LoanLockTTL},
		{"ReminderInterval", cfg.ReminderInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.LoanPeriodDays <= 0 {
		errors = append(errors, fmt.Sprintf("LoanPeriodDays must be positive, got: %d", cfg.LoanPeriodDays))
	}
	if cfg.MaxActiveLoans <= 0 {
		errors = append(errors, fmt.Sprintf("MaxActiveLoans must be positive, got: %d", cfg.MaxActiveLoans))
	}
	if cfg.MaxRenewals < 0 {
		errors = append(errors, fmt.Sprintf("MaxRenewals cannot be negative, got: %d", cfg.MaxRenewals))
	}
	if cfg.RenewalWindowDays < 0 || cfg.RenewalWindowDays > cfg.LoanPeriodDays {
		errors = append(errors, fmt.Sprintf("RenewalWindowDays (%d) must be between 0 and LoanPeriodDays (%d)", cfg.RenewalWindowDays, cfg.LoanPeriodDays))
	}
	if cfg.FinePerDay < 0 {
		errors = append(errors, fmt.Sprintf("FinePerDay cannot be negative, got: %d", cfg.FinePerDay))
	}
	if _, err := time.LoadLocation(cfg.LibraryTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("LibraryTimezone must be a valid IANA zone, got: %s", cfg.LibraryTimezone))
	}

	if cfg.KafkaEnabled && cfg.LoanEventsTopic == "" {
		errors = append(errors, "LoanEventsTopic cannot be empty when Kafka is enabled")
	}
	if cfg.MinDonationAmount <= 0 {
		errors = append(errors, fmt.Sprintf("MinDonationAmount must be positive, got: %d", cfg.MinDonationAmount))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"cors_allowed_origins", cfg.CORSAllowedOrigins,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"loan_period_days", cfg.LoanPeriodDays,
		"max_active_loans", cfg.MaxActiveLoans,
		"max_renewals", cfg.MaxRenewals,
		"renewal_window_days", cfg.RenewalWindowDays,
		"fine_per_day", cfg.FinePerDay,
		"library_timezone", cfg.LibraryTimezone,
		"loan_lock_ttl", cfg.LoanLockTTL,
		"kafka_enabled", cfg.KafkaEnabled,
		"loan_events_topic", cfg.LoanEventsTopic,
		"reminder_interval", cfg.ReminderInterval,
		"gateway_base_url", cfg.GatewayBaseURL,
		"gateway_server_key_set", cfg.GatewayServerKey != "",
		"min_donation_amount", cfg.MinDonationAmount,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
