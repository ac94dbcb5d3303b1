package main

import (
	booksrepo "pustaka/internal/books/repository"
	"pustaka/internal/loans/handler"
	"pustaka/internal/loans/repository"
	"pustaka/internal/loans/service"
	"pustaka/internal/loans/validator"
	membersrepo "pustaka/internal/members/repository"
	"pustaka/pkg/app"
	"pustaka/pkg/config"
	"pustaka/pkg/kafka"
	kafka_config "pustaka/pkg/kafka/config"
)

const ServiceName = "loans"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Loans service")
	serverApp := app.NewApplication()

	events := initPublisher(cfg, serverApp)
	loanService := initServices(cfg, events)
	serverApp.SetApp(cfg, handler.NewLoanHandler(loanService, cfg.Log))
	serverApp.Run()
}

// initPublisher returns the loan event producer, or a no-op publisher when
// Kafka is disabled. Loan transitions never wait on the broker.
func initPublisher(cfg *config.Config, serverApp *app.Application) kafka.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Warn("Kafka disabled, loan events will not be published")
		return kafka.NopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	producer, err := kafka.NewProducer(kafkaCfg, cfg.LoanEventsTopic, cfg.LoanEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create loan event producer", "error", err)
	}
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close loan event producer", "error", err)
		}
	})

	cfg.Log.Info("Loan event producer ready", "topic", cfg.LoanEventsTopic, "brokers", kafkaCfg.Brokers)
	return producer
}

func initServices(cfg *config.Config, events kafka.Publisher) service.LoanService {
	loanService := service.NewLoanService(
		repository.NewMongoLoanRepository(cfg),
		repository.NewLoanLockRepository(cfg),
		booksrepo.NewMongoBookRepository(cfg),
		membersrepo.NewMongoMemberRepository(cfg),
		validator.NewLoanValidator(cfg.Log),
		events,
		cfg,
	)

	cfg.Log.Info("Loan service initialized",
		"database", cfg.MongoDatabaseName,
		"loan_period_days", cfg.LoanPeriodDays,
		"max_active_loans", cfg.MaxActiveLoans,
	)
	return loanService
}
