package main

import (
	loansrepo "pustaka/internal/loans/repository"
	"pustaka/internal/payments/gateway"
	"pustaka/internal/payments/handler"
	"pustaka/internal/payments/repository"
	"pustaka/internal/payments/service"
	"pustaka/internal/payments/validator"
	"pustaka/pkg/app"
	"pustaka/pkg/config"
)

const ServiceName = "payments"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.GatewayServerKey == "" {
		cfg.Log.Fatal("PAYMENT_GATEWAY_SERVER_KEY is required for the payments service")
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Payments service", "gateway", cfg.GatewayBaseURL)
	paymentService := initServices(cfg)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewPaymentHandler(paymentService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.PaymentService {
	loans := loansrepo.NewMongoLoanRepository(cfg)
	paymentService := service.NewPaymentService(
		repository.NewMongoPaymentRepository(cfg),
		loans,
		gateway.NewSnapClient(cfg.GatewayBaseURL, cfg.GatewayServerKey),
		service.NewSettlementHandler(loans, cfg.Log),
		validator.NewPaymentValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Payment service initialized", "database", cfg.MongoDatabaseName)
	return paymentService
}
