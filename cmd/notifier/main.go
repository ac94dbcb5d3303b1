package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	loansrepo "pustaka/internal/loans/repository"
	"pustaka/internal/notifications/handler"
	"pustaka/internal/notifications/repository"
	"pustaka/internal/notifications/service"
	"pustaka/pkg/app"
	"pustaka/pkg/config"
	"pustaka/pkg/kafka"
	kafka_config "pustaka/pkg/kafka/config"

	"golang.org/x/sync/errgroup"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting Notifier service")
	notificationService := service.NewNotificationService(
		repository.NewMongoNotificationRepository(cfg),
		loansrepo.NewMongoLoanRepository(cfg),
		cfg,
	)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewNotificationHandler(notificationService, cfg.Log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		serverApp.Run()
		return nil
	})
	g.Go(func() error {
		return service.RunReminders(gctx, notificationService, cfg.ReminderInterval, cfg.Log)
	})
	if consumer := initConsumer(cfg, notificationService); consumer != nil {
		g.Go(func() error {
			if err := consumer.Start(gctx); err != nil && !errors.Is(err, kafka.ErrConsumerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return consumer.Close()
		})
	}

	if err := g.Wait(); err != nil {
		cfg.Log.Error("Notifier stopped with error", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}

func initConsumer(cfg *config.Config, svc service.NotificationService) *kafka.Consumer {
	if !cfg.KafkaEnabled {
		cfg.Log.Warn("Kafka disabled, only reminders will be delivered")
		return nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.LoanEventsTopic, cfg.NotifierGroupID, cfg.LoanEventsDLQTopic, svc.HandleLoanEvent, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create loan event consumer", "error", err)
	}

	cfg.Log.Info("Loan event consumer ready", "topic", cfg.LoanEventsTopic, "group_id", cfg.NotifierGroupID)
	return consumer
}
