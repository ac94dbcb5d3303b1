package service

import (
	"context"
	"time"

	"pustaka/pkg/logger"
)

// RunReminders sweeps once immediately and then on every tick until ctx
// is cancelled. A failed sweep is logged and retried on the next tick.
func RunReminders(ctx context.Context, svc NotificationService, interval time.Duration, log *logger.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := svc.SendReminders(ctx); err != nil && ctx.Err() == nil {
			log.Error("Reminder sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			log.Info("Reminder worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}
