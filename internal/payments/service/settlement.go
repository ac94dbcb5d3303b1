package service

import (
	"context"
	"fmt"

	"pustaka/internal/payments/gateway"
	"pustaka/pkg/logger"
	"pustaka/pkg/model"
)

// SettlementHandler applies payment outcomes to the rest of the library:
// a paid fine marks its loan settled. Other outcomes are recorded only.
type SettlementHandler struct {
	loans LoanFines
	log   *logger.Logger
}

func NewSettlementHandler(loans LoanFines, log *logger.Logger) *SettlementHandler {
	return &SettlementHandler{loans: loans, log: log}
}

func (h *SettlementHandler) Succeeded(ctx context.Context, result gateway.Result, payment *model.Payment) error {
	if payment.Kind == model.PaymentKindFine && payment.LoanID != "" {
		if err := h.loans.MarkFinePaid(ctx, payment.LoanID); err != nil {
			return fmt.Errorf("mark fine paid for loan %s: %w", payment.LoanID, err)
		}
	}
	h.log.Info("Payment succeeded", "order_id", payment.OrderID, "kind", payment.Kind, "amount", payment.Amount)
	return nil
}

func (h *SettlementHandler) Pending(ctx context.Context, result gateway.Result, payment *model.Payment) error {
	h.log.Info("Payment pending", "order_id", payment.OrderID, "transaction_status", result.GatewayStatus, "fraud_status", result.FraudStatus)
	return nil
}

func (h *SettlementHandler) Failed(ctx context.Context, result gateway.Result, payment *model.Payment) error {
	h.log.Warn("Payment failed", "order_id", payment.OrderID, "kind", payment.Kind, "transaction_status", result.GatewayStatus)
	return nil
}

func (h *SettlementHandler) Cancelled(ctx context.Context, result gateway.Result, payment *model.Payment) error {
	h.log.Info("Payment cancelled", "order_id", payment.OrderID, "kind", payment.Kind)
	return nil
}
