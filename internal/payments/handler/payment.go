package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"pustaka/internal/payments/gateway"
	"pustaka/internal/payments/service"
	"pustaka/pkg/auth"
	"pustaka/pkg/contracts"
	httputil "pustaka/pkg/http"
	"pustaka/pkg/logger"
	"pustaka/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) CheckoutFine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.Require(r.Context())
	if err != nil {
		h.writeError(w, "CheckoutFine", err)
		return
	}

	var req model.FineCheckoutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CheckoutFine", err)
		return
	}

	checkout, err := h.service.CheckoutFine(r.Context(), caller, &req)
	if err != nil {
		h.writeError(w, "CheckoutFine", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusCreated, "Fine checkout opened", checkout); err != nil {
		h.log.Error("failed to write action response", "handler", "CheckoutFine", "operation", "WriteAction", "error", err)
	}
}

// Donate is open to anonymous visitors; a signed-in caller is recorded.
func (h *PaymentHandler) Donate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, _ := auth.FromContext(r.Context())

	var req model.DonationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Donate", err)
		return
	}

	checkout, err := h.service.Donate(r.Context(), caller, &req)
	if err != nil {
		h.writeError(w, "Donate", err)
		return
	}

	if err := httputil.WriteAction(w, http.StatusCreated, "Thank you for your donation", checkout); err != nil {
		h.log.Error("failed to write action response", "handler", "Donate", "operation", "WriteAction", "error", err)
	}
}

func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.Require(r.Context())
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	payments, total, err := h.service.ListMine(r.Context(), caller, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, payments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

// maxNotificationSize bounds a gateway notification body.
const maxNotificationSize = 64 << 10

// Notification is the gateway webhook. It always answers 200 so the gateway
// stops redelivering; failures are logged for reconciliation.
func (h *PaymentHandler) Notification(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var n gateway.Notification
	body := io.LimitReader(r.Body, maxNotificationSize)
	if err := json.NewDecoder(body).Decode(&n); err != nil {
		h.log.Warn("Unreadable payment notification", "error", err)
	} else if err := h.service.HandleNotification(r.Context(), n); err != nil {
		h.log.Error("Payment notification not applied",
			"order_id", n.OrderID,
			"transaction_status", n.TransactionStatus,
			"error", err,
		)
	}

	if err := httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		h.log.Error("failed to write notification ack", "handler", "Notification", "operation", "WriteJSON", "error", err)
	}
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments/fines", h.CheckoutFine)
	router.POST("/api/v1/payments/donations", h.Donate)
	router.GET("/api/v1/payments", h.ListMine)
}

func (h *PaymentHandler) Webhooks() []contracts.Webhook {
	return []contracts.Webhook{
		{Method: http.MethodPost, Path: "/api/v1/payments/notifications", Handle: h.Notification},
	}
}
