// Package gateway speaks the hosted payment gateway's protocol: Snap checkout
// requests out, signed status notifications in.
package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"pustaka/pkg/model"
)

type TransactionStatus string

const (
	StatusCapture    TransactionStatus = "capture"
	StatusSettlement TransactionStatus = "settlement"
	StatusPending    TransactionStatus = "pending"
	StatusDeny       TransactionStatus = "deny"
	StatusCancel     TransactionStatus = "cancel"
	StatusExpire     TransactionStatus = "expire"
)

type FraudStatus string

const (
	FraudAccept    FraudStatus = "accept"
	FraudChallenge FraudStatus = "challenge"
)

// Notification is the body the gateway POSTs on every status change.
type Notification struct {
	OrderID           string            `json:"order_id"`
	TransactionStatus TransactionStatus `json:"transaction_status"`
	FraudStatus       FraudStatus       `json:"fraud_status,omitempty"`
	StatusCode        string            `json:"status_code"`
	GrossAmount       string            `json:"gross_amount"`
	SignatureKey      string            `json:"signature_key"`
	TransactionID     string            `json:"transaction_id,omitempty"`
	PaymentType       string            `json:"payment_type,omitempty"`
}

// MapStatus folds a gateway status onto paid, pending or failed. A captured
// card payment still under fraud review stays pending. Unknown statuses are
// treated as pending so nothing is marked paid or failed by accident.
func MapStatus(tx TransactionStatus, fraud FraudStatus) model.PaymentStatus {
	switch tx {
	case StatusCapture:
		if fraud == FraudChallenge {
			return model.PaymentStatusPending
		}
		return model.PaymentStatusPaid
	case StatusSettlement:
		return model.PaymentStatusPaid
	case StatusPending:
		return model.PaymentStatusPending
	case StatusDeny, StatusCancel, StatusExpire:
		return model.PaymentStatusFailed
	default:
		return model.PaymentStatusPending
	}
}

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomePending   Outcome = "pending"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Result is a notification resolved to an outcome and an internal status.
type Result struct {
	Outcome       Outcome
	OrderID       string
	Status        model.PaymentStatus
	GatewayStatus TransactionStatus
	FraudStatus   FraudStatus
}

func Resolve(n Notification) Result {
	status := MapStatus(n.TransactionStatus, n.FraudStatus)

	var outcome Outcome
	switch status {
	case model.PaymentStatusPaid:
		outcome = OutcomeSucceeded
	case model.PaymentStatusFailed:
		outcome = OutcomeFailed
		if n.TransactionStatus == StatusCancel {
			outcome = OutcomeCancelled
		}
	default:
		outcome = OutcomePending
	}

	return Result{
		Outcome:       outcome,
		OrderID:       n.OrderID,
		Status:        status,
		GatewayStatus: n.TransactionStatus,
		FraudStatus:   n.FraudStatus,
	}
}

// OutcomeHandler receives every resolved payment. Each outcome has its own
// method so implementations cannot forget one.
type OutcomeHandler interface {
	Succeeded(ctx context.Context, result Result, payment *model.Payment) error
	Pending(ctx context.Context, result Result, payment *model.Payment) error
	Failed(ctx context.Context, result Result, payment *model.Payment) error
	Cancelled(ctx context.Context, result Result, payment *model.Payment) error
}

func Dispatch(ctx context.Context, h OutcomeHandler, result Result, payment *model.Payment) error {
	switch result.Outcome {
	case OutcomeSucceeded:
		return h.Succeeded(ctx, result, payment)
	case OutcomePending:
		return h.Pending(ctx, result, payment)
	case OutcomeFailed:
		return h.Failed(ctx, result, payment)
	case OutcomeCancelled:
		return h.Cancelled(ctx, result, payment)
	default:
		return fmt.Errorf("unknown payment outcome %q", result.Outcome)
	}
}

// Signature is SHA-512 over order_id, status_code, gross_amount and the
// server key, hex encoded.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(n Notification, serverKey string) bool {
	if n.SignatureKey == "" {
		return false
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}
