package model

import "time"

// PaymentStatus is the internal tri-state every gateway status maps onto.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type PaymentKind string

const (
	PaymentKindFine     PaymentKind = "fine"
	PaymentKindDonation PaymentKind = "donation"
)

type Payment struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty"`
	OrderID       string        `json:"order_id" bson:"order_id"`
	Kind          PaymentKind   `json:"kind" bson:"kind"`
	UserID        string        `json:"user_id,omitempty" bson:"user_id,omitempty"`
	LoanID        string        `json:"loan_id,omitempty" bson:"loan_id,omitempty"`
	DonorName     string        `json:"donor_name,omitempty" bson:"donor_name,omitempty"`
	DonorEmail    string        `json:"donor_email,omitempty" bson:"donor_email,omitempty"`
	Message       string        `json:"message,omitempty" bson:"message,omitempty"`
	Amount        int64         `json:"amount" bson:"amount"`
	Status        PaymentStatus `json:"status" bson:"status"`
	GatewayStatus string        `json:"gateway_status,omitempty" bson:"gateway_status,omitempty"`
	FraudStatus   string        `json:"fraud_status,omitempty" bson:"fraud_status,omitempty"`
	SnapToken     string        `json:"snap_token,omitempty" bson:"snap_token,omitempty"`
	RedirectURL   string        `json:"redirect_url,omitempty" bson:"redirect_url,omitempty"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

type FineCheckoutRequest struct {
	LoanID string `json:"loan_id" validate:"required,mongodb"`
}

type DonationRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Amount  int64  `json:"amount" validate:"required,gt=0"`
	Message string `json:"message,omitempty" validate:"max=500"`
}

// Checkout is what a client needs to open the gateway's hosted payment page.
type Checkout struct {
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	AmountLabel string `json:"amount_label"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}
