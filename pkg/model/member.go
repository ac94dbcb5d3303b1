package model

import "time"

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusVerified MemberStatus = "verified"
	MemberStatusRejected MemberStatus = "rejected"
)

// Member is the library profile of an authenticated user. UserID is the
// subject issued by the auth provider and is unique.
type Member struct {
	ID              string       `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          string       `json:"user_id" bson:"user_id"`
	Name            string       `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email           string       `json:"email" bson:"email" validate:"required,email"`
	Phone           string       `json:"phone" bson:"phone" validate:"required,e164"`
	KTPNumber       string       `json:"ktp_number" bson:"ktp_number" validate:"required,ktp"`
	KTPImageURL     string       `json:"ktp_image_url" bson:"ktp_image_url" validate:"required,url"`
	Status          MemberStatus `json:"status" bson:"status"`
	RejectionReason string       `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	ReviewedBy      string       `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at" bson:"created_at"`
}

func (m *Member) IsVerified() bool {
	return m.Status == MemberStatusVerified
}

type VerificationDecision struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty" validate:"required_if=Approve false,max=300"`
}
