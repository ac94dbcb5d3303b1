package model

import "time"

type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "borrowed"
	LoanStatusReturned LoanStatus = "returned"
)

// Loan is one book borrowed by one member. Status only moves borrowed -> returned.
type Loan struct {
	ID           string     `json:"id,omitempty" bson:"_id,omitempty"`
	BookID       string     `json:"book_id" bson:"book_id" validate:"required,mongodb"`
	UserID       string     `json:"user_id" bson:"user_id" validate:"required"`
	BorrowDate   time.Time  `json:"borrow_date" bson:"borrow_date"`
	DueDate      time.Time  `json:"due_date" bson:"due_date"`
	Status       LoanStatus `json:"status" bson:"status" validate:"required,oneof=borrowed returned"`
	RenewalCount int        `json:"renewal_count" bson:"renewal_count" validate:"min=0"`
	ReturnDate   *time.Time `json:"return_date,omitempty" bson:"return_date,omitempty"`
	Fine         int64      `json:"fine" bson:"fine"`
	FinePaid     bool       `json:"fine_paid" bson:"fine_paid"`
	CreatedBy    string     `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusBorrowed
}

// LoanView is a loan plus the values derived from the loan policy as of
// the moment it was rendered.
type LoanView struct {
	*Loan
	DaysRemaining int    `json:"days_remaining"`
	CanRenew      bool   `json:"can_renew"`
	RenewalDenial string `json:"renewal_denial,omitempty"`
	AccruedFine   int64  `json:"accrued_fine"`
	FineLabel     string `json:"fine_label,omitempty"`
}

// BorrowRequest is the body of a member's borrow call.
type BorrowRequest struct {
	BookID string `json:"book_id" validate:"required,mongodb"`
}

// OverrideBorrowRequest is an admin borrowing on behalf of a member.
type OverrideBorrowRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	BookID  string `json:"book_id" validate:"required,mongodb"`
	Confirm bool   `json:"confirm"`
}

type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}
