package model

import "time"

type LoanEventType string

const (
	LoanEventBorrowed LoanEventType = "loan.borrowed"
	LoanEventRenewed  LoanEventType = "loan.renewed"
	LoanEventReturned LoanEventType = "loan.returned"
)

// LoanEvent is the audit record published for every loan transition.
// Override marks transitions made through the admin path.
type LoanEvent struct {
	Type         LoanEventType `json:"type"`
	LoanID       string        `json:"loan_id"`
	UserID       string        `json:"user_id"`
	BookID       string        `json:"book_id"`
	Actor        string        `json:"actor"`
	Override     bool          `json:"override"`
	DueDate      time.Time     `json:"due_date"`
	RenewalCount int           `json:"renewal_count"`
	Fine         int64         `json:"fine,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at"`
}
