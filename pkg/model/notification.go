package model

import "time"

type NotificationKind string

const (
	NotificationLoanBorrowed NotificationKind = "loan_borrowed"
	NotificationLoanRenewed  NotificationKind = "loan_renewed"
	NotificationLoanReturned NotificationKind = "loan_returned"
	NotificationDueSoon      NotificationKind = "due_soon"
	NotificationOverdue      NotificationKind = "overdue"
)

type Notification struct {
	ID        string           `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string           `json:"user_id" bson:"user_id"`
	LoanID    string           `json:"loan_id,omitempty" bson:"loan_id,omitempty"`
	Kind      NotificationKind `json:"kind" bson:"kind"`
	Message   string           `json:"message" bson:"message"`
	DedupKey  string           `json:"-" bson:"dedup_key"`
	Read      bool             `json:"read" bson:"read"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
}
