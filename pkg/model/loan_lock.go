package model

import "time"

// LoanLock is an advisory lock held while a member's borrow is in flight.
// The ID is the member's user ID; Owner identifies the borrow holding it.
// A TTL index reaps abandoned locks.
type LoanLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
