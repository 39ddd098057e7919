package models

import (
	"time"
)

// Request statuses.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusFulfilled = "FULFILLED"
)

// ValidStatus reports whether s is a known request status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFulfilled:
		return true
	}
	return false
}

// Request is the model for the 'requests' table. It is created together with
// all of its items in one transaction.
type Request struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Joins (populated manually)
	User  *User  `json:"user,omitempty" db:"-"`
	Items []Item `json:"items" db:"-"`
}

// Item is the model for the 'items' table.
type Item struct {
	ID          int64   `json:"id" db:"id"`
	RequestID   int64   `json:"requestId" db:"request_id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	Quantity    int     `json:"quantity" db:"quantity"`
	Price       float64 `json:"price" db:"price"`
	Source      string  `json:"source" db:"source"`
	SampleFile  *string `json:"sampleFile" db:"sample_file"` // stored filename, nil when no attachment
}
