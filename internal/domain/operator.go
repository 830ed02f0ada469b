package domain

import "time"

// Operator is a dashboard account allowed to review and answer tickets.
type Operator struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
}
