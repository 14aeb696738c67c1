package domain

import "time"

// Customer is the external sender of inbound messages, identified per
// platform by an opaque reference the inbound adapter supplies.
type Customer struct {
	ID          string
	Name        string
	Phone       string
	Email       string
	Platform    string
	PlatformRef string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
