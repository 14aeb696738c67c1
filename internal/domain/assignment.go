package domain

import "time"

// Assignment records a routing decision for a single message. The unique
// index on MessageID enforces at most one row per message; CompletedAt is
// set once and never changes afterwards.
type Assignment struct {
	ID           string
	MessageID    string
	AssignedTo   string
	AssignedBy   *string // nil means the system decided
	MatchScore   float64
	Notes        string
	AssignedAt   time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
