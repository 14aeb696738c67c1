package domain

import "time"

// Keyword is an administrator-defined text trigger mapped to one department
// with a priority weight. Inactive keywords never participate in matching.
type Keyword struct {
	ID           string
	Keyword      string
	DepartmentID string
	Priority     int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
