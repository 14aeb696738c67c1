package domain

import "time"

// Department represents a high-level organizational unit. Departments own
// keywords and staff members; routing derives candidate pools from them.
type Department struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
