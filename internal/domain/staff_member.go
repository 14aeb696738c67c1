package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAdmin   StaffRole = "ADMIN"
	StaffRoleManager StaffRole = "MANAGER"
	StaffRoleStaff   StaffRole = "STAFF"
)

// StaffMember models an internal operator. Only active members with the
// STAFF role are eligible for automatic assignment.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         StaffRole
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Assignable reports whether the member can receive routed messages.
func (s *StaffMember) Assignable() bool {
	return s.Active && s.Role == StaffRoleStaff
}
