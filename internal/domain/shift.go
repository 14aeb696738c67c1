package domain

import "time"

// ShiftStatus enumerates states of a scheduled shift entry.
type ShiftStatus string

const (
	ShiftStatusScheduled ShiftStatus = "SCHEDULED"
	ShiftStatusCompleted ShiftStatus = "COMPLETED"
	ShiftStatusCancelled ShiftStatus = "CANCELLED"
)

// Shift is a reusable working-window template owned by a department.
// StartTime and EndTime are minutes-of-day offsets; the scheduled window on
// a given date is [StartTime, EndTime).
type Shift struct {
	ID           string
	Name         string
	DepartmentID string
	StartTime    time.Duration
	EndTime      time.Duration
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ShiftAssignment places one staff member on one shift for one date.
type ShiftAssignment struct {
	ID        string
	StaffID   string
	ShiftID   string
	Date      time.Time
	Status    ShiftStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StaffShift is the scorer's read model: a staff member's scheduled window
// for a concrete date.
type StaffShift struct {
	StaffID   string
	Date      time.Time
	StartTime time.Duration
	EndTime   time.Duration
	Status    ShiftStatus
}

// Covers reports whether at falls inside the shift window on its date,
// treating the window as half-open.
func (s StaffShift) Covers(at time.Time) bool {
	elapsed := time.Duration(at.Hour())*time.Hour +
		time.Duration(at.Minute())*time.Minute +
		time.Duration(at.Second())*time.Second
	return elapsed >= s.StartTime && elapsed < s.EndTime
}
