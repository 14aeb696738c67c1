package domain

import "time"

// MetricMessagesHandled is the ledger metric the routing scorer consults
// and the assignment transaction increments.
const MetricMessagesHandled = "messages_handled"

// WorkloadPeriod is a per-staff, per-metric counter over a calendar-month
// period. The counter only grows as assignments land in the period; a nil
// TargetValue means no quota has been set yet.
type WorkloadPeriod struct {
	ID           string
	StaffID      string
	MetricName   string
	TargetValue  *float64
	CurrentValue float64
	PeriodStart  time.Time
	PeriodEnd    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PeriodBounds returns the calendar-month period containing at.
func PeriodBounds(at time.Time) (start, end time.Time) {
	start = time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, at.Location())
	end = start.AddDate(0, 1, -1)
	return start, end
}
