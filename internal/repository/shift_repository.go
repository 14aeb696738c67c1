package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/message-router/internal/domain"
)

// ShiftRepository reads the shift registry maintained by the admin surface.
type ShiftRepository interface {
	// GetScheduledFor returns the staff member's SCHEDULED shift window
	// for the given date; pgx.ErrNoRows when none exists.
	GetScheduledFor(ctx context.Context, staffID string, date time.Time) (*domain.StaffShift, error)
}

type shiftRepository struct {
	pool *pgxpool.Pool
}

// NewShiftRepository instantiates the repository.
func NewShiftRepository(pool *pgxpool.Pool) ShiftRepository {
	return &shiftRepository{pool: pool}
}

func (r *shiftRepository) GetScheduledFor(ctx context.Context, staffID string, date time.Time) (*domain.StaffShift, error) {
	const query = `
        SELECT sa.staff_id, sa.date, s.start_time, s.end_time, sa.status
        FROM shift_assignments sa
        JOIN shifts s ON s.id = sa.shift_id
        WHERE sa.staff_id=$1 AND sa.date=$2 AND sa.status=$3
        ORDER BY s.start_time
        LIMIT 1`

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var (
		shift domain.StaffShift
		start pgtype.Time
		end   pgtype.Time
	)
	if err := r.pool.QueryRow(ctx, query, staffID, day, domain.ShiftStatusScheduled).Scan(
		&shift.StaffID,
		&shift.Date,
		&start,
		&end,
		&shift.Status,
	); err != nil {
		return nil, err
	}
	shift.StartTime = time.Duration(start.Microseconds) * time.Microsecond
	shift.EndTime = time.Duration(end.Microseconds) * time.Microsecond
	return &shift, nil
}
