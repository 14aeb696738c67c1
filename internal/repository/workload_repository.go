package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/message-router/internal/domain"
)

// WorkloadRepository reads the per-staff workload ledger. The scorer reads
// fresh rows on every attempt; increments happen only inside the assignment
// transaction (see AssignmentRepository.CreateAssigned).
type WorkloadRepository interface {
	// GetCurrent returns the period row covering at for the given staff
	// and metric; pgx.ErrNoRows when the staff member has no history yet.
	GetCurrent(ctx context.Context, staffID, metricName string, at time.Time) (*domain.WorkloadPeriod, error)
}

type workloadRepository struct {
	pool *pgxpool.Pool
}

// NewWorkloadRepository instantiates the repository.
func NewWorkloadRepository(pool *pgxpool.Pool) WorkloadRepository {
	return &workloadRepository{pool: pool}
}

func (r *workloadRepository) GetCurrent(ctx context.Context, staffID, metricName string, at time.Time) (*domain.WorkloadPeriod, error) {
	const query = `
        SELECT id, staff_id, metric_name, target_value, current_value, period_start, period_end, created_at, updated_at
        FROM workload_periods
        WHERE staff_id=$1 AND metric_name=$2 AND period_start <= $3 AND period_end >= $3`
	var period domain.WorkloadPeriod
	if err := r.pool.QueryRow(ctx, query, staffID, metricName, at).Scan(
		&period.ID,
		&period.StaffID,
		&period.MetricName,
		&period.TargetValue,
		&period.CurrentValue,
		&period.PeriodStart,
		&period.PeriodEnd,
		&period.CreatedAt,
		&period.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &period, nil
}
