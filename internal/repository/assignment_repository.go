package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/message-router/internal/domain"
)

// WorkloadIncrement names the ledger row bumped alongside an assignment.
type WorkloadIncrement struct {
	StaffID     string
	MetricName  string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// AssignmentRepository persists routing decisions.
type AssignmentRepository interface {
	// CreateAssigned commits the routing decision atomically: the
	// assignment row, the PENDING->ASSIGNED message transition, and the
	// workload counter increment all land in one transaction or not at
	// all. A concurrent winner surfaces as pgx.ErrNoRows (lost the
	// guarded update) or a unique violation on message_id.
	CreateAssigned(ctx context.Context, assignment *domain.Assignment, inc WorkloadIncrement) error
	GetByMessageID(ctx context.Context, messageID string) (*domain.Assignment, error)
	// Complete stamps completed_at exactly once and moves the message to
	// COMPLETED in the same transaction. pgx.ErrNoRows signals the
	// assignment was already completed or the message left the expected
	// state.
	Complete(ctx context.Context, assignmentID string, completedAt time.Time) error
	ListByAssignee(ctx context.Context, staffID string, limit, offset int) ([]domain.Assignment, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) CreateAssigned(ctx context.Context, assignment *domain.Assignment, inc WorkloadIncrement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertAssignment = `
        INSERT INTO message_assignments (message_id, assigned_to, assigned_by, match_score, notes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, assigned_at, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertAssignment,
		assignment.MessageID,
		assignment.AssignedTo,
		assignment.AssignedBy,
		assignment.MatchScore,
		assignment.Notes,
	).Scan(&assignment.ID, &assignment.AssignedAt, &assignment.CreatedAt, &assignment.UpdatedAt); err != nil {
		return err
	}

	const guardMessage = `
        UPDATE messages SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := tx.Exec(ctx, guardMessage,
		domain.MessageStatusAssigned,
		assignment.MessageID,
		domain.MessageStatusPending,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	const bumpWorkload = `
        INSERT INTO workload_periods (staff_id, metric_name, target_value, current_value, period_start, period_end)
        VALUES ($1,$2,NULL,1,$3,$4)
        ON CONFLICT (staff_id, metric_name, period_start)
        DO UPDATE SET current_value = workload_periods.current_value + 1, updated_at = NOW()`
	if _, err := tx.Exec(ctx, bumpWorkload,
		inc.StaffID,
		inc.MetricName,
		inc.PeriodStart,
		inc.PeriodEnd,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *assignmentRepository) GetByMessageID(ctx context.Context, messageID string) (*domain.Assignment, error) {
	const query = `
        SELECT id, message_id, assigned_to, assigned_by, match_score, notes, assigned_at, completed_at, created_at, updated_at
        FROM message_assignments WHERE message_id=$1`
	var assignment domain.Assignment
	if err := r.pool.QueryRow(ctx, query, messageID).Scan(
		&assignment.ID,
		&assignment.MessageID,
		&assignment.AssignedTo,
		&assignment.AssignedBy,
		&assignment.MatchScore,
		&assignment.Notes,
		&assignment.AssignedAt,
		&assignment.CompletedAt,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) Complete(ctx context.Context, assignmentID string, completedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const stampAssignment = `
        UPDATE message_assignments SET completed_at=$1, updated_at=NOW()
        WHERE id=$2 AND completed_at IS NULL
        RETURNING message_id`
	var messageID string
	if err := tx.QueryRow(ctx, stampAssignment, completedAt, assignmentID).Scan(&messageID); err != nil {
		return err
	}

	const closeMessage = `
        UPDATE messages SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status IN ($3,$4)`
	cmd, err := tx.Exec(ctx, closeMessage,
		domain.MessageStatusCompleted,
		messageID,
		domain.MessageStatusAssigned,
		domain.MessageStatusInProgress,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (r *assignmentRepository) ListByAssignee(ctx context.Context, staffID string, limit, offset int) ([]domain.Assignment, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, message_id, assigned_to, assigned_by, match_score, notes, assigned_at, completed_at, created_at, updated_at
        FROM message_assignments
        WHERE assigned_to=$1
        ORDER BY assigned_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, staffID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		var assignment domain.Assignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.MessageID,
			&assignment.AssignedTo,
			&assignment.AssignedBy,
			&assignment.MatchScore,
			&assignment.Notes,
			&assignment.AssignedAt,
			&assignment.CompletedAt,
			&assignment.CreatedAt,
			&assignment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}
