package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/message-router/internal/domain"
)

// StaffRepository handles read access to staff members.
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	// ListAssignable returns active STAFF-role members of the given
	// departments, ordered by id so scoring tie-breaks stay reproducible.
	ListAssignable(ctx context.Context, departmentIDs []string) ([]domain.StaffMember, error)
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	const query = `
        SELECT id, name, email, phone, role, department_id, active_flag, created_at, updated_at
        FROM staff_members WHERE id=$1`

	var staff domain.StaffMember
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.Phone,
		&staff.Role,
		&staff.DepartmentID,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) ListAssignable(ctx context.Context, departmentIDs []string) ([]domain.StaffMember, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, name, email, phone, role, department_id, active_flag, created_at, updated_at
        FROM staff_members
        WHERE role=$1 AND active_flag=TRUE AND department_id = ANY($2)
        ORDER BY id`

	rows, err := r.pool.Query(ctx, query, domain.StaffRoleStaff, departmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffMember
	for rows.Next() {
		var staff domain.StaffMember
		if err := rows.Scan(
			&staff.ID,
			&staff.Name,
			&staff.Email,
			&staff.Phone,
			&staff.Role,
			&staff.DepartmentID,
			&staff.Active,
			&staff.CreatedAt,
			&staff.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}
