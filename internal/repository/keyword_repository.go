package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/message-router/internal/domain"
)

// KeywordRepository reads the administrator-maintained keyword set. This
// service never creates or deletes keywords.
type KeywordRepository interface {
	ListActive(ctx context.Context) ([]domain.Keyword, error)
}

type keywordRepository struct {
	pool *pgxpool.Pool
}

// NewKeywordRepository instantiates the repository.
func NewKeywordRepository(pool *pgxpool.Pool) KeywordRepository {
	return &keywordRepository{pool: pool}
}

func (r *keywordRepository) ListActive(ctx context.Context) ([]domain.Keyword, error) {
	const query = `
        SELECT id, keyword, department_id, priority, is_active, created_at, updated_at
        FROM keywords WHERE is_active = TRUE ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Keyword
	for rows.Next() {
		var kw domain.Keyword
		if err := rows.Scan(
			&kw.ID,
			&kw.Keyword,
			&kw.DepartmentID,
			&kw.Priority,
			&kw.IsActive,
			&kw.CreatedAt,
			&kw.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, kw)
	}
	return result, rows.Err()
}
