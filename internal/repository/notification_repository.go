package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/message-router/internal/domain"
)

// NotificationRepository stores staff inbox entries.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListUnread(ctx context.Context, staffID string, limit int) ([]domain.Notification, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (staff_id, title, body, type, link)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.StaffID,
		notification.Title,
		notification.Body,
		notification.Type,
		notification.Link,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListUnread(ctx context.Context, staffID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, staff_id, title, body, type, link, is_read, created_at
        FROM notifications
        WHERE staff_id=$1 AND is_read=FALSE
        ORDER BY created_at DESC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, staffID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.StaffID, &n.Title, &n.Body, &n.Type, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
