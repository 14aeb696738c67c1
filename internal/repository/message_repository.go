package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/message-router/internal/domain"
)

// MessageRepository encapsulates message persistence.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// MarkInProgress advances an ASSIGNED message; pgx.ErrNoRows signals
	// the message was not in the expected state.
	MarkInProgress(ctx context.Context, id string) error
	// ListStalePending returns incoming PENDING messages created before
	// cutoff, oldest first, for the requeue sweep.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates the repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	const query = `
        INSERT INTO messages (customer_id, content, platform, external_id, direction, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		message.CustomerID,
		message.Content,
		message.Platform,
		message.ExternalID,
		message.Direction,
		message.Status,
	).Scan(&message.ID, &message.CreatedAt, &message.UpdatedAt)
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	const query = `
        SELECT id, customer_id, content, platform, external_id, direction, status, created_at, updated_at
        FROM messages WHERE id=$1`
	var message domain.Message
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&message.ID,
		&message.CustomerID,
		&message.Content,
		&message.Platform,
		&message.ExternalID,
		&message.Direction,
		&message.Status,
		&message.CreatedAt,
		&message.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) MarkInProgress(ctx context.Context, id string) error {
	const query = `
        UPDATE messages SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, domain.MessageStatusInProgress, id, domain.MessageStatusAssigned)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *messageRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, customer_id, content, platform, external_id, direction, status, created_at, updated_at
        FROM messages
        WHERE status=$1 AND direction=$2 AND created_at < $3
        ORDER BY created_at ASC
        LIMIT $4`
	rows, err := r.pool.Query(ctx, query, domain.MessageStatusPending, domain.DirectionIncoming, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var message domain.Message
		if err := rows.Scan(
			&message.ID,
			&message.CustomerID,
			&message.Content,
			&message.Platform,
			&message.ExternalID,
			&message.Direction,
			&message.Status,
			&message.CreatedAt,
			&message.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, message)
	}
	return result, rows.Err()
}
