package chat

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists chat messages in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a message.
func (r *Repository) Insert(ctx context.Context, msg Message) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO chat_messages (id, thread, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.Thread, msg.AuthorID, msg.Body, msg.CreatedAt)
	return err
}

// ListThread returns messages of a thread, oldest first, capped at limit.
func (r *Repository) ListThread(ctx context.Context, thread string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, thread, author_id, body, created_at
		FROM chat_messages WHERE thread = $1 ORDER BY created_at ASC LIMIT $2`, thread, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.Thread, &msg.AuthorID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
