package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/synergy-ops/synergy-ops/internal/purchaseorders"
)

// ExplodeService abstracts the purchase-order explode operation.
type ExplodeService interface {
	Explode(ctx context.Context, id uuid.UUID) (int, error)
}

// NewPOExplodeHandler returns the handler for TaskPOExplode.
func NewPOExplodeHandler(service ExplodeService, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload POExplodePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		count, err := service.Explode(ctx, payload.PurchaseOrderID)
		if err != nil {
			// A concurrent inline explode already handled it.
			if errors.Is(err, purchaseorders.ErrAlreadyExploded) {
				return nil
			}
			return err
		}
		logger.Info("exploded purchase order",
			slog.String("id", payload.PurchaseOrderID.String()),
			slog.Int("rows", count))
		return nil
	}
}

// NewRowsReindexHandler refreshes per-status row counts into Redis so
// dashboards can render counters without a table scan.
func NewRowsReindexHandler(pool *pgxpool.Pool, client *redis.Client, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RowsReindexPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		rows, err := pool.Query(ctx, `SELECT status, count(*) FROM inventory_rows GROUP BY status`)
		if err != nil {
			return err
		}
		defer rows.Close()
		counts := map[string]int64{}
		for rows.Next() {
			var (
				status string
				count  int64
			)
			if err := rows.Scan(&status, &count); err != nil {
				return err
			}
			counts[status] = count
		}
		if err := rows.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(counts)
		if err != nil {
			return err
		}
		if err := client.Set(ctx, "rows:status_counts", data, 24*time.Hour).Err(); err != nil {
			return err
		}
		logger.Info("reindexed row counts", slog.Int("statuses", len(counts)))
		return nil
	}
}

// NewChatDigestHandler logs a summary of recent chat volume per thread.
func NewChatDigestHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ChatDigestPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		rows, err := pool.Query(ctx, `SELECT thread, count(*) FROM chat_messages
			WHERE created_at > now() - interval '24 hours' GROUP BY thread`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				thread string
				count  int64
			)
			if err := rows.Scan(&thread, &count); err != nil {
				return err
			}
			logger.Info("chat digest", slog.String("thread", thread), slog.Int64("messages", count))
		}
		return rows.Err()
	}
}
