// Package jobs hosts the background task layer: task types, handlers and
// the Asynq worker bootstrap.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPOExplode explodes a purchase order into intake rows.
	TaskPOExplode = "po:explode"
	// TaskRowsReindex refreshes the cached per-status row counts.
	TaskRowsReindex = "rows:reindex"
	// TaskChatDigest summarises unread chat activity.
	TaskChatDigest = "chat:digest"
)

// POExplodePayload identifies the purchase order to explode.
type POExplodePayload struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
}

// NewPOExplodeTask constructs an Asynq task for an async explode.
func NewPOExplodeTask(id uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(POExplodePayload{PurchaseOrderID: id})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPOExplode, data, asynq.Queue(QueueDefault)), nil
}

// RowsReindexPayload carries scheduling metadata.
type RowsReindexPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewRowsReindexTask constructs the nightly reindex task.
func NewRowsReindexTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(RowsReindexPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRowsReindex, data, asynq.Queue(QueueDefault)), nil
}

// ChatDigestPayload carries scheduling metadata.
type ChatDigestPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewChatDigestTask constructs the chat digest task.
func NewChatDigestTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(ChatDigestPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskChatDigest, data, asynq.Queue(QueueDefault)), nil
}
