package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/synergy-ops/synergy-ops/internal/purchaseorders"
)

type stubExplode struct {
	err   error
	calls []uuid.UUID
}

func (s *stubExplode) Explode(ctx context.Context, id uuid.UUID) (int, error) {
	s.calls = append(s.calls, id)
	if s.err != nil {
		return 0, s.err
	}
	return 3, nil
}

func TestPOExplodeHandler(t *testing.T) {
	svc := &stubExplode{}
	handler := NewPOExplodeHandler(svc, slog.Default())

	id := uuid.New()
	task, err := NewPOExplodeTask(id)
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []uuid.UUID{id}, svc.calls)
}

func TestPOExplodeHandlerSkipsRetryOnBadPayload(t *testing.T) {
	handler := NewPOExplodeHandler(&stubExplode{}, slog.Default())
	task := asynq.NewTask(TaskPOExplode, []byte("not json"))

	err := handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPOExplodeHandlerTreatsAlreadyExplodedAsDone(t *testing.T) {
	svc := &stubExplode{err: purchaseorders.ErrAlreadyExploded}
	handler := NewPOExplodeHandler(svc, slog.Default())

	task, err := NewPOExplodeTask(uuid.New())
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
}

func TestPOExplodeHandlerPropagatesFailures(t *testing.T) {
	boom := errors.New("db down")
	handler := NewPOExplodeHandler(&stubExplode{err: boom}, slog.Default())

	task, err := NewPOExplodeTask(uuid.New())
	require.NoError(t, err)
	require.ErrorIs(t, handler(context.Background(), task), boom)
}
