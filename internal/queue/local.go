package queue

import (
	"context"
	"log/slog"

	"github.com/your-org/moments/internal/models"
	"github.com/your-org/moments/internal/observability"
)

// LocalDispatcher runs pipeline tasks in-process on a WorkerPool. It backs
// single-binary mode when no NATS URL is configured.
type LocalDispatcher struct {
	pool    *WorkerPool
	handler TaskHandler
}

func NewLocalDispatcher(pool *WorkerPool, handler TaskHandler) *LocalDispatcher {
	return &LocalDispatcher{pool: pool, handler: handler}
}

// Dispatch queues the task without waiting. A full queue returns
// ErrPoolFull and the record stays pending for the stale sweep. Handler
// errors are logged.
func (d *LocalDispatcher) Dispatch(_ context.Context, task models.PipelineTask) error {
	err := d.pool.TrySubmit(func(runCtx context.Context) {
		observability.QueueDepth.Set(float64(d.pool.Len()))
		if err := d.handler(runCtx, task); err != nil {
			slog.Error("process task error", "record_id", task.MomentID, "error", err)
		}
	})
	if err != nil {
		return err
	}
	observability.QueueDepth.Set(float64(d.pool.Len()))
	return nil
}
