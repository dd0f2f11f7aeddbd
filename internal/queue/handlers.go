package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// HandlersRegistry routes task types to handlers and logs each run.
type HandlersRegistry struct {
	mux    *asynq.ServeMux
	logger *slog.Logger
}

func NewHandlersRegistry(logger *slog.Logger) *HandlersRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &HandlersRegistry{
		mux:    asynq.NewServeMux(),
		logger: logger,
	}
	r.mux.Use(r.logTask)
	return r
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

func (r *HandlersRegistry) logTask(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)

		id, _ := asynq.GetTaskID(ctx)
		retry, _ := asynq.GetRetryCount(ctx)
		attrs := []any{"type", t.Type(), "task_id", id, "retry", retry, "duration", time.Since(start)}
		if err != nil {
			r.logger.Warn("task failed", append(attrs, "error", err)...)
			return err
		}
		r.logger.Info("task done", attrs...)
		return nil
	})
}
