package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nihongo-master/tts-cache/internal/artifact"
	"github.com/nihongo-master/tts-cache/internal/queue"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text, speed string) (*artifact.Artifact, error)
}

type PrewarmWorker struct {
	svc Synthesizer
}

func NewPrewarmWorker(svc Synthesizer) *PrewarmWorker {
	return &PrewarmWorker{svc: svc}
}

func (w *PrewarmWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.PrewarmPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	a, err := w.svc.Synthesize(ctx, payload.Text, payload.Speed)
	if errors.Is(err, artifact.ErrInvalidInput) {
		return fmt.Errorf("prewarm: %v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("prewarm: %w", err)
	}

	slog.Info("prewarm complete", "key", a.Key, "cached", a.Cached)
	return nil
}
