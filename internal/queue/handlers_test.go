package queue

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRoutesAndLogs(t *testing.T) {
	var buf bytes.Buffer
	reg := NewHandlersRegistry(slog.New(slog.NewTextHandler(&buf, nil)))

	var got string
	reg.Register(TypePrewarm, asynq.HandlerFunc(func(_ context.Context, t *asynq.Task) error {
		got = string(t.Payload())
		return nil
	}))

	require.NoError(t, reg.Mux().ProcessTask(context.Background(), asynq.NewTask(TypePrewarm, []byte(`{"text":"はい"}`))))
	assert.Equal(t, `{"text":"はい"}`, got)
	assert.Contains(t, buf.String(), "task done")
	assert.Contains(t, buf.String(), "type=tts:prewarm")
}

func TestRegistryLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	reg := NewHandlersRegistry(slog.New(slog.NewTextHandler(&buf, nil)))

	boom := errors.New("provider down")
	reg.Register(TypePrewarm, asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return boom }))

	err := reg.Mux().ProcessTask(context.Background(), asynq.NewTask(TypePrewarm, nil))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "task failed")
}

func TestRegistryUnknownType(t *testing.T) {
	reg := NewHandlersRegistry(nil)
	assert.Error(t, reg.Mux().ProcessTask(context.Background(), asynq.NewTask("tts:unknown", nil)))
}
