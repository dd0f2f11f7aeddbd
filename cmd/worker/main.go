package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nihongo-master/tts-cache/internal/app"
	"github.com/nihongo-master/tts-cache/internal/config"
	"github.com/nihongo-master/tts-cache/internal/queue"
	"github.com/nihongo-master/tts-cache/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(context.Background(), cfg, nil)
	if err != nil {
		slog.Error("failed to build synthesis service", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	registry := queue.NewHandlersRegistry(logger)

	prewarm := workers.NewPrewarmWorker(a.Service)
	registry.Register(queue.TypePrewarm, asynq.HandlerFunc(prewarm.ProcessTask))

	slog.Info("starting prewarm worker", "concurrency", cfg.Worker.Concurrency, "provider", a.Provider.Name())
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
