// Package app assembles the cache service from configuration for the
// binaries under cmd/.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/nihongo-master/tts-cache/internal/artifact"
	"github.com/nihongo-master/tts-cache/internal/cache"
	"github.com/nihongo-master/tts-cache/internal/config"
	"github.com/nihongo-master/tts-cache/internal/metrics"
	"github.com/nihongo-master/tts-cache/internal/synth"
)

type App struct {
	Config   *config.Config
	Service  *artifact.Service
	Provider synth.Provider
	Store    *artifact.DiskStore
	// Index is nil when Redis did not answer at startup.
	Index *cache.Index

	closers []func() error
}

// New builds the service. A nil reg disables metrics. Redis is optional: when
// it is unreachable the service runs without the artifact index.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	store, err := artifact.NewDiskStore(cfg.TTS.OutputDir)
	if err != nil {
		return nil, err
	}

	provider, err := synth.New(ctx, cfg.TTS)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Provider: provider, Store: store}
	if c, ok := provider.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, rdb.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, running without artifact index", "error", err)
	} else {
		a.Index = cache.NewIndex(rdb)
	}

	opts := artifact.Options{
		Voice:   cfg.TTS.Voice,
		Timeout: cfg.TTS.ProviderTimeout,
	}
	if cfg.TTS.Backend == "local" {
		opts.Extension = ".wav"
	}
	if a.Index != nil {
		opts.Index = a.Index
	}
	if reg != nil {
		opts.Metrics = metrics.New(reg)
	}

	svc, err := artifact.NewService(store, provider, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Service = svc

	slog.Info("synthesis cache ready",
		"provider", provider.Name(),
		"voice", cfg.TTS.Voice,
		"output_dir", store.Dir(),
		"index", a.Index != nil,
	)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
