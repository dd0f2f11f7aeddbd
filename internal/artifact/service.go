// Package artifact implements the content-addressed synthesis cache: a
// request is reduced to a content key, an existing artifact for that key is
// returned as is, and a missing one is generated once and committed.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nihongo-master/tts-cache/internal/metrics"
	"github.com/nihongo-master/tts-cache/internal/synth"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultExtension = ".mp3"
	audioURLPrefix   = "/audio/"
)

// Artifact references a committed audio file.
type Artifact struct {
	Key      string `json:"key"`
	Filename string `json:"filename"`
	URL      string `json:"audio_url"`
	Text     string `json:"text"`
	Speed    string `json:"speed"`
	Voice    string `json:"voice"`
	// Cached is true when the file existed before this call.
	Cached bool `json:"cached"`
}

// Record describes a committed artifact for the index.
type Record struct {
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	Text      string    `json:"text"`
	Speed     string    `json:"speed"`
	Voice     string    `json:"voice"`
	Provider  string    `json:"provider"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Index receives bookkeeping about commits and hits. The filesystem stays the
// source of truth; index failures are logged and never fail a request.
type Index interface {
	RecordCommit(ctx context.Context, rec Record) error
	RecordHit(ctx context.Context, key string) error
}

// Options configures a Service. Voice is required.
type Options struct {
	Voice     string
	Timeout   time.Duration // provider call deadline, default 30s
	Extension string        // artifact extension, default ".mp3"
	Index     Index
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Service maps synthesis requests onto artifacts in a DiskStore.
type Service struct {
	store    *DiskStore
	provider synth.Provider
	voice    string
	timeout  time.Duration
	ext      string
	index    Index
	metrics  *metrics.Metrics
	logger   *slog.Logger
	flights  singleflight.Group
	now      func() time.Time
}

// NewService wires a store and provider together.
func NewService(store *DiskStore, provider synth.Provider, opts Options) (*Service, error) {
	if store == nil {
		return nil, errors.New("artifact store is required")
	}
	if provider == nil {
		return nil, errors.New("synthesis provider is required")
	}
	if opts.Voice == "" {
		return nil, errors.New("voice is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Extension == "" {
		opts.Extension = defaultExtension
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:    store,
		provider: provider,
		voice:    opts.Voice,
		timeout:  opts.Timeout,
		ext:      opts.Extension,
		index:    opts.Index,
		metrics:  opts.Metrics,
		logger:   opts.Logger.With("component", "artifact"),
		now:      time.Now,
	}, nil
}

// Voice returns the configured voice id.
func (s *Service) Voice() string { return s.voice }

// ProviderName returns the name of the synthesis backend.
func (s *Service) ProviderName() string { return s.provider.Name() }

// Voices returns the static voice catalog.
func (s *Service) Voices() []Voice { return Catalog() }

// Resolve computes the artifact reference for a request without touching the
// store or the provider.
func (s *Service) Resolve(text, speed string) (*Artifact, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}
	if speed == "" {
		speed = synth.DefaultSpeed
	}
	key := ContentKey(text, speed)
	name := Filename(key, s.ext)
	return &Artifact{
		Key:      key,
		Filename: name,
		URL:      audioURLPrefix + name,
		Text:     text,
		Speed:    speed,
		Voice:    s.voice,
	}, nil
}

// Synthesize returns the artifact for (text, speed), generating it on a miss.
// Concurrent misses for one key share a single provider call.
func (s *Service) Synthesize(ctx context.Context, text, speed string) (*Artifact, error) {
	a, err := s.Resolve(text, speed)
	if err != nil {
		return nil, err
	}

	hit, err := s.store.Exists(a.Filename)
	if err != nil {
		s.metrics.Lookup("error")
		return nil, err
	}
	if hit {
		s.metrics.Lookup("hit")
		s.recordHit(ctx, a.Key)
		a.Cached = true
		return a, nil
	}

	// The flight outlives the caller that started it, so one client hanging
	// up does not fail the others waiting on the same key.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(a.Key, func() (any, error) {
		return s.generate(flightCtx, a)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			s.metrics.Lookup("error")
			return nil, res.Err
		}
		generated := res.Val.(bool)
		switch {
		case res.Shared:
			s.metrics.Lookup("shared")
		case generated:
			s.metrics.Lookup("miss")
		default:
			s.metrics.Lookup("hit")
		}
		a.Cached = !generated
		return a, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// generate runs inside the per-key flight. It reports whether the provider
// was called.
func (s *Service) generate(ctx context.Context, a *Artifact) (bool, error) {
	// A flight for this key may have committed between our stat and joining.
	if ok, err := s.store.Exists(a.Filename); err != nil {
		return false, err
	} else if ok {
		return false, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	res, err := s.provider.Synthesize(callCtx, synth.Request{
		Text:  a.Text,
		Voice: s.voice,
		Speed: a.Speed,
	})
	elapsed := s.now().Sub(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			s.metrics.ProviderCall(s.provider.Name(), "timeout", elapsed)
			s.logger.Warn("synthesis timed out", "key", a.Key, "provider", s.provider.Name(), "timeout", s.timeout)
			return false, fmt.Errorf("%w after %s", ErrSynthesisTimeout, s.timeout)
		}
		s.metrics.ProviderCall(s.provider.Name(), "error", elapsed)
		s.logger.Warn("synthesis failed", "key", a.Key, "provider", s.provider.Name(), "error", err)
		return false, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	if res == nil || len(res.Audio) == 0 {
		s.metrics.ProviderCall(s.provider.Name(), "error", elapsed)
		return false, fmt.Errorf("%w: provider %s returned no audio", ErrSynthesisFailed, s.provider.Name())
	}
	s.metrics.ProviderCall(s.provider.Name(), "ok", elapsed)

	if err := s.store.Commit(a.Filename, res.Audio); err != nil {
		return false, fmt.Errorf("commit artifact: %w", err)
	}
	s.metrics.Committed(len(res.Audio))

	s.logger.Info("artifact generated",
		"key", a.Key,
		"provider", s.provider.Name(),
		"bytes", len(res.Audio),
		"duration_ms", elapsed.Milliseconds(),
	)

	if s.index != nil {
		rec := Record{
			Key:       a.Key,
			Filename:  a.Filename,
			Text:      a.Text,
			Speed:     a.Speed,
			Voice:     s.voice,
			Provider:  s.provider.Name(),
			Bytes:     len(res.Audio),
			CreatedAt: s.now().UTC(),
		}
		if err := s.index.RecordCommit(ctx, rec); err != nil {
			s.logger.Warn("index commit failed", "key", a.Key, "error", err)
		}
	}
	return true, nil
}

// Fetch opens a committed artifact by filename. The caller closes the file.
func (s *Service) Fetch(filename string) (*os.File, fs.FileInfo, error) {
	return s.store.Open(filename)
}

func (s *Service) recordHit(ctx context.Context, key string) {
	if s.index == nil {
		return
	}
	if err := s.index.RecordHit(ctx, key); err != nil {
		s.logger.Warn("index hit failed", "key", key, "error", err)
	}
}
