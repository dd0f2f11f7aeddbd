package artifact

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihongo-master/tts-cache/internal/synth"
)

type fakeProvider struct {
	calls   atomic.Int32
	audio   []byte
	err     error
	delay   time.Duration
	block   bool
	started chan struct{}
	mu      sync.Mutex
	last    synth.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Synthesize(ctx context.Context, req synth.Request) (*synth.Result, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &synth.Result{Audio: f.audio, ContentType: "audio/mpeg"}, nil
}

type recordingIndex struct {
	mu      sync.Mutex
	commits []Record
	hits    []string
}

func (r *recordingIndex) RecordCommit(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, rec)
	return nil
}

func (r *recordingIndex) RecordHit(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = append(r.hits, key)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T, p synth.Provider, opts Options) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)
	if opts.Voice == "" {
		opts.Voice = "ja-JP-NanamiNeural"
	}
	opts.Logger = quietLogger()
	svc, err := NewService(store, p, opts)
	require.NoError(t, err)
	return svc, dir
}

func TestSynthesizeGreeting(t *testing.T) {
	p := &fakeProvider{audio: []byte("ID3 audio")}
	svc, dir := newTestService(t, p, Options{})

	a, err := svc.Synthesize(context.Background(), "こんにちは", "+0%")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^/audio/tts_[0-9a-f]{8}\.mp3$`), a.URL)
	assert.Equal(t, "こんにちは", a.Text)
	assert.False(t, a.Cached)

	sum := md5.Sum([]byte("こんにちは+0%"))
	assert.Equal(t, hex.EncodeToString(sum[:])[:8], a.Key)

	f, info, err := svc.Fetch(a.Filename)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3 audio"), body)
	assert.Equal(t, int64(len(body)), info.Size())
	assert.Equal(t, "audio/mpeg", ContentType(a.Filename))

	assert.FileExists(t, filepath.Join(dir, a.Filename))
	assert.Equal(t, "ja-JP-NanamiNeural", p.last.Voice)
	assert.Equal(t, "+0%", p.last.Speed)
}

func TestSynthesizeCacheHit(t *testing.T) {
	p := &fakeProvider{audio: []byte("mp3")}
	idx := &recordingIndex{}
	svc, _ := newTestService(t, p, Options{Index: idx})

	first, err := svc.Synthesize(context.Background(), "ありがとう", "+10%")
	require.NoError(t, err)
	second, err := svc.Synthesize(context.Background(), "ありがとう", "+10%")
	require.NoError(t, err)

	assert.Equal(t, first.URL, second.URL)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), p.calls.Load())

	require.Len(t, idx.commits, 1)
	assert.Equal(t, first.Key, idx.commits[0].Key)
	assert.Equal(t, "fake", idx.commits[0].Provider)
	assert.Equal(t, []string{first.Key}, idx.hits)
}

func TestSynthesizeTrimsBeforeKeying(t *testing.T) {
	p := &fakeProvider{audio: []byte("mp3")}
	svc, _ := newTestService(t, p, Options{})

	a, err := svc.Synthesize(context.Background(), "  はい\n", "+0%")
	require.NoError(t, err)
	b, err := svc.Synthesize(context.Background(), "はい", "+0%")
	require.NoError(t, err)

	assert.Equal(t, "はい", a.Text)
	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, "はい", p.last.Text)
}

func TestSynthesizeDefaultsSpeed(t *testing.T) {
	p := &fakeProvider{audio: []byte("mp3")}
	svc, _ := newTestService(t, p, Options{})

	a, err := svc.Synthesize(context.Background(), "はい", "")
	require.NoError(t, err)
	assert.Equal(t, ContentKey("はい", "+0%"), a.Key)
	assert.Equal(t, "+0%", p.last.Speed)
}

func TestSynthesizeInvalidInput(t *testing.T) {
	p := &fakeProvider{audio: []byte("mp3")}
	svc, _ := newTestService(t, p, Options{})

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := svc.Synthesize(context.Background(), text, "+0%")
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Zero(t, p.calls.Load())
}

func TestSynthesizeProviderFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("invalid voice ja-JP-Nobody")}
	svc, dir := newTestService(t, p, Options{})

	_, err := svc.Synthesize(context.Background(), "こんにちは", "+0%")
	require.ErrorIs(t, err, ErrSynthesisFailed)
	assert.Contains(t, err.Error(), "invalid voice ja-JP-Nobody")
	assert.NotErrorIs(t, err, ErrSynthesisTimeout)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed synthesis must not leave files behind")
}

func TestSynthesizeEmptyAudioFails(t *testing.T) {
	p := &fakeProvider{audio: nil}
	svc, dir := newTestService(t, p, Options{})

	_, err := svc.Synthesize(context.Background(), "こんにちは", "+0%")
	require.ErrorIs(t, err, ErrSynthesisFailed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSynthesizeTimeout(t *testing.T) {
	p := &fakeProvider{block: true}
	svc, _ := newTestService(t, p, Options{Timeout: 20 * time.Millisecond})

	_, err := svc.Synthesize(context.Background(), "遅い", "+0%")
	require.ErrorIs(t, err, ErrSynthesisTimeout)
	assert.NotErrorIs(t, err, ErrSynthesisFailed)
}

func TestSynthesizeCallerCancelDoesNotAbortFlight(t *testing.T) {
	p := &fakeProvider{audio: []byte("mp3"), delay: 50 * time.Millisecond, started: make(chan struct{}, 1)}
	svc, dir := newTestService(t, p, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := svc.Synthesize(ctx, "待って", "+0%")
		errc <- err
	}()
	<-p.started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	name := Filename(ContentKey("待って", "+0%"), ".mp3")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestConcurrentMissesShareOneProviderCall(t *testing.T) {
	p := &fakeProvider{audio: []byte("shared mp3"), delay: 50 * time.Millisecond}
	svc, _ := newTestService(t, p, Options{})

	const n = 8
	var wg sync.WaitGroup
	urls := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := svc.Synthesize(context.Background(), "同時", "+0%")
			errs[i] = err
			if a != nil {
				urls[i] = a.URL
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, urls[0], urls[i])
	}
	assert.Equal(t, int32(1), p.calls.Load())

	f, _, err := svc.Fetch(filepath.Base(urls[0]))
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, []byte("shared mp3"), body)
}

func TestFetchNotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{}, Options{})

	_, _, err := svc.Fetch("nonexistent.mp3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchRejectsTraversal(t *testing.T) {
	p := &fakeProvider{audio: []byte("mp3")}
	svc, dir := newTestService(t, p, Options{})

	secret := filepath.Join(filepath.Dir(dir), "secret.mp3")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0o600))
	t.Cleanup(func() { _ = os.Remove(secret) })

	for _, name := range []string{"../secret.mp3", "..", ".", "/etc/passwd", `..\secret.mp3`, "a/b.mp3", ".tts-123.tmp", ""} {
		_, _, err := svc.Fetch(name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestVoicesCatalog(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{}, Options{})

	voices := svc.Voices()
	require.Len(t, voices, 2)
	assert.Equal(t, Voice{ID: "ja-JP-NanamiNeural", Name: "Nanami", Gender: "Female"}, voices[0])
	assert.Equal(t, Voice{ID: "ja-JP-KeitaNeural", Name: "Keita", Gender: "Male"}, voices[1])

	voices[0].Name = "changed"
	assert.Equal(t, "Nanami", svc.Voices()[0].Name)
}

func TestNewServiceValidates(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = NewService(nil, &fakeProvider{}, Options{Voice: "v"})
	assert.Error(t, err)
	_, err = NewService(store, nil, Options{Voice: "v"})
	assert.Error(t, err)
	_, err = NewService(store, &fakeProvider{}, Options{})
	assert.Error(t, err)
}

func TestWavExtension(t *testing.T) {
	p := &fakeProvider{audio: []byte("RIFF")}
	svc, _ := newTestService(t, p, Options{Extension: ".wav"})

	a, err := svc.Synthesize(context.Background(), "はい", "+0%")
	require.NoError(t, err)
	assert.Equal(t, "tts_"+a.Key+".wav", a.Filename)
	assert.Equal(t, "audio/wav", ContentType(a.Filename))
}
