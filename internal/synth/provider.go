// Package synth holds the speech synthesis backends the cache service
// delegates to on a miss. Every backend satisfies the same single-call
// contract, so they are interchangeable behind Provider.
package synth

import "context"

// Request holds the parameters of one synthesis call.
type Request struct {
	Text  string
	Voice string
	// Speed is a relative rate such as "+0%" or "-20%", forwarded as given.
	Speed string
}

// Result holds the generated audio and its content type.
type Result struct {
	Audio       []byte
	ContentType string // "audio/mpeg", or "audio/wav" for Piper
}

// Provider is the interface for text-to-speech backends.
type Provider interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
	Name() string
}

// voiceAlias maps catalog voice ids onto a backend's own voice names.
// Ids without an entry are passed through unchanged.
type voiceAlias map[string]string

func (a voiceAlias) resolve(voice, fallback string) string {
	if voice == "" {
		return fallback
	}
	if v, ok := a[voice]; ok {
		return v
	}
	return voice
}
