package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nihongo-master/tts-cache/internal/artifact"
	"github.com/nihongo-master/tts-cache/internal/cache"
	"github.com/nihongo-master/tts-cache/internal/queue"
)

const (
	maxBodyBytes    = 1 << 20
	maxPrewarmItems = 100
)

// Prewarmer queues background synthesis.
type Prewarmer interface {
	EnqueuePrewarm(ctx context.Context, payload queue.PrewarmPayload, key string) error
}

// ArtifactIndex looks up indexed artifact records.
type ArtifactIndex interface {
	Lookup(ctx context.Context, key string) (*cache.Entry, error)
}

type TTSHandler struct {
	svc   *artifact.Service
	queue Prewarmer
	index ArtifactIndex
}

// NewTTSHandler wires the cache service. queue and index may be nil.
func NewTTSHandler(svc *artifact.Service, q Prewarmer, idx ArtifactIndex) *TTSHandler {
	return &TTSHandler{svc: svc, queue: q, index: idx}
}

type ttsRequest struct {
	Text  string `json:"text"`
	Speed string `json:"speed"`
}

type ttsResponse struct {
	AudioURL string `json:"audio_url"`
	Text     string `json:"text"`
}

// Root reports service identity.
func (h *TTSHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"service":  "Japanese TTS",
		"voice":    h.svc.Voice(),
		"provider": h.svc.ProviderName(),
	})
}

// Speak synthesizes text into the cache and returns its URL.
func (h *TTSHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.svc.Synthesize(r.Context(), req.Text, req.Speed)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ttsResponse{AudioURL: a.URL, Text: a.Text})
}

type prewarmRequest struct {
	Items []ttsRequest `json:"items"`
}

type prewarmItem struct {
	Key      string `json:"key"`
	AudioURL string `json:"audio_url"`
	Text     string `json:"text"`
}

// Prewarm queues synthesis for a batch so later /tts calls are cache hits.
func (h *TTSHandler) Prewarm(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeDetail(w, http.StatusServiceUnavailable, "prewarm queue not configured")
		return
	}

	var req prewarmRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 || len(req.Items) > maxPrewarmItems {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("items must hold 1 to %d entries", maxPrewarmItems))
		return
	}

	resolved := make([]*artifact.Artifact, len(req.Items))
	for i, item := range req.Items {
		a, err := h.svc.Resolve(item.Text, item.Speed)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("items[%d]: Text is empty", i))
			return
		}
		resolved[i] = a
	}

	out := make([]prewarmItem, 0, len(resolved))
	for _, a := range resolved {
		payload := queue.PrewarmPayload{Text: a.Text, Speed: a.Speed}
		if err := h.queue.EnqueuePrewarm(r.Context(), payload, a.Key); err != nil {
			writeDetail(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		out = append(out, prewarmItem{Key: a.Key, AudioURL: a.URL, Text: a.Text})
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"queued": out})
}

// Audio streams a committed artifact.
func (h *TTSHandler) Audio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	f, info, err := h.svc.Fetch(name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", artifact.ContentType(name))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// Voices lists the static voice catalog.
func (h *TTSHandler) Voices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"voices": h.svc.Voices()})
}

// Artifact returns the index record for a content key.
func (h *TTSHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		writeDetail(w, http.StatusNotFound, "artifact index not configured")
		return
	}

	e, err := h.index.Lookup(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, artifact.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "artifact not indexed")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
