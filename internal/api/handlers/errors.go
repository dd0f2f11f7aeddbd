package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nihongo-master/tts-cache/internal/artifact"
)

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps the artifact error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, artifact.ErrInvalidInput):
		writeDetail(w, http.StatusBadRequest, "Text is empty")
	case errors.Is(err, artifact.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Audio not found")
	case errors.Is(err, artifact.ErrSynthesisTimeout):
		writeDetail(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, artifact.ErrSynthesisFailed):
		writeDetail(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is left to read a response.
		slog.Debug("request canceled", "path", r.URL.Path)
	default:
		slog.Error("unhandled error", "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}
