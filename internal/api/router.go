package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nihongo-master/tts-cache/internal/api/handlers"
	"github.com/nihongo-master/tts-cache/internal/api/middleware"
	"github.com/nihongo-master/tts-cache/internal/artifact"
	"github.com/nihongo-master/tts-cache/internal/config"
)

// Deps are the collaborators the router exposes. Only Service is required;
// the rest are nil when their backing store is unavailable.
type Deps struct {
	Service *artifact.Service
	Redis   handlers.Pinger
	Index   handlers.ArtifactIndex
	Queue   handlers.Prewarmer
	Metrics http.Handler
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
	rl   *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	if rt.cfg.RateLimit.RPS > 0 {
		rt.rl = middleware.NewRateLimiter(rt.cfg.RateLimit.RPS, rt.cfg.RateLimit.Burst)
		r.Use(rt.rl.Limit)
	}

	health := handlers.NewHealthHandler(rt.cfg.TTS.OutputDir, rt.deps.Redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if rt.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.deps.Metrics)
	}

	ttsH := handlers.NewTTSHandler(rt.deps.Service, rt.deps.Queue, rt.deps.Index)
	r.Get("/", ttsH.Root)
	r.Post("/tts", ttsH.Speak)
	r.Post("/tts/prewarm", ttsH.Prewarm)
	r.Get("/audio/{filename}", ttsH.Audio)
	r.Get("/voices", ttsH.Voices)
	r.Get("/artifacts/{key}", ttsH.Artifact)

	return r
}

// Close releases background resources started by Setup.
func (rt *Router) Close() {
	if rt.rl != nil {
		rt.rl.Stop()
	}
}
