package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/kalambet/modelserver/internal/observability"
	"github.com/kalambet/modelserver/internal/service"
)

const defaultMaxBodyBytes = 1 << 20 // 1MB

// Options configures the HTTP surface.
type Options struct {
	// Debug exposes engine error messages in 500 responses.
	Debug bool
	// CORSOrigins is a comma separated origin list; "*" allows any origin.
	CORSOrigins  string
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewHandler returns the model server's http.Handler: GET /health,
// POST /generate and GET /metrics behind CORS, request id, metrics,
// access log and panic recovery middleware.
func NewHandler(svc *service.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(observability.MetricsMiddleware)
	r.Use(accessLog(opts.Logger))
	r.Use(recoverer(opts.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusMethodNotAllowed, "", "Method not allowed")
	})

	r.Get("/health", handleHealth(svc))
	r.Post("/generate", handleGenerate(svc, opts))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: splitOrigins(opts.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
