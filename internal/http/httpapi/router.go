package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mockupstudio/internal/http/handlers"
	"mockupstudio/internal/middleware"
)

// Options configures the router's middleware stack.
type Options struct {
	Logger          zerolog.Logger
	JWTSecret       string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	CORSOrigins     []string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/catalog", app.Catalog)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret, app.Unauthorized))

		r.Post("/v1/session", app.SessionBegin)
		r.Delete("/v1/session", app.SessionEnd)

		r.Route("/v1/batches", func(r chi.Router) {
			r.Post("/", app.BatchStart)
			r.Get("/{id}", app.BatchStatus)
			r.Delete("/{id}", app.BatchCancel)
			r.Get("/{id}/archive", app.BatchArchive)
		})

		r.Post("/v1/designs/clean", app.DesignClean)
		r.Post("/v1/voice", app.VoiceCommand)

		r.Route("/v1/history", func(r chi.Router) {
			r.Get("/", app.HistoryList)
			r.Delete("/", app.HistoryClear)
			r.Get("/archive", app.HistoryArchive)
		})
	})

	return r
}
