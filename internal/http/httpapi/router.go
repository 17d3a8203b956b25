package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"slideflow/internal/http/handlers"
	"slideflow/internal/infra"
	"slideflow/internal/middleware"
	"slideflow/internal/storage"
)

// RouterConfig holds what the router needs besides the handlers.
type RouterConfig struct {
	APIPrefix         string
	AssetDir          string
	AllowedOrigins    []string
	DefaultTextLocale string
	RateLimitPerMin   int
	CountryLookup     middleware.CountryLookup
	Logger            infra.Logger
}

func NewRouter(app *handlers.App, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(cfg.Logger),
		chimw.Recoverer,
		middleware.CORS(cfg.AllowedOrigins),
	)

	if cfg.AssetDir != "" {
		assets := http.StripPrefix(storage.AssetURLPrefix, http.FileServer(http.Dir(cfg.AssetDir)))
		r.Get(storage.AssetURLPrefix+"*", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=86400")
			assets.ServeHTTP(w, req)
		})
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}
	r.Route(prefix, func(api chi.Router) {
		api.Use(middleware.I18N(cfg.DefaultTextLocale, cfg.CountryLookup))

		api.Get("/healthz", app.Health)

		api.Route("/slide", func(s chi.Router) {
			s.Group(func(render chi.Router) {
				render.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
				render.Post("/generate", app.GenerateSlide)
				render.Post("/regenerate", app.RegenerateSlide)
				render.Post("/batch/submit", app.SubmitBatch)
				render.Post("/batch/generate", app.GenerateBatch)
			})

			s.Post("/batch/status", app.BatchStatusByBody)
			s.Get("/batch/active-count", app.ActiveCount)
			s.Get("/batch/config/validate", app.ValidateConfig)
			s.Get("/batch/config/optimal", app.OptimalConfig)
			s.Get("/batch/history", app.BatchHistory)
			s.Get("/batch/history/{id}", app.ArchivedBatch)
			s.Get("/batch/{id}", app.BatchStatus)
			s.Get("/batch/{id}/results", app.BatchResults)
			s.Get("/batch/{id}/download", app.DownloadBatch)
		})
	})

	return r
}
