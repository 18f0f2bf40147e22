package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/site-mirror/internal/delivery/http/handler"
	"github.com/user/site-mirror/internal/delivery/http/middleware"
)

// New builds the local mirror server. Service endpoints live under
// /_mirror so they never shadow a mirrored page.
func New(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(middleware.NoStore)

	r.Route("/_mirror", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Get("/report", h.HandleReport)
		r.Get("/diff", h.HandleDiff)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.Handle("/*", http.HandlerFunc(h.HandleStatic))

	return r
}
