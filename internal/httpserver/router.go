package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/resumematch/internal/metrics"
)

// ParseOrigins splits a comma-separated origin list. Empty means any origin.
func ParseOrigins(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter wires middleware and routes.
func BuildRouter(s *Server) http.Handler {
	origins := s.Options.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(Recoverer(s.Logger))
	r.Use(middleware.RequestID)
	r.Use(AccessLog(s.Logger))
	r.Use(metrics.HTTPMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id", "X-Report-Fallback"},
		MaxAge:         300,
	}))

	// Every POST calls a paid upstream API.
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(s.Options.RateLimitPerMin, time.Minute))
		wr.Post("/v1/sessions", s.CreateSessionHandler())
		wr.Post("/v1/sessions/{id}/profile-fit", s.ProfileFitHandler())
		wr.Post("/v1/sessions/{id}/keyword-match", s.KeywordMatchHandler())
		wr.Post("/v1/sessions/{id}/selection", s.SelectionHandler())
		wr.Post("/v1/sessions/{id}/qa", s.QAHandler())
		wr.Post("/v1/sessions/{id}/projects", s.ProjectsHandler())
	})

	r.Delete("/v1/sessions/{id}", s.DeleteSessionHandler())
	r.Get("/v1/sessions/{id}/report.json", s.ReportJSONHandler())
	r.Get("/v1/sessions/{id}/report.pdf", s.ReportPDFHandler())
	r.Get("/v1/models", s.ModelsHandler())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())

	return r
}
