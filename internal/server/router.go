package server

import (
	"net/http"

	"github.com/civic-pulse/pulsecore/internal/api"
	"github.com/civic-pulse/pulsecore/internal/api/handlers"
	"github.com/civic-pulse/pulsecore/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	OrganizationHandler *handlers.OrganizationHandler
	IssueHandler        *handlers.IssueHandler
	MatchHandler        *handlers.MatchHandler
	AnswerHandler       *handlers.AnswerHandler
	ReferenceHandler    *handlers.ReferenceHandler
	IndexHandler        *handlers.IndexHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/organizations", func(r chi.Router) {
		r.Post("/", cfg.OrganizationHandler.Create)
		r.Get("/", cfg.OrganizationHandler.List)
		r.Get("/{id}", cfg.OrganizationHandler.Get)
		r.Put("/{id}", cfg.OrganizationHandler.Update)
		r.Post("/{id}/deactivate", cfg.OrganizationHandler.Deactivate)
	})

	r.Route("/issues", func(r chi.Router) {
		r.Post("/", cfg.IssueHandler.Create)
		r.Get("/{id}", cfg.IssueHandler.Get)
		r.Post("/{id}/verify", cfg.IssueHandler.Verify)
		r.Post("/{id}/resolve", cfg.IssueHandler.Resolve)
		r.Get("/{id}/candidates", cfg.MatchHandler.Candidates)
		r.Post("/{id}/assign", cfg.MatchHandler.Assign)
	})

	r.Route("/references", func(r chi.Router) {
		r.Get("/", cfg.ReferenceHandler.List)
		r.Get("/{id}", cfg.ReferenceHandler.Get)
		r.Put("/{id}", cfg.ReferenceHandler.Upsert)
		r.Delete("/{id}", cfg.ReferenceHandler.Delete)
	})

	r.Post("/answer", cfg.AnswerHandler.Answer)

	r.Route("/index", func(r chi.Router) {
		r.Get("/stats", cfg.IndexHandler.Stats)
		r.Post("/rebuild", cfg.IndexHandler.Rebuild)
	})

	return r
}
