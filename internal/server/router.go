package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portola-retreat/concierge/internal/api"
	"github.com/portola-retreat/concierge/internal/api/handlers"
	"github.com/portola-retreat/concierge/internal/api/middleware"
)

type RouterConfig struct {
	ChatHandler   *handlers.ChatHandler
	AgendaHandler *handlers.AgendaHandler
	IndexHandler  *handlers.IndexHandler
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

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", cfg.ChatHandler.Chat)
		r.Get("/agenda", cfg.AgendaHandler.Agenda)
		r.Get("/index", cfg.IndexHandler.Status)
	})

	return r
}
