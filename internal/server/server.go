// Package server собирает HTTP-маршруты и настраивает сервер.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"recognition-service/internal/common"
	"recognition-service/internal/config"
	"recognition-service/internal/features/abuse"
	"recognition-service/internal/features/members"
	"recognition-service/internal/features/recognition"
	"recognition-service/internal/server/middleware"
)

// Handlers — обработчики фич, монтируемые в роутер.
type Handlers struct {
	Recognitions *recognition.Handler
	Flags        *abuse.Handler
	Members      *members.Handler
}

// NewRouter строит роутер сервиса. Порядок middleware фиксирован:
// recovery снаружи, затем лог, затем burst-лимитер.
func NewRouter(h Handlers, limiter *middleware.BurstLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(limiter.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/recognitions", func(r chi.Router) {
			r.Post("/", h.Recognitions.HandleCreate)
			r.Get("/", h.Recognitions.HandleList)
			r.Get("/{id}", h.Recognitions.HandleGet)
			r.Post("/{id}/verify", h.Recognitions.HandleVerify)
			r.Get("/{id}/flags", h.Flags.HandleList)
			r.Post("/{id}/flags", h.Flags.HandleReport)
		})
		r.Post("/flags/{flagId}/status", h.Flags.HandleReview)

		r.Route("/members", func(r chi.Router) {
			r.Post("/", h.Members.HandleRegister)
			r.Get("/{id}", h.Members.HandleGet)
			r.Post("/{id}/role", h.Members.HandleAssignRole)
		})
	})

	return r
}

// New создаёт HTTP-сервер с таймаутами из конфигурации.
func New(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
