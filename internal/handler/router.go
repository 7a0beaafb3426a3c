package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	adminHandler "github.com/westrik/chatwire/internal/handler/admin"
	authHandler "github.com/westrik/chatwire/internal/handler/auth"
	chatHandler "github.com/westrik/chatwire/internal/handler/chat"
	middlewarePkg "github.com/westrik/chatwire/internal/middleware"
	"github.com/westrik/chatwire/internal/service/accounts"
	chatService "github.com/westrik/chatwire/internal/service/chat"
	"github.com/westrik/chatwire/internal/service/hub"
)

// NewRouter wires HTTP routes to the development server's services.
func NewRouter(accountsSvc *accounts.Service, store *chatService.Store, h *hub.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		authHandler.New(accountsSvc).RegisterRoutes(api)
		chatHandler.New(accountsSvc, store, h).RegisterRoutes(api)
		adminHandler.New(accountsSvc).RegisterRoutes(api)
	})

	return r
}
