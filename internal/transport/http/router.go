package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/matchday-app/notify-api/internal/application/notification"
	"github.com/matchday-app/notify-api/internal/application/pushtoken"
	"github.com/matchday-app/notify-api/internal/config"
	"github.com/matchday-app/notify-api/internal/transport/http/handler"
	appmiddleware "github.com/matchday-app/notify-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.IdentityProvider != nil {
		authMw = appmiddleware.Auth(deps.IdentityProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 10 events/second per IP, burst of 20 — fan-out writes are the expensive path.
	eventRL := appmiddleware.NewRateLimiter(rate.Limit(10), 20)

	notifSvc := notification.NewService(notification.ServiceDeps{
		Repo:       deps.NotificationRepo,
		Resolver:   deps.Resolver,
		Push:       deps.Push,
		InboxCache: deps.InboxCache,
		Logger:     deps.Logger,
	})
	tokenSvc := pushtoken.NewService(pushtoken.ServiceDeps{
		Tokens:   deps.TokenRepo,
		Provider: deps.PushProvider,
		Local:    deps.LocalStore,
		Logger:   deps.Logger,
	})

	healthH := handler.NewHealthHandler()
	notifH := handler.NewNotificationHandler(notifSvc)
	eventH := handler.NewEventHandler(notifSvc)
	pushH := handler.NewPushHandler(tokenSvc, deps.Hub)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/notifications", notifH.List)
			r.Post("/notifications/read-all", notifH.MarkAllRead)
			r.Delete("/notifications", notifH.DeleteAll)

			r.With(eventRL.Limit).Post("/events", eventH.Create)

			r.Post("/push/enable", pushH.Enable)
			r.Post("/push/disable", pushH.Disable)
			r.Post("/push/sync", pushH.Sync)
			r.Get("/push/ws", pushH.Connect)
			r.Post("/push/incoming", pushH.Incoming)
		})
	})

	return r
}
