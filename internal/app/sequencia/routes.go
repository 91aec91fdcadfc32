// Package sequencia предоставляет маршруты для основного приложения.
package sequencia

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/sequencia-app/sequencia/internal/config"
	accountstatus "github.com/sequencia-app/sequencia/internal/http/handlers/account/status"
	"github.com/sequencia-app/sequencia/internal/http/handlers/auth/login"
	"github.com/sequencia-app/sequencia/internal/http/handlers/auth/register"
	billingcheckout "github.com/sequencia-app/sequencia/internal/http/handlers/billing/checkout"
	billingportal "github.com/sequencia-app/sequencia/internal/http/handlers/billing/portal"
	billingwebhook "github.com/sequencia-app/sequencia/internal/http/handlers/billing/webhook"
	habitcreate "github.com/sequencia-app/sequencia/internal/http/handlers/habit/create"
	habitlist "github.com/sequencia-app/sequencia/internal/http/handlers/habit/list"
	habitremove "github.com/sequencia-app/sequencia/internal/http/handlers/habit/remove"
	habittoggle "github.com/sequencia-app/sequencia/internal/http/handlers/habit/toggle"
	"github.com/sequencia-app/sequencia/internal/http/handlers/feed/postcreate"
	"github.com/sequencia-app/sequencia/internal/http/handlers/feed/postlike"
	"github.com/sequencia-app/sequencia/internal/http/handlers/feed/postlist"
	"github.com/sequencia-app/sequencia/internal/http/handlers/feed/postremove"
	"github.com/sequencia-app/sequencia/internal/http/handlers/health"
	"github.com/sequencia-app/sequencia/internal/http/middlewarectx"
	accountservice "github.com/sequencia-app/sequencia/internal/services/account"
	authservice "github.com/sequencia-app/sequencia/internal/services/auth"
	billingservice "github.com/sequencia-app/sequencia/internal/services/billing"
	feedservice "github.com/sequencia-app/sequencia/internal/services/feed"
	habitservice "github.com/sequencia-app/sequencia/internal/services/habit"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	authService *authservice.AuthService,
	habitService *habitservice.HabitService,
	accountService *accountservice.AccountService,
	feedService *feedservice.FeedService,
	billingService *billingservice.Service,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/habits", habitcreate.New(logger, habitService).ServeHTTP)
			r.Get("/habits", habitlist.New(logger, habitService).ServeHTTP)
			r.Post("/habits/{id}/toggle", habittoggle.New(logger, habitService).ServeHTTP)
			r.Delete("/habits/{id}", habitremove.New(logger, habitService).ServeHTTP)

			r.Post("/posts", postcreate.New(logger, feedService).ServeHTTP)
			r.Get("/posts", postlist.New(logger, feedService).ServeHTTP)
			r.Delete("/posts/{id}", postremove.New(logger, feedService).ServeHTTP)
			r.Post("/posts/{id}/like", postlike.New(logger, feedService).ServeHTTP)

			r.Get("/account/status", accountstatus.New(logger, accountService).ServeHTTP)
			r.Post("/billing/checkout", billingcheckout.New(logger, billingService).ServeHTTP)
			r.Post("/billing/portal", billingportal.New(logger, billingService).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/webhooks/stripe", billingwebhook.New(logger, billingService, cfg.StripeWebhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
