// Package sequencia собирает основное приложение: хранилище, кеш, брокер
// сообщений, сервисы и HTTP-сервер с graceful shutdown.
package sequencia

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/sequencia-app/sequencia/internal/cache"
	"github.com/sequencia-app/sequencia/internal/config"
	"github.com/sequencia-app/sequencia/internal/lib/jwt"
	"github.com/sequencia-app/sequencia/internal/migrations"
	"github.com/sequencia-app/sequencia/internal/rabbitmq"
	accountservice "github.com/sequencia-app/sequencia/internal/services/account"
	authservice "github.com/sequencia-app/sequencia/internal/services/auth"
	billingservice "github.com/sequencia-app/sequencia/internal/services/billing"
	feedservice "github.com/sequencia-app/sequencia/internal/services/feed"
	habitservice "github.com/sequencia-app/sequencia/internal/services/habit"
	"github.com/sequencia-app/sequencia/internal/storage/repository"
	"github.com/sequencia-app/sequencia/internal/stripeapi"
)

// App инкапсулирует HTTP-сервер и подключения к внешним системам.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
}

// New создает приложение: подключается к PostgreSQL, применяет миграции,
// инициализирует Redis, RabbitMQ, Stripe-клиент и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	amqpChannel, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(amqpChannel)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	stripeClient := stripeapi.NewClient(cfg.StripeSecretKey)

	authService := authservice.NewAuthService(db, jwtMaker)
	habitService := habitservice.NewHabitService(db, cacheRedis, logger)
	accountService := accountservice.NewAccountService(db, logger)
	feedService := feedservice.NewFeedService(db, logger)
	reconciler := billingservice.NewReconciler(db, stripeClient, logger)
	billingService := billingservice.New(reconciler, db, stripeClient, publisher, cfg, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg,
		authService, habitService, accountService, feedService, billingService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.amqpConn.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq connection", slog.Any("err", closeErr))
		}
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		return err
	}
}
