// Package sender собирает приложение отправки почтовых уведомлений:
// подключение к RabbitMQ, SMTP транспорт и потребителя очереди.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/sequencia-app/sequencia/internal/config"
	"github.com/sequencia-app/sequencia/internal/lib/smtp"
	"github.com/sequencia-app/sequencia/internal/rabbitmq"
	senderservice "github.com/sequencia-app/sequencia/internal/services/sender"
)

// App инкапсулирует подключение к брокеру и сервис отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает приложение отправки уведомлений.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителя очереди приветственных писем и блокируется
// до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.PremiumWelcomeQueue, a.senderService.SendPremiumWelcome)
	if err != nil {
		a.logger.Error("failed to start premium welcome consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
