// Package rabbitmq содержит подключение к RabbitMQ, настройку очередей,
// публикацию и потребление сообщений очереди уведомлений.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// QueueConfig описывает очередь и ключ маршрутизации для её привязки.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationsExchange — exchange для всех уведомлений сервиса.
const NotificationsExchange = "notifications"

// PremiumWelcomeQueue — очередь приветственных писем после выдачи премиума.
const PremiumWelcomeQueue = "notifications.premium_welcome"

// PremiumWelcomeRoutingKey — ключ маршрутизации приветственных писем.
const PremiumWelcomeRoutingKey = "premium_welcome"

// GetNotificationQueues возвращает конфигурацию очередей уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: PremiumWelcomeQueue, RoutingKey: PremiumWelcomeRoutingKey},
	}
}

// Connect подключается к RabbitMQ с повторными попытками.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	for range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал, объявляет exchange и привязывает очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	err = ch.ExchangeDeclare(
		NotificationsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			NotificationsExchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
