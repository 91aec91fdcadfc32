package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// Publisher публикует сообщения уведомлений в exchange notifications.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создает новый Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish сериализует сообщение в JSON и публикует его с заданным ключом маршрутизации.
func (p *Publisher) Publish(routingKey string, message any) error {
	const op = "rabbitmq.Publish"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		NotificationsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
