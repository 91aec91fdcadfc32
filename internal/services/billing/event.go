// Package billing содержит бизнес-логику биллинга: разбор webhook-событий
// Stripe, согласование их с локальным состоянием подписок и создание
// платежных сессий.
package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownEvent возвращается для типов событий, которые сервис не обрабатывает.
var ErrUnknownEvent = errors.New("unknown event type")

// Event — одно из поддерживаемых webhook-событий Stripe.
// Конкретный тип определяется полем type входного сообщения.
type Event interface {
	// EventType возвращает исходный тип события Stripe.
	EventType() string
}

// CheckoutCompleted соответствует checkout.session.completed: пользователь
// завершил оплату, известна связка customer-пользователь.
type CheckoutCompleted struct {
	SessionID      string
	CustomerID     string
	SubscriptionID string
	CustomerEmail  string
	UserUID        string
}

// EventType возвращает исходный тип события Stripe.
func (CheckoutCompleted) EventType() string { return "checkout.session.completed" }

// SubscriptionChanged соответствует customer.subscription.created и
// customer.subscription.updated: у подписки изменились статус или параметры.
type SubscriptionChanged struct {
	SubscriptionID    string
	CustomerID        string
	Status            string
	PriceID           string
	Quantity          int
	CancelAtPeriodEnd bool
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	UserUID           string
}

// EventType возвращает исходный тип события Stripe.
func (SubscriptionChanged) EventType() string { return "customer.subscription.updated" }

// SubscriptionDeleted соответствует customer.subscription.deleted:
// подписка отменена окончательно.
type SubscriptionDeleted struct {
	SubscriptionID string
	CustomerID     string
	UserUID        string
}

// EventType возвращает исходный тип события Stripe.
func (SubscriptionDeleted) EventType() string { return "customer.subscription.deleted" }

// InvoicePaymentSucceeded соответствует invoice.payment_succeeded:
// очередной платеж по подписке прошел успешно.
type InvoicePaymentSucceeded struct {
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
	CustomerEmail  string
}

// EventType возвращает исходный тип события Stripe.
func (InvoicePaymentSucceeded) EventType() string { return "invoice.payment_succeeded" }

// envelope — внешний конверт webhook-сообщения Stripe.
type envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	Subscription  string `json:"subscription"`
	CustomerEmail string `json:"customer_email"`
	CustomerData  struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []struct {
			Quantity int `json:"quantity"`
			Price    struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

type invoiceObject struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	Subscription  string `json:"subscription"`
	CustomerEmail string `json:"customer_email"`
}

// ParseEvent разбирает сырое webhook-сообщение Stripe в типизированное
// событие. Для необрабатываемых типов возвращает ErrUnknownEvent.
func ParseEvent(payload []byte) (Event, error) {
	const op = "services.billing.ParseEvent"

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch env.Type {
	case "checkout.session.completed":
		var obj checkoutSessionObject
		if err := json.Unmarshal(env.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		email := obj.CustomerEmail
		if email == "" {
			email = obj.CustomerData.Email
		}
		return CheckoutCompleted{
			SessionID:      obj.ID,
			CustomerID:     obj.Customer,
			SubscriptionID: obj.Subscription,
			CustomerEmail:  email,
			UserUID:        obj.Metadata["user_uid"],
		}, nil

	case "customer.subscription.created", "customer.subscription.updated":
		obj, err := parseSubscriptionObject(env.Data.Object)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return *obj, nil

	case "customer.subscription.deleted":
		var obj subscriptionObject
		if err := json.Unmarshal(env.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return SubscriptionDeleted{
			SubscriptionID: obj.ID,
			CustomerID:     obj.Customer,
			UserUID:        obj.Metadata["user_uid"],
		}, nil

	case "invoice.payment_succeeded":
		var obj invoiceObject
		if err := json.Unmarshal(env.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return InvoicePaymentSucceeded{
			InvoiceID:      obj.ID,
			CustomerID:     obj.Customer,
			SubscriptionID: obj.Subscription,
			CustomerEmail:  obj.CustomerEmail,
		}, nil

	default:
		return nil, fmt.Errorf("%s: %q: %w", op, env.Type, ErrUnknownEvent)
	}
}

func parseSubscriptionObject(raw json.RawMessage) (*SubscriptionChanged, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	evt := SubscriptionChanged{
		SubscriptionID:    obj.ID,
		CustomerID:        obj.Customer,
		Status:            obj.Status,
		CancelAtPeriodEnd: obj.CancelAtPeriodEnd,
		UserUID:           obj.Metadata["user_uid"],
		Quantity:          1,
	}
	if len(obj.Items.Data) > 0 {
		evt.PriceID = obj.Items.Data[0].Price.ID
		if obj.Items.Data[0].Quantity > 0 {
			evt.Quantity = obj.Items.Data[0].Quantity
		}
	}
	if obj.CurrentPeriodStart > 0 {
		ts := time.Unix(obj.CurrentPeriodStart, 0).UTC()
		evt.PeriodStart = &ts
	}
	if obj.CurrentPeriodEnd > 0 {
		ts := time.Unix(obj.CurrentPeriodEnd, 0).UTC()
		evt.PeriodEnd = &ts
	}
	return &evt, nil
}
