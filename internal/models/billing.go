package models

import "time"

// BillingCustomer связывает пользователя с клиентом Stripe.
// Создается не более одного раза на пользователя при первом
// наблюдаемом событии checkout или subscription.
type BillingCustomer struct {
	UserUID          string
	StripeCustomerID string
}

// Subscription представляет запись подписки Stripe — авторитетный
// источник ответа на вопрос "доступны ли пользователю премиум-функции".
// Обновляется upsert-ом по stripe_subscription_id на каждом webhook-событии.
type Subscription struct {
	ID                   int
	StripeSubscriptionID string
	StripeCustomerID     string
	UserUID              string
	Status               string // trialing, active, past_due, canceled, ...
	PriceID              string
	Quantity             int
	CancelAtPeriodEnd    bool
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
}

// PremiumStatuses перечисляет статусы подписки, дающие премиум-доступ.
var PremiumStatuses = []string{"active", "trialing"}

// IsPremiumStatus сообщает, дает ли статус подписки премиум-доступ.
// Флаг is_premium пользователя всегда равен этому предикату от последнего
// наблюдавшегося статуса подписки.
func IsPremiumStatus(status string) bool {
	for _, s := range PremiumStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// PremiumWelcome — сообщение для очереди уведомлений о выдаче премиума.
type PremiumWelcome struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}
