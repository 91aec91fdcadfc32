// Package models содержит доменные структуры приложения: пользователей,
// привычки с отметками выполнения, посты сообщества и данные биллинга,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// User представляет зарегистрированного пользователя сервиса.
type User struct {
	UID                string     // Уникальный идентификатор пользователя
	Email              string     // Электронная почта
	Username           string     // Имя пользователя (уникальное)
	PasswordHash       string     // Хэш пароля пользователя
	Role               string     // Роль пользователя, admin или user
	IsPremium          bool       // Материализованный флаг премиум-доступа
	SubscriptionStatus string     // Последний наблюдавшийся статус подписки Stripe
	TrialStartedAt     *time.Time // Дата начала пробного периода, nil если не начат
	CreatedAt          time.Time
}

// AccountStatus описывает вычисленный статус аккаунта для клиента.
type AccountStatus struct {
	IsPremium     bool `json:"is_premium"`
	IsTrialActive bool `json:"is_trial_active"`
	NeedsPayment  bool `json:"needs_payment"`
	DaysRemaining *int `json:"days_remaining"` // nil если пробный период не активен
}
