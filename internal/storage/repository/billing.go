package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sequencia-app/sequencia/internal/models"
)

// UpsertBillingCustomer сохраняет связь пользователя с клиентом Stripe.
// Связь создается не более одного раза на пользователя; повторная запись
// с тем же customer id является no-op.
func (s *Storage) UpsertBillingCustomer(ctx context.Context, mapping models.BillingCustomer) error {
	const op = "storage.UpsertBillingCustomer"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO customers (user_uid, stripe_customer_id)
			  VALUES ($1, $2)
			  ON CONFLICT (user_uid) DO UPDATE
			  SET stripe_customer_id = EXCLUDED.stripe_customer_id`
	_, err := s.DB.ExecContext(ctx, query, mapping.UserUID, mapping.StripeCustomerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindUserUIDByCustomerID возвращает UID пользователя по идентификатору
// клиента Stripe или ErrNotFound, если связь не создавалась.
func (s *Storage) FindUserUIDByCustomerID(ctx context.Context, customerID string) (string, error) {
	const op = "storage.FindUserUIDByCustomerID"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid FROM customers WHERE stripe_customer_id = $1`
	var uid string
	err := s.DB.QueryRowContext(ctx, query, customerID).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetCustomerIDByUserUID возвращает идентификатор клиента Stripe для
// пользователя или ErrNotFound, если связь не создавалась.
func (s *Storage) GetCustomerIDByUserUID(ctx context.Context, userUID string) (string, error) {
	const op = "storage.GetCustomerIDByUserUID"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT stripe_customer_id FROM customers WHERE user_uid = $1`
	var customerID string
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return customerID, nil
}

// UpsertSubscription сохраняет запись подписки по её естественному ключу
// stripe_subscription_id. Повторное применение того же webhook-события
// перезаписывает те же значения, поэтому доставка "как минимум один раз"
// со стороны Stripe безопасна.
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.UpsertSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (stripe_subscription_id, stripe_customer_id, user_uid,
			      status, price_id, quantity, cancel_at_period_end,
			      current_period_start, current_period_end)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT (stripe_subscription_id) DO UPDATE
			  SET status = EXCLUDED.status,
			      price_id = EXCLUDED.price_id,
			      quantity = EXCLUDED.quantity,
			      cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			      current_period_start = EXCLUDED.current_period_start,
			      current_period_end = EXCLUDED.current_period_end,
			      updated_at = NOW()`
	_, err := s.DB.ExecContext(ctx, query,
		sub.StripeSubscriptionID, sub.StripeCustomerID, sub.UserUID,
		sub.Status, sub.PriceID, sub.Quantity, sub.CancelAtPeriodEnd,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkSubscriptionCanceled переводит подписку в терминальный статус canceled.
// Поля price/quantity/period не трогаются: событие deleted не несет их,
// а запоздалая повторная доставка не должна затирать данные, записанные
// более свежим subscription-событием. Если записи о подписке еще не было,
// создается минимальная строка, чтобы факт отмены не потерялся.
func (s *Storage) MarkSubscriptionCanceled(ctx context.Context, sub models.Subscription) error {
	const op = "storage.MarkSubscriptionCanceled"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (stripe_subscription_id, stripe_customer_id, user_uid, status)
			  VALUES ($1, $2, $3, 'canceled')
			  ON CONFLICT (stripe_subscription_id) DO UPDATE
			  SET status = 'canceled',
			      updated_at = NOW()`
	_, err := s.DB.ExecContext(ctx, query,
		sub.StripeSubscriptionID, sub.StripeCustomerID, sub.UserUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSubscriptionByUserUID возвращает последнюю запись подписки пользователя
// или ErrNotFound, если подписок еще не было.
func (s *Storage) GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByUserUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, stripe_subscription_id, stripe_customer_id, user_uid,
			      status, price_id, quantity, cancel_at_period_end,
			      current_period_start, current_period_end
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY updated_at DESC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var sub models.Subscription
	var periodStart, periodEnd sql.NullTime
	err := row.Scan(&sub.ID, &sub.StripeSubscriptionID, &sub.StripeCustomerID, &sub.UserUID,
		&sub.Status, &sub.PriceID, &sub.Quantity, &sub.CancelAtPeriodEnd,
		&periodStart, &periodEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if periodStart.Valid {
		sub.CurrentPeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	return &sub, nil
}
