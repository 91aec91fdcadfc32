package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sequencia-app/sequencia/internal/models"
)

// ErrNotFound возвращается, когда запрошенная запись отсутствует в хранилище.
var ErrNotFound = errors.New("not found")

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (uid, email, username, password_hash, role,
			      is_premium, subscription_status, trial_started_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.UID, user.Email, user.Username, user.PasswordHash, user.Role,
		user.IsPremium, user.SubscriptionStatus, user.TrialStartedAt).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role,
			      is_premium, subscription_status, trial_started_at, created_at
			  FROM users
			  WHERE username = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, username), op)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role,
			      is_premium, subscription_status, trial_started_at, created_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

// FindUserUIDByEmail возвращает UID пользователя по его email
// или ErrNotFound, если такой пользователь не зарегистрирован.
func (s *Storage) FindUserUIDByEmail(ctx context.Context, email string) (string, error) {
	const op = "storage.FindUserUIDByEmail"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid FROM users WHERE email = $1`
	var uid string
	err := s.DB.QueryRowContext(ctx, query, email).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// UpdatePremium записывает материализованный флаг премиума и статус подписки
// пользователя. Значения детерминированно выводятся из события биллинга,
// поэтому повторное применение того же события не меняет результат.
func (s *Storage) UpdatePremium(ctx context.Context, userUID string, isPremium bool, status string) error {
	const op = "storage.UpdatePremium"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_premium = $1, subscription_status = $2
			  WHERE uid = $3`
	res, err := s.DB.ExecContext(ctx, query, isPremium, status, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// StartTrial выставляет дату начала пробного периода, если она еще не задана.
func (s *Storage) StartTrial(ctx context.Context, userUID string, startedAt time.Time) error {
	const op = "storage.StartTrial"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET trial_started_at = $1
			  WHERE uid = $2 AND trial_started_at IS NULL`
	_, err := s.DB.ExecContext(ctx, query, startedAt, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var trialStartedAt sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.IsPremium, &u.SubscriptionStatus, &trialStartedAt, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if trialStartedAt.Valid {
		u.TrialStartedAt = &trialStartedAt.Time
	}
	return u, nil
}
