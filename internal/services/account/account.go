// Package account содержит бизнес-логику статуса аккаунта: премиум,
// пробный период и необходимость оплаты.
package account

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/sequencia-app/sequencia/internal/models"
)

// TrialDuration — длительность бесплатного пробного периода.
const TrialDuration = 7 * 24 * time.Hour

// AccountRepository определяет методы хранилища для статуса аккаунта.
type AccountRepository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// StartTrial фиксирует начало пробного периода, если он еще не начат.
	StartTrial(ctx context.Context, userUID string, startedAt time.Time) error
}

// AccountService реализует бизнес-логику статуса аккаунта.
type AccountService struct {
	repo AccountRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewAccountService создает новый экземпляр AccountService.
func NewAccountService(repo AccountRepository, log *slog.Logger) *AccountService {
	return &AccountService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// GetStatus возвращает статус аккаунта пользователя. Пробный период
// стартует лениво: первая проверка статуса фиксирует его начало.
func (s *AccountService) GetStatus(ctx context.Context, userUID string) (*models.AccountStatus, error) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}

	if user.IsPremium {
		return &models.AccountStatus{IsPremium: true}, nil
	}

	now := s.now()
	trialStart := user.TrialStartedAt
	if trialStart == nil {
		if err := s.repo.StartTrial(ctx, userUID, now); err != nil {
			return nil, err
		}
		s.log.Info("started trial period", slog.String("user_uid", userUID))
		trialStart = &now
	}

	trialEnd := trialStart.Add(TrialDuration)
	remaining := trialEnd.Sub(now)
	if remaining <= 0 {
		return &models.AccountStatus{NeedsPayment: true}, nil
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	return &models.AccountStatus{
		IsTrialActive: true,
		DaysRemaining: &days,
	}, nil
}
