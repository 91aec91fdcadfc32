package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sequencia-app/sequencia/internal/config"
	"github.com/sequencia-app/sequencia/internal/models"
	"github.com/sequencia-app/sequencia/internal/rabbitmq"
	"github.com/sequencia-app/sequencia/internal/storage/repository"
	"github.com/sequencia-app/sequencia/internal/stripeapi"
)

// ErrNoBillingCustomer возвращается при попытке открыть портал для
// пользователя, у которого еще нет Stripe-клиента.
var ErrNoBillingCustomer = errors.New("user has no billing customer")

// SessionCreator определяет методы Stripe API для создания платежных сессий.
type SessionCreator interface {
	// CreateCheckoutSession создает Checkout Session в режиме подписки.
	CreateCheckoutSession(ctx context.Context, params stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
	// CreatePortalSession создает сессию self-service портала.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripeapi.PortalSession, error)
}

// QueuePublisher публикует сообщения в брокер уведомлений.
type QueuePublisher interface {
	// Publish отправляет сообщение с указанным ключом маршрутизации.
	Publish(routingKey string, message any) error
}

// Service реализует бизнес-логику биллинга: обработку webhook-событий
// и создание платежных сессий.
type Service struct {
	reconciler *Reconciler
	repo       BillingRepository
	stripe     SessionCreator
	publisher  QueuePublisher
	cfg        *config.Config
	log        *slog.Logger
}

// New создает новый экземпляр Service.
func New(reconciler *Reconciler, repo BillingRepository, stripe SessionCreator,
	publisher QueuePublisher, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		reconciler: reconciler,
		repo:       repo,
		stripe:     stripe,
		publisher:  publisher,
		cfg:        cfg,
		log:        log,
	}
}

// ProcessEvent разбирает сырое webhook-сообщение, строит и применяет план
// изменений. Вызывающий различает исходы через errors.Is: ErrUnknownEvent
// и ErrUnresolvedUser не требуют повторной доставки события.
func (s *Service) ProcessEvent(ctx context.Context, payload []byte) error {
	const op = "services.billing.ProcessEvent"

	evt, err := ParseEvent(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("processing billing event", slog.String("type", evt.EventType()))

	plan, err := s.reconciler.Reconcile(ctx, evt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if plan.IsEmpty() {
		return nil
	}

	wasPremium := false
	if plan.Premium != nil && plan.Premium.IsPremium {
		if user, getErr := s.repo.GetUser(ctx, plan.Premium.UserUID); getErr == nil {
			wasPremium = user.IsPremium
		}
	}

	if err := s.reconciler.Apply(ctx, plan); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if plan.Premium != nil && plan.Premium.IsPremium && !wasPremium {
		s.publishWelcome(ctx, plan.Premium.UserUID)
	}

	return nil
}

// publishWelcome ставит приветственное письмо в очередь. Ошибка публикации
// не прерывает обработку события, письмо не критично.
func (s *Service) publishWelcome(ctx context.Context, userUID string) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to load user for welcome email",
			slog.String("user_uid", userUID), slog.Any("err", err))
		return
	}

	msg := models.PremiumWelcome{Email: user.Email, Username: user.Username}
	if err := s.publisher.Publish(rabbitmq.PremiumWelcomeRoutingKey, msg); err != nil {
		s.log.Warn("failed to publish welcome email",
			slog.String("user_uid", userUID), slog.Any("err", err))
		return
	}
	s.log.Info("queued premium welcome email", slog.String("user_uid", userUID))
}

// CreateCheckoutSession создает Checkout Session для пользователя и
// возвращает URL для редиректа.
func (s *Service) CreateCheckoutSession(ctx context.Context, userUID string) (string, error) {
	const op = "services.billing.CreateCheckoutSession"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, stripeapi.CheckoutSessionParams{
		PriceID:         s.cfg.StripePriceID,
		UserUID:         user.UID,
		CustomerEmail:   user.Email,
		SuccessURL:      s.cfg.CheckoutSuccessURL,
		CancelURL:       s.cfg.CheckoutCancelURL,
		TrialPeriodDays: 7,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created checkout session",
		slog.String("user_uid", userUID), slog.String("session_id", session.ID))
	return session.URL, nil
}

// CreatePortalSession создает сессию портала управления подпиской.
// Возвращает ErrNoBillingCustomer, если пользователь еще не платил.
func (s *Service) CreatePortalSession(ctx context.Context, userUID string) (string, error) {
	const op = "services.billing.CreatePortalSession"

	customerID, err := s.repo.GetCustomerIDByUserUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrNoBillingCustomer)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.stripe.CreatePortalSession(ctx, customerID, s.cfg.PortalReturnURL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created portal session", slog.String("user_uid", userUID))
	return session.URL, nil
}
