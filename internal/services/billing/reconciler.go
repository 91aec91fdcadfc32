package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sequencia-app/sequencia/internal/models"
	"github.com/sequencia-app/sequencia/internal/storage/repository"
	"github.com/sequencia-app/sequencia/internal/stripeapi"
)

// ErrUnresolvedUser возвращается, когда событие не удалось сопоставить
// ни с одним локальным пользователем.
var ErrUnresolvedUser = errors.New("could not resolve event to a local user")

// BillingRepository определяет методы хранилища, которые нужны биллингу.
type BillingRepository interface {
	// FindUserUIDByEmail ищет пользователя по email.
	FindUserUIDByEmail(ctx context.Context, email string) (string, error)
	// FindUserUIDByCustomerID ищет пользователя по известной связке со Stripe-клиентом.
	FindUserUIDByCustomerID(ctx context.Context, customerID string) (string, error)
	// UpsertBillingCustomer сохраняет связку пользователь - Stripe-клиент.
	UpsertBillingCustomer(ctx context.Context, mapping models.BillingCustomer) error
	// UpsertSubscription сохраняет состояние подписки по stripe_subscription_id.
	UpsertSubscription(ctx context.Context, sub models.Subscription) error
	// MarkSubscriptionCanceled выставляет терминальный статус canceled,
	// не меняя price/period поля записи.
	MarkSubscriptionCanceled(ctx context.Context, sub models.Subscription) error
	// UpdatePremium обновляет премиум-флаг и статус подписки пользователя.
	UpdatePremium(ctx context.Context, userUID string, isPremium bool, status string) error
	// GetCustomerIDByUserUID возвращает Stripe-клиента пользователя.
	GetCustomerIDByUserUID(ctx context.Context, userUID string) (string, error)
	// GetSubscriptionByUserUID возвращает последнюю подписку пользователя.
	GetSubscriptionByUserUID(ctx context.Context, userUID string) (*models.Subscription, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// CustomerFetcher запрашивает данные клиента у Stripe, когда событие
// не содержит email.
type CustomerFetcher interface {
	// GetCustomer возвращает клиента Stripe по идентификатору.
	GetCustomer(ctx context.Context, customerID string) (*stripeapi.Customer, error)
}

// PremiumChange описывает изменение премиум-статуса пользователя.
type PremiumChange struct {
	UserUID   string
	IsPremium bool
	Status    string
}

// Plan — набор записей, которые нужно применить к хранилищу по итогам
// одного события. Пустой план означает no-op.
type Plan struct {
	CustomerMapping *models.BillingCustomer
	Subscription    *models.Subscription
	// CanceledSubscription помечает подписку отмененной, не перезаписывая
	// price/period поля: событие deleted их не несет.
	CanceledSubscription *models.Subscription
	Premium              *PremiumChange
}

// IsEmpty сообщает, что применять нечего.
func (p Plan) IsEmpty() bool {
	return p.CustomerMapping == nil && p.Subscription == nil &&
		p.CanceledSubscription == nil && p.Premium == nil
}

// Reconciler сопоставляет webhook-события Stripe с локальным пользователем
// и строит план изменений состояния подписки.
type Reconciler struct {
	repo     BillingRepository
	customer CustomerFetcher
	log      *slog.Logger
}

// NewReconciler создает новый экземпляр Reconciler.
func NewReconciler(repo BillingRepository, customer CustomerFetcher, log *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		customer: customer,
		log:      log,
	}
}

// Reconcile строит план изменений по событию. Если событие не удалось
// сопоставить с пользователем, возвращает ErrUnresolvedUser — записи
// при этом не планируются вовсе.
func (r *Reconciler) Reconcile(ctx context.Context, evt Event) (Plan, error) {
	const op = "services.billing.Reconcile"

	switch e := evt.(type) {
	case CheckoutCompleted:
		userUID, err := r.resolveUser(ctx, e.UserUID, e.CustomerEmail, e.CustomerID)
		if err != nil {
			return Plan{}, fmt.Errorf("%s: %w", op, err)
		}
		plan := Plan{
			CustomerMapping: &models.BillingCustomer{
				UserUID:          userUID,
				StripeCustomerID: e.CustomerID,
			},
			Premium: &PremiumChange{UserUID: userUID, IsPremium: true, Status: "active"},
		}
		if e.SubscriptionID != "" {
			plan.Subscription = &models.Subscription{
				StripeSubscriptionID: e.SubscriptionID,
				StripeCustomerID:     e.CustomerID,
				UserUID:              userUID,
				Status:               "active",
				Quantity:             1,
			}
		}
		return plan, nil

	case SubscriptionChanged:
		userUID, err := r.resolveUser(ctx, e.UserUID, "", e.CustomerID)
		if err != nil {
			return Plan{}, fmt.Errorf("%s: %w", op, err)
		}
		return Plan{
			CustomerMapping: &models.BillingCustomer{
				UserUID:          userUID,
				StripeCustomerID: e.CustomerID,
			},
			Subscription: &models.Subscription{
				StripeSubscriptionID: e.SubscriptionID,
				StripeCustomerID:     e.CustomerID,
				UserUID:              userUID,
				Status:               e.Status,
				PriceID:              e.PriceID,
				Quantity:             e.Quantity,
				CancelAtPeriodEnd:    e.CancelAtPeriodEnd,
				CurrentPeriodStart:   e.PeriodStart,
				CurrentPeriodEnd:     e.PeriodEnd,
			},
			Premium: &PremiumChange{
				UserUID:   userUID,
				IsPremium: models.IsPremiumStatus(e.Status),
				Status:    e.Status,
			},
		}, nil

	case SubscriptionDeleted:
		userUID, err := r.resolveUser(ctx, e.UserUID, "", e.CustomerID)
		if err != nil {
			return Plan{}, fmt.Errorf("%s: %w", op, err)
		}
		return Plan{
			CanceledSubscription: &models.Subscription{
				StripeSubscriptionID: e.SubscriptionID,
				StripeCustomerID:     e.CustomerID,
				UserUID:              userUID,
				Status:               "canceled",
			},
			Premium: &PremiumChange{UserUID: userUID, IsPremium: false, Status: "canceled"},
		}, nil

	case InvoicePaymentSucceeded:
		// Оплата очередного счета подтверждает активность подписки,
		// но периоды действия приходят только в subscription-событиях.
		userUID, err := r.resolveUser(ctx, "", e.CustomerEmail, e.CustomerID)
		if err != nil {
			return Plan{}, fmt.Errorf("%s: %w", op, err)
		}
		return Plan{
			Premium: &PremiumChange{UserUID: userUID, IsPremium: true, Status: "active"},
		}, nil

	default:
		return Plan{}, fmt.Errorf("%s: %T: %w", op, evt, ErrUnknownEvent)
	}
}

// resolveUser определяет локального пользователя для события. Источники
// проверяются по порядку: user_uid из metadata, email из события, email
// клиента из Stripe API, сохраненная связка со Stripe-клиентом. Первый
// сработавший источник выигрывает.
func (r *Reconciler) resolveUser(ctx context.Context, metadataUID, email, customerID string) (string, error) {
	if metadataUID != "" {
		return metadataUID, nil
	}

	if email != "" {
		uid, err := r.repo.FindUserUIDByEmail(ctx, email)
		if err == nil {
			return uid, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
	}

	if customerID != "" {
		uid, err := r.repo.FindUserUIDByCustomerID(ctx, customerID)
		if err == nil {
			return uid, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}

		if email == "" && r.customer != nil {
			customer, fetchErr := r.customer.GetCustomer(ctx, customerID)
			if fetchErr != nil {
				r.log.Warn("failed to fetch customer from stripe",
					slog.String("customer_id", customerID), slog.Any("err", fetchErr))
			} else if customer.Email != "" {
				uid, err = r.repo.FindUserUIDByEmail(ctx, customer.Email)
				if err == nil {
					return uid, nil
				}
				if !errors.Is(err, repository.ErrNotFound) {
					return "", err
				}
			}
		}
	}

	return "", ErrUnresolvedUser
}

// Apply применяет план к хранилищу. Порядок фиксирован: сначала связка
// с клиентом, затем подписка, затем премиум-статус пользователя, чтобы
// повторная доставка того же события оставалась идемпотентной.
func (r *Reconciler) Apply(ctx context.Context, plan Plan) error {
	const op = "services.billing.Apply"

	if plan.CustomerMapping != nil {
		if err := r.repo.UpsertBillingCustomer(ctx, *plan.CustomerMapping); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if plan.Subscription != nil {
		if err := r.repo.UpsertSubscription(ctx, *plan.Subscription); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if plan.CanceledSubscription != nil {
		if err := r.repo.MarkSubscriptionCanceled(ctx, *plan.CanceledSubscription); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if plan.Premium != nil {
		if err := r.repo.UpdatePremium(ctx, plan.Premium.UserUID, plan.Premium.IsPremium, plan.Premium.Status); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
