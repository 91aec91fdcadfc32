// Package webhook реализует HTTP-обработчик webhook-событий Stripe.
//
// Обработчик проверяет подпись из заголовка Stripe-Signature по сырому телу
// запроса, передает событие в сервис биллинга и отвечает так, чтобы Stripe
// повторял доставку только при сбоях на нашей стороне: неизвестные события
// и события без локального пользователя подтверждаются с кодом 200.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sequencia-app/sequencia/internal/http/response"
	"github.com/sequencia-app/sequencia/internal/lib/sl"
	"github.com/sequencia-app/sequencia/internal/services/billing"
	"github.com/sequencia-app/sequencia/internal/stripeapi"
)

var webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stripe_webhook_events_total",
	Help: "Total number of Stripe webhook deliveries by outcome.",
}, []string{"outcome"})

// Service описывает интерфейс бизнес-логики обработки событий.
type Service interface {
	ProcessEvent(ctx context.Context, payload []byte) error
}

// Handler управляет HTTP-запросами вебхуков Stripe.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создает новый Handler с переданными логгером, сервисом и секретом подписи.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// ServeHTTP godoc
// @Summary Принять webhook-событие Stripe
// @Description Проверяет подпись Stripe-Signature и согласует событие с локальным состоянием подписки.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Success 200 {object} map[string]any "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Невалидная подпись или тело"
// @Failure 500 {object} response.ErrorResponse "Сбой при сохранении, Stripe повторит доставку"
// @Router /webhooks/stripe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		webhookEventsTotal.WithLabelValues("bad_request").Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read body"))
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()

	signature := r.Header.Get("Stripe-Signature")
	if err := stripeapi.VerifySignature(body, signature, h.webhookSecret,
		stripeapi.DefaultSignatureTolerance, time.Now()); err != nil {
		log.Error("invalid or missing webhook signature", sl.Err(err))
		webhookEventsTotal.WithLabelValues("bad_signature").Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	if err := h.service.ProcessEvent(r.Context(), body); err != nil {
		switch {
		case errors.Is(err, billing.ErrUnknownEvent):
			// Неизвестные типы подтверждаем, чтобы Stripe их не повторял.
			log.Info("ignored webhook event", sl.Err(err))
			webhookEventsTotal.WithLabelValues("ignored").Inc()
		case errors.Is(err, billing.ErrUnresolvedUser):
			log.Warn("webhook event without local user", sl.Err(err))
			webhookEventsTotal.WithLabelValues("unresolved").Inc()
		default:
			log.Error("failed to process webhook event", sl.Err(err))
			webhookEventsTotal.WithLabelValues("failed").Inc()
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to process event"))
			return
		}
	} else {
		webhookEventsTotal.WithLabelValues("processed").Inc()
	}

	log.Info("webhook acknowledged")
	render.JSON(w, r, map[string]any{"received": true})
}
