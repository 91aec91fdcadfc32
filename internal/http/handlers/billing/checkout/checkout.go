// Package checkout реализует HTTP-обработчик создания Checkout Session
// для оформления премиум-подписки.
package checkout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/sequencia-app/sequencia/internal/http/middlewarectx"
	"github.com/sequencia-app/sequencia/internal/http/response"
	"github.com/sequencia-app/sequencia/internal/lib/sl"
)

// Handler управляет HTTP-запросами на создание платежных сессий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики создания Checkout Session.
type Service interface {
	CreateCheckoutSession(ctx context.Context, userUID string) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Создать платежную сессию
// @Description Создает Stripe Checkout Session для оформления премиум-подписки и возвращает URL для редиректа.
// @Tags Billing
// @Produce  json
// @Success 200 {object} map[string]any "URL платежной сессии"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /billing/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	url, err := h.service.CreateCheckoutSession(r.Context(), userUID)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create checkout session"))
		return
	}

	log.Info("checkout session created", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"url": url,
	}))
}
