// Package portal реализует HTTP-обработчик создания сессии портала
// управления подпиской.
package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/sequencia-app/sequencia/internal/http/middlewarectx"
	"github.com/sequencia-app/sequencia/internal/http/response"
	"github.com/sequencia-app/sequencia/internal/lib/sl"
	"github.com/sequencia-app/sequencia/internal/services/billing"
)

// Handler управляет HTTP-запросами на создание сессий портала.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики создания сессии портала.
type Service interface {
	CreatePortalSession(ctx context.Context, userUID string) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Открыть портал управления подпиской
// @Description Создает Stripe Billing Portal Session и возвращает URL для редиректа.
// @Tags Billing
// @Produce  json
// @Success 200 {object} map[string]any "URL портала"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "У пользователя нет платежного профиля"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /billing/portal [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.portal"
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

	url, err := h.service.CreatePortalSession(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, billing.ErrNoBillingCustomer) {
			log.Error("user has no billing customer", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no billing profile"))
			return
		}
		log.Error("failed to create portal session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create portal session"))
		return
	}

	log.Info("portal session created", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"url": url,
	}))
}
