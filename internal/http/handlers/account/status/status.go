// Package status реализует HTTP-обработчик статуса аккаунта: премиум,
// пробный период и необходимость оплаты.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/sequencia-app/sequencia/internal/http/middlewarectx"
	"github.com/sequencia-app/sequencia/internal/http/response"
	"github.com/sequencia-app/sequencia/internal/lib/sl"
	"github.com/sequencia-app/sequencia/internal/models"
)

// Handler управляет HTTP-запросами на чтение статуса аккаунта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики статуса аккаунта.
type Service interface {
	GetStatus(ctx context.Context, userUID string) (*models.AccountStatus, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить статус аккаунта
// @Description Возвращает премиум-статус, состояние пробного периода и необходимость оплаты.
// @Tags Account
// @Produce  json
// @Success 200 {object} map[string]any "Статус аккаунта"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /account/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.status"
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

	status, err := h.service.GetStatus(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get account status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get account status"))
		return
	}

	render.JSON(w, r, response.OKWithData(status))
}
