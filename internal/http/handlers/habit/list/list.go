// Package list реализует HTTP-обработчик списка привычек пользователя
// со статистикой серий.
package list

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

// Handler управляет HTTP-запросами на чтение списка привычек.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения привычек.
type Service interface {
	List(ctx context.Context, userUID string) ([]*models.HabitWithStats, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить список привычек
// @Description Возвращает привычки текущего пользователя со статистикой серий.
// @Tags Habits
// @Produce  json
// @Success 200 {object} map[string]any "Список привычек"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /habits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.habit.list"
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

	habits, err := h.service.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list habits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list habits"))
		return
	}

	log.Info("habits listed", slog.Int("count", len(habits)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"habits": habits,
		"count":  len(habits),
	}))
}
