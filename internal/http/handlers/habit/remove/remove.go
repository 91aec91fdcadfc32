// Package remove реализует HTTP-обработчик удаления привычки пользователя.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/sequencia-app/sequencia/internal/http/middlewarectx"
	"github.com/sequencia-app/sequencia/internal/http/response"
	"github.com/sequencia-app/sequencia/internal/lib/sl"
	"github.com/sequencia-app/sequencia/internal/services/habit"
)

// Handler управляет HTTP-запросами на удаление привычек.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления привычки.
type Service interface {
	Remove(ctx context.Context, userUID, habitID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить привычку
// @Description Удаляет привычку текущего пользователя вместе с историей отметок.
// @Tags Habits
// @Produce  json
// @Param id path string true "ID привычки"
// @Success 200 {object} map[string]any "Успешное удаление"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Привычка не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /habits/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.habit.remove"
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

	habitID := chi.URLParam(r, "id")
	if habitID == "" {
		log.Error("missing habit id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing habit id"))
		return
	}

	if err := h.service.Remove(r.Context(), userUID, habitID); err != nil {
		if errors.Is(err, habit.ErrHabitNotFound) {
			log.Error("habit not found", slog.String("habit_id", habitID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("habit not found"))
			return
		}
		log.Error("failed to remove habit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove habit"))
		return
	}

	log.Info("habit removed", slog.String("habit_id", habitID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "habit removed",
	}))
}
