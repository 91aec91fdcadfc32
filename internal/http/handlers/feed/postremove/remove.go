// Package postremove реализует HTTP-обработчик удаления публикации пользователя.
package postremove

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
	"github.com/sequencia-app/sequencia/internal/services/feed"
)

// Handler управляет HTTP-запросами на удаление публикаций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления публикации.
type Service interface {
	Remove(ctx context.Context, userUID, postID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить публикацию
// @Description Удаляет публикацию текущего пользователя из ленты.
// @Tags Feed
// @Produce  json
// @Param id path string true "ID публикации"
// @Success 200 {object} map[string]any "Успешное удаление"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Публикация не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /posts/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feed.postremove"
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

	postID := chi.URLParam(r, "id")
	if postID == "" {
		log.Error("missing post id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing post id"))
		return
	}

	if err := h.service.Remove(r.Context(), userUID, postID); err != nil {
		if errors.Is(err, feed.ErrPostNotFound) {
			log.Error("post not found", slog.String("post_id", postID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("post not found"))
			return
		}
		log.Error("failed to remove post", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove post"))
		return
	}

	log.Info("post removed", slog.String("post_id", postID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "post removed",
	}))
}
