// Package postlike реализует HTTP-обработчик лайка публикации.
package postlike

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/sequencia-app/sequencia/internal/http/middlewarectx"
	"github.com/sequencia-app/sequencia/internal/http/response"
	"github.com/sequencia-app/sequencia/internal/lib/sl"
)

// Handler управляет HTTP-запросами на лайк публикаций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики лайков.
type Service interface {
	Like(ctx context.Context, userUID, postID string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Поставить лайк публикации
// @Description Ставит лайк от имени текущего пользователя. Повторный лайк не меняет счетчик.
// @Tags Feed
// @Produce  json
// @Param id path string true "ID публикации"
// @Success 200 {object} map[string]any "Текущее число лайков"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /posts/{id}/like [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feed.postlike"
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

	count, err := h.service.Like(r.Context(), userUID, postID)
	if err != nil {
		log.Error("failed to like post", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not like post"))
		return
	}

	log.Info("post liked", slog.String("post_id", postID), slog.Int("likes", count))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"likes_count": count,
	}))
}
