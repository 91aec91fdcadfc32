// Package postlist реализует HTTP-обработчик чтения ленты сообщества с пагинацией.
package postlist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/sequencia-app/sequencia/internal/http/response"
	"github.com/sequencia-app/sequencia/internal/lib/sl"
	"github.com/sequencia-app/sequencia/internal/models"
)

// Handler управляет HTTP-запросами на чтение ленты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения ленты.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить ленту сообщества
// @Description Возвращает публикации ленты, новые первыми. Поддерживает пагинацию через limit и offset.
// @Tags Feed
// @Produce  json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Страница ленты"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /posts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feed.postlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	posts, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list posts"))
		return
	}

	log.Info("posts listed", slog.Int("count", len(posts)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"posts": posts,
		"count": len(posts),
	}))
}
