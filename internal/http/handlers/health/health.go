// Package health реализует HTTP-обработчик проверки живости сервиса.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/sequencia-app/sequencia/internal/http/response"
)

// Handler отвечает на запросы проверки живости.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{
		log: log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}
