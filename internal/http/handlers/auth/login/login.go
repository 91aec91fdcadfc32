// Package login реализует HTTP-обработчик входа пользователя и выдачи JWT.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/sequencia-app/sequencia/internal/http/response"
	"github.com/sequencia-app/sequencia/internal/lib/sl"
)

// Request — входные данные для входа
type Request struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Handler управляет HTTP-запросами на вход пользователей.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Войти в систему
// @Description Проверяет учетные данные и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные"
// @Success 200 {object} map[string]any "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid username or password"))
		return
	}

	log.Info("user logged in", slog.String("username", req.Username))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
	}))
}
