// Package register реализует HTTP-обработчик регистрации нового пользователя.
package register

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

// Request — входные данные для регистрации
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, email, username, password string) (string, error)
}

// Handler управляет HTTP-запросами на регистрацию пользователей.
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
// @Summary Зарегистрировать нового пользователя
// @Description Создает нового пользователя и возвращает его UID.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 200 {object} map[string]any "Успешная регистрация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при регистрации"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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
	log.Info("request body decoded", slog.String("username", req.Username))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	userUID, err := h.service.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register user"))
		return
	}

	log.Info("user registered", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user_uid": userUID,
		"username": req.Username,
		"message":  "user created successfully",
	}))
}
