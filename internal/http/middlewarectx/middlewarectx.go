// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
// и в случае успеха добавляет в контекст имя пользователя, его UID и роль
// для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/sequencia-app/sequencia/internal/http/response"
	"github.com/sequencia-app/sequencia/internal/lib/jwt"
	"github.com/sequencia-app/sequencia/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для имени пользователя в контексте
	User Key = "username"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
	// UserUID — ключ для уникального идентификатора пользователя в контексте
	UserUID Key = "user_uid"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(token string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет имя пользователя, UID и роль в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "auth.Jwtmiddleware"
			authHeader := r.Header.Get("Authorization")

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := authService.ValidateToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), User, claims.Username)
			ctx = context.WithValue(ctx, Role, claims.Role)
			ctx = context.WithValue(ctx, UserUID, claims.UserUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
