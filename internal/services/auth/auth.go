// Package auth содержит бизнес-логику регистрации и аутентификации пользователей.
package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sequencia-app/sequencia/internal/lib/jwt"
	"github.com/sequencia-app/sequencia/internal/lib/password"
	"github.com/sequencia-app/sequencia/internal/models"
)

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByUsername возвращает пользователя по имени.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// JWTMaker определяет методы для создания и проверки токенов.
type JWTMaker interface {
	// GenerateToken создает новый JWT для пользователя.
	GenerateToken(username, role, useruid string) (string, error)
	// ParseToken проверяет токен и возвращает его клеймы.
	ParseToken(token string) (*jwt.CustomClaims, error)
}

// AuthService реализует бизнес-логику аутентификации.
type AuthService struct {
	repo     UserRepository
	jwtMaker JWTMaker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(repo UserRepository, jwtMaker JWTMaker) *AuthService {
	return &AuthService{repo: repo, jwtMaker: jwtMaker}
}

// Register регистрирует нового пользователя и возвращает его UID.
func (a *AuthService) Register(ctx context.Context, email, username, pass string) (string, error) {
	passwordHash, err := password.GetHash(pass)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		UID:                uuid.NewString(),
		Email:              email,
		Username:           username,
		PasswordHash:       passwordHash,
		Role:               "user",
		SubscriptionStatus: "none",
	}

	userUID, err := a.repo.RegisterUser(ctx, user)
	if err != nil {
		return "", err
	}
	return userUID, nil
}

// Login проверяет учетные данные и возвращает JWT.
func (a *AuthService) Login(ctx context.Context, username, pass string) (string, error) {
	user, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := password.CompareHash(user.PasswordHash, pass); err != nil {
		return "", fmt.Errorf("invalid credentials: %w", err)
	}

	token, err := a.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// ValidateToken проверяет JWT и возвращает его клеймы.
func (a *AuthService) ValidateToken(token string) (*jwt.CustomClaims, error) {
	claims, err := a.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
