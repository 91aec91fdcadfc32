// Package feed содержит бизнес-логику ленты сообщества: публикации,
// их удаление и лайки.
package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sequencia-app/sequencia/internal/models"
)

// ErrPostNotFound возвращается, когда публикация не существует или
// принадлежит другому пользователю.
var ErrPostNotFound = errors.New("post not found")

// DefaultPageSize ограничивает размер страницы ленты.
const DefaultPageSize = 50

// FeedRepository определяет методы для работы с публикациями в хранилище.
type FeedRepository interface {
	// CreatePost добавляет новую публикацию и возвращает её ID.
	CreatePost(ctx context.Context, post models.Post) (string, error)
	// ListPosts возвращает публикации с пагинацией, новые первыми.
	ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error)
	// RemovePost удаляет публикацию пользователя и возвращает количество удалённых записей.
	RemovePost(ctx context.Context, userUID, postID string) (int, error)
	// LikePost ставит лайк от пользователя и возвращает текущее число лайков.
	LikePost(ctx context.Context, userUID, postID string) (int, error)
}

// FeedService реализует бизнес-логику ленты сообщества.
type FeedService struct {
	repo FeedRepository
	log  *slog.Logger
}

// NewFeedService создает новый экземпляр FeedService.
func NewFeedService(repo FeedRepository, log *slog.Logger) *FeedService {
	return &FeedService{repo: repo, log: log}
}

// Create создает публикацию от имени пользователя и возвращает её ID.
func (s *FeedService) Create(ctx context.Context, userUID string, req models.DummyPost) (string, error) {
	post := models.Post{
		UserUID: userUID,
		Content: req.Content,
	}

	id, err := s.repo.CreatePost(ctx, post)
	if err != nil {
		return "", err
	}

	s.log.Info("created new post", slog.String("id", id), slog.String("user_uid", userUID))
	return id, nil
}

// List возвращает страницу ленты, новые публикации первыми.
func (s *FeedService) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > DefaultPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPosts(ctx, limit, offset)
}

// Remove удаляет публикацию пользователя.
func (s *FeedService) Remove(ctx context.Context, userUID, postID string) error {
	count, err := s.repo.RemovePost(ctx, userUID, postID)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrPostNotFound
	}

	s.log.Info("removed post", slog.String("post_id", postID))
	return nil
}

// Like ставит лайк публикации от имени пользователя. Повторный лайк
// не меняет счетчик. Возвращает текущее число лайков.
func (s *FeedService) Like(ctx context.Context, userUID, postID string) (int, error) {
	count, err := s.repo.LikePost(ctx, userUID, postID)
	if err != nil {
		return 0, err
	}
	return count, nil
}
