package repository

import (
	"context"
	"fmt"

	"github.com/sequencia-app/sequencia/internal/models"
)

// CreatePost вставляет новый пост сообщества и возвращает его ID.
func (s *Storage) CreatePost(ctx context.Context, post models.Post) (string, error) {
	const op = "storage.CreatePost"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO posts (user_uid, content)
			  VALUES ($1, $2)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query, post.UserUID, post.Content).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListPosts возвращает посты сообщества с пагинацией, новые первыми.
func (s *Storage) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	const op = "storage.ListPosts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT p.id, p.user_uid, u.username, p.content, p.likes_count, p.created_at
			  FROM posts p
			  JOIN users u ON p.user_uid = u.uid
			  ORDER BY p.created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Post
	for rows.Next() {
		var item models.Post
		if err := rows.Scan(&item.ID, &item.UserUID, &item.Username,
			&item.Content, &item.LikesCount, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemovePost удаляет пост пользователя по ID и возвращает количество удалённых строк.
func (s *Storage) RemovePost(ctx context.Context, userUID, postID string) (int, error) {
	const op = "storage.RemovePost"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM posts WHERE id = $1 AND user_uid = $2`
	result, err := s.DB.ExecContext(ctx, query, postID, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// LikePost отмечает пост лайком пользователя. Повторный лайк того же
// пользователя не меняет счетчик. Возвращает актуальное значение likes_count.
func (s *Storage) LikePost(ctx context.Context, userUID, postID string) (int, error) {
	const op = "storage.LikePost"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	insert := `INSERT INTO post_likes (post_id, user_uid)
			   VALUES ($1, $2)
			   ON CONFLICT (post_id, user_uid) DO NOTHING`
	result, err := s.DB.ExecContext(ctx, insert, postID, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var likes int
	if inserted > 0 {
		update := `UPDATE posts SET likes_count = likes_count + 1
				   WHERE id = $1
				   RETURNING likes_count`
		if err := s.DB.QueryRowContext(ctx, update, postID).Scan(&likes); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return likes, nil
	}

	query := `SELECT likes_count FROM posts WHERE id = $1`
	if err := s.DB.QueryRowContext(ctx, query, postID).Scan(&likes); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return likes, nil
}
