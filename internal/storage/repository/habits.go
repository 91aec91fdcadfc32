package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sequencia-app/sequencia/internal/models"
)

// CreateHabit вставляет новую привычку и возвращает её ID.
func (s *Storage) CreateHabit(ctx context.Context, habit models.Habit) (string, error) {
	const op = "storage.CreateHabit"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO habits (user_uid, title, description, icon, color, frequency, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		habit.UserUID, habit.Title, habit.Description, habit.Icon,
		habit.Color, habit.Frequency, habit.IsActive).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListHabits возвращает активные привычки пользователя, новые первыми.
func (s *Storage) ListHabits(ctx context.Context, userUID string) ([]*models.Habit, error) {
	const op = "storage.ListHabits"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, title, description, icon, color, frequency, is_active, created_at
			  FROM habits
			  WHERE user_uid = $1 AND is_active = true
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Habit
	for rows.Next() {
		var item models.Habit
		if err := rows.Scan(&item.ID, &item.UserUID, &item.Title, &item.Description,
			&item.Icon, &item.Color, &item.Frequency, &item.IsActive, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveHabit удаляет привычку пользователя по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveHabit(ctx context.Context, userUID, habitID string) (int, error) {
	const op = "storage.RemoveHabit"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM habits WHERE id = $1 AND user_uid = $2`
	result, err := s.DB.ExecContext(ctx, query, habitID, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// CreateLog вставляет отметку выполнения привычки и возвращает её ID.
func (s *Storage) CreateLog(ctx context.Context, habitLog models.HabitLog) (string, error) {
	const op = "storage.CreateLog"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO habit_logs (habit_id, user_uid, completed_at)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		habitLog.HabitID, habitLog.UserUID, habitLog.CompletedAt).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListLogs возвращает все отметки выполнения одной привычки.
func (s *Storage) ListLogs(ctx context.Context, habitID string) ([]models.HabitLog, error) {
	const op = "storage.ListLogs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, habit_id, user_uid, completed_at
			  FROM habit_logs
			  WHERE habit_id = $1
			  ORDER BY completed_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, habitID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.HabitLog
	for rows.Next() {
		var item models.HabitLog
		if err := rows.Scan(&item.ID, &item.HabitID, &item.UserUID, &item.CompletedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteLogsForDay удаляет отметки привычки за календарный день, в который
// попадает момент day, и возвращает количество удалённых строк.
func (s *Storage) DeleteLogsForDay(ctx context.Context, habitID string, day time.Time) (int, error) {
	const op = "storage.DeleteLogsForDay"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `DELETE FROM habit_logs
			  WHERE habit_id = $1
			    AND completed_at >= $2
			    AND completed_at < $3`
	result, err := s.DB.ExecContext(ctx, query, habitID, dayStart, dayEnd)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// GetHabitOwner возвращает UID владельца привычки
// или ErrNotFound, если привычки не существует.
func (s *Storage) GetHabitOwner(ctx context.Context, habitID string) (string, error) {
	const op = "storage.GetHabitOwner"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid FROM habits WHERE id = $1`
	var ownerUID string
	err := s.DB.QueryRowContext(ctx, query, habitID).Scan(&ownerUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return ownerUID, nil
}
