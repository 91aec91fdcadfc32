// Package habit содержит бизнес-логику привычек: создание, список со
// статистикой серий, отметку выполнения за сегодня и удаление.
package habit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sequencia-app/sequencia/internal/lib/streak"
	"github.com/sequencia-app/sequencia/internal/models"
	"github.com/sequencia-app/sequencia/internal/storage/repository"
)

// ErrHabitNotFound возвращается, когда привычка не существует или
// принадлежит другому пользователю.
var ErrHabitNotFound = errors.New("habit not found")

// HabitRepository определяет методы для работы с привычками в хранилище.
type HabitRepository interface {
	// CreateHabit добавляет новую привычку и возвращает её ID.
	CreateHabit(ctx context.Context, habit models.Habit) (string, error)
	// ListHabits возвращает активные привычки пользователя.
	ListHabits(ctx context.Context, userUID string) ([]*models.Habit, error)
	// RemoveHabit удаляет привычку пользователя и возвращает количество удалённых записей.
	RemoveHabit(ctx context.Context, userUID, habitID string) (int, error)
	// CreateLog добавляет отметку выполнения и возвращает её ID.
	CreateLog(ctx context.Context, habitLog models.HabitLog) (string, error)
	// ListLogs возвращает все отметки выполнения привычки.
	ListLogs(ctx context.Context, habitID string) ([]models.HabitLog, error)
	// DeleteLogsForDay удаляет отметки привычки за календарный день.
	DeleteLogsForDay(ctx context.Context, habitID string, day time.Time) (int, error)
	// GetHabitOwner возвращает UID владельца привычки.
	GetHabitOwner(ctx context.Context, habitID string) (string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// HabitService реализует бизнес-логику работы с привычками, включая
// кеширование статистики серий.
type HabitService struct {
	repo  HabitRepository
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// NewHabitService создает новый экземпляр HabitService.
func NewHabitService(repo HabitRepository, cache Cache, log *slog.Logger) *HabitService {
	return &HabitService{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// Create создает новую привычку для пользователя и возвращает её ID.
func (s *HabitService) Create(ctx context.Context, userUID string, req models.DummyHabit) (string, error) {
	habit := models.Habit{
		UserUID:     userUID,
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		Frequency:   req.Frequency,
		IsActive:    true,
	}

	id, err := s.repo.CreateHabit(ctx, habit)
	if err != nil {
		return "", err
	}

	s.log.Info("created new habit", slog.String("id", id), slog.String("user_uid", userUID))
	return id, nil
}

// List возвращает привычки пользователя вместе со статистикой серий.
// Статистика каждой привычки кешируется до конца календарного дня.
func (s *HabitService) List(ctx context.Context, userUID string) ([]*models.HabitWithStats, error) {
	habits, err := s.repo.ListHabits(ctx, userUID)
	if err != nil {
		return nil, err
	}

	asOf := s.now()
	result := make([]*models.HabitWithStats, 0, len(habits))
	for _, h := range habits {
		snapshot, err := s.habitStats(ctx, h.ID, asOf)
		if err != nil {
			return nil, err
		}
		result = append(result, &models.HabitWithStats{
			Habit:            *h,
			CurrentStreak:    snapshot.CurrentStreak,
			CompletedToday:   snapshot.CompletedToday,
			TotalCompletions: snapshot.TotalCompletions,
		})
	}
	return result, nil
}

// habitStats возвращает статистику привычки из кеша или пересчитывает её
// из полной истории отметок.
func (s *HabitService) habitStats(ctx context.Context, habitID string, asOf time.Time) (streak.Snapshot, error) {
	cacheKey := statsCacheKey(habitID, asOf)

	var snapshot streak.Snapshot
	found, err := s.cache.Get(cacheKey, &snapshot)
	if err != nil {
		s.log.Warn("failed to read stats from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return snapshot, nil
	}

	logs, err := s.repo.ListLogs(ctx, habitID)
	if err != nil {
		return streak.Snapshot{}, err
	}

	snapshot, err = streak.Compute(logs, asOf)
	if err != nil {
		return streak.Snapshot{}, err
	}

	if err := s.cache.Set(cacheKey, snapshot, time.Hour); err != nil {
		s.log.Warn("failed to cache habit stats", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return snapshot, nil
}

// Toggle переключает отметку выполнения привычки за сегодня. Возвращает
// true, если привычка стала выполненной, и false, если отметка снята.
func (s *HabitService) Toggle(ctx context.Context, userUID, habitID string) (bool, error) {
	if err := s.checkOwner(ctx, userUID, habitID); err != nil {
		return false, err
	}

	today := s.now()
	s.invalidateStats(habitID, today)

	deleted, err := s.repo.DeleteLogsForDay(ctx, habitID, today)
	if err != nil {
		return false, err
	}
	if deleted > 0 {
		s.log.Info("habit unchecked for today", slog.String("habit_id", habitID))
		return false, nil
	}

	_, err = s.repo.CreateLog(ctx, models.HabitLog{
		HabitID:     habitID,
		UserUID:     userUID,
		CompletedAt: today,
	})
	if err != nil {
		return false, err
	}

	s.log.Info("habit checked for today", slog.String("habit_id", habitID))
	return true, nil
}

// Remove удаляет привычку пользователя.
func (s *HabitService) Remove(ctx context.Context, userUID, habitID string) error {
	s.invalidateStats(habitID, s.now())

	count, err := s.repo.RemoveHabit(ctx, userUID, habitID)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrHabitNotFound
	}

	s.log.Info("removed habit", slog.String("habit_id", habitID))
	return nil
}

// checkOwner проверяет, что привычка принадлежит пользователю.
func (s *HabitService) checkOwner(ctx context.Context, userUID, habitID string) error {
	owner, err := s.repo.GetHabitOwner(ctx, habitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrHabitNotFound
		}
		return err
	}
	if owner != userUID {
		return ErrHabitNotFound
	}
	return nil
}

func (s *HabitService) invalidateStats(habitID string, asOf time.Time) {
	cacheKey := statsCacheKey(habitID, asOf)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate stats cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
}

// statsCacheKey включает календарный день, чтобы кеш не пережил полночь.
func statsCacheKey(habitID string, asOf time.Time) string {
	return fmt.Sprintf("habit:stats:%s:%s", habitID, asOf.UTC().Format("2006-01-02"))
}
