package habit_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sequencia-app/sequencia/internal/models"
	"github.com/sequencia-app/sequencia/internal/services/habit"
	"github.com/sequencia-app/sequencia/internal/storage/repository"
)

// Мок для HabitRepository
type HabitRepoMock struct {
	mock.Mock
}

func (m *HabitRepoMock) CreateHabit(ctx context.Context, h models.Habit) (string, error) {
	args := m.Called(ctx, h)
	return args.String(0), args.Error(1)
}

func (m *HabitRepoMock) ListHabits(ctx context.Context, userUID string) ([]*models.Habit, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Habit), args.Error(1)
}

func (m *HabitRepoMock) RemoveHabit(ctx context.Context, userUID, habitID string) (int, error) {
	args := m.Called(ctx, userUID, habitID)
	return args.Int(0), args.Error(1)
}

func (m *HabitRepoMock) CreateLog(ctx context.Context, habitLog models.HabitLog) (string, error) {
	args := m.Called(ctx, habitLog)
	return args.String(0), args.Error(1)
}

func (m *HabitRepoMock) ListLogs(ctx context.Context, habitID string) ([]models.HabitLog, error) {
	args := m.Called(ctx, habitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HabitLog), args.Error(1)
}

func (m *HabitRepoMock) DeleteLogsForDay(ctx context.Context, habitID string, day time.Time) (int, error) {
	args := m.Called(ctx, habitID, day)
	return args.Int(0), args.Error(1)
}

func (m *HabitRepoMock) GetHabitOwner(ctx context.Context, habitID string) (string, error) {
	args := m.Called(ctx, habitID)
	return args.String(0), args.Error(1)
}

// Мок для Cache
type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// noopCache пропускает все обращения мимо кеша.
type noopCache struct{}

func (noopCache) Get(string, any) (bool, error)        { return false, nil }
func (noopCache) Set(string, any, time.Duration) error { return nil }
func (noopCache) Invalidate(string) error              { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHabitService_Create(t *testing.T) {
	repo := new(HabitRepoMock)
	repo.On("CreateHabit", mock.Anything, mock.MatchedBy(func(h models.Habit) bool {
		return h.UserUID == "uid-1" && h.Title == "Morning run" && h.IsActive
	})).Return("habit-1", nil).Once()

	svc := habit.NewHabitService(repo, noopCache{}, testLogger())
	id, err := svc.Create(context.Background(), "uid-1", models.DummyHabit{Title: "Morning run", Icon: "🏃", Color: "#10b981", Frequency: "daily"})

	require.NoError(t, err)
	assert.Equal(t, "habit-1", id)
	repo.AssertExpectations(t)
}

func TestHabitService_List(t *testing.T) {
	now := time.Now().UTC()

	t.Run("computes streak from logs", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("ListHabits", mock.Anything, "uid-1").
			Return([]*models.Habit{{ID: "habit-1", UserUID: "uid-1", Title: "Read"}}, nil).Once()
		repo.On("ListLogs", mock.Anything, "habit-1").
			Return([]models.HabitLog{
				{ID: "log-1", HabitID: "habit-1", CompletedAt: now},
				{ID: "log-2", HabitID: "habit-1", CompletedAt: now.AddDate(0, 0, -1)},
				{ID: "log-3", HabitID: "habit-1", CompletedAt: now.AddDate(0, 0, -2)},
			}, nil).Once()

		svc := habit.NewHabitService(repo, noopCache{}, testLogger())
		habits, err := svc.List(context.Background(), "uid-1")

		require.NoError(t, err)
		require.Len(t, habits, 1)
		assert.Equal(t, 3, habits[0].CurrentStreak)
		assert.True(t, habits[0].CompletedToday)
		assert.Equal(t, 3, habits[0].TotalCompletions)
		repo.AssertExpectations(t)
	})

	t.Run("serves stats from cache without reading logs", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("ListHabits", mock.Anything, "uid-1").
			Return([]*models.Habit{{ID: "habit-1", UserUID: "uid-1", Title: "Read"}}, nil).Once()
		cache := new(CacheMock)
		cache.On("Get", mock.Anything, mock.Anything).Return(true, nil).Once()

		svc := habit.NewHabitService(repo, cache, testLogger())
		_, err := svc.List(context.Background(), "uid-1")

		require.NoError(t, err)
		repo.AssertNotCalled(t, "ListLogs", mock.Anything, mock.Anything)
	})

	t.Run("empty list", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("ListHabits", mock.Anything, "uid-1").Return([]*models.Habit{}, nil).Once()

		svc := habit.NewHabitService(repo, noopCache{}, testLogger())
		habits, err := svc.List(context.Background(), "uid-1")

		require.NoError(t, err)
		assert.Empty(t, habits)
	})
}

func TestHabitService_Toggle(t *testing.T) {
	t.Run("checks habit when no log exists today", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("GetHabitOwner", mock.Anything, "habit-1").Return("uid-1", nil).Once()
		repo.On("DeleteLogsForDay", mock.Anything, "habit-1", mock.Anything).Return(0, nil).Once()
		repo.On("CreateLog", mock.Anything, mock.MatchedBy(func(l models.HabitLog) bool {
			return l.HabitID == "habit-1" && l.UserUID == "uid-1" && !l.CompletedAt.IsZero()
		})).Return("log-1", nil).Once()

		svc := habit.NewHabitService(repo, noopCache{}, testLogger())
		completed, err := svc.Toggle(context.Background(), "uid-1", "habit-1")

		require.NoError(t, err)
		assert.True(t, completed)
		repo.AssertExpectations(t)
	})

	t.Run("unchecks habit when log exists today", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("GetHabitOwner", mock.Anything, "habit-1").Return("uid-1", nil).Once()
		repo.On("DeleteLogsForDay", mock.Anything, "habit-1", mock.Anything).Return(1, nil).Once()

		svc := habit.NewHabitService(repo, noopCache{}, testLogger())
		completed, err := svc.Toggle(context.Background(), "uid-1", "habit-1")

		require.NoError(t, err)
		assert.False(t, completed)
		repo.AssertNotCalled(t, "CreateLog", mock.Anything, mock.Anything)
	})

	t.Run("foreign habit is not found", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("GetHabitOwner", mock.Anything, "habit-1").Return("uid-2", nil).Once()

		svc := habit.NewHabitService(repo, noopCache{}, testLogger())
		_, err := svc.Toggle(context.Background(), "uid-1", "habit-1")

		assert.ErrorIs(t, err, habit.ErrHabitNotFound)
		repo.AssertNotCalled(t, "DeleteLogsForDay", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing habit is not found", func(t *testing.T) {
		repo := new(HabitRepoMock)
		// Хранилище отдает сентинел обернутым, как и остальные lookup-методы
		repo.On("GetHabitOwner", mock.Anything, "habit-1").
			Return("", fmt.Errorf("storage.GetHabitOwner: %w", repository.ErrNotFound)).Once()

		svc := habit.NewHabitService(repo, noopCache{}, testLogger())
		_, err := svc.Toggle(context.Background(), "uid-1", "habit-1")

		assert.ErrorIs(t, err, habit.ErrHabitNotFound)
		repo.AssertNotCalled(t, "DeleteLogsForDay", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "CreateLog", mock.Anything, mock.Anything)
	})
}

func TestHabitService_Remove(t *testing.T) {
	t.Run("removes own habit", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("RemoveHabit", mock.Anything, "uid-1", "habit-1").Return(1, nil).Once()

		svc := habit.NewHabitService(repo, noopCache{}, testLogger())
		err := svc.Remove(context.Background(), "uid-1", "habit-1")

		assert.NoError(t, err)
	})

	t.Run("missing habit is not found", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("RemoveHabit", mock.Anything, "uid-1", "habit-1").Return(0, nil).Once()

		svc := habit.NewHabitService(repo, noopCache{}, testLogger())
		err := svc.Remove(context.Background(), "uid-1", "habit-1")

		assert.ErrorIs(t, err, habit.ErrHabitNotFound)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("RemoveHabit", mock.Anything, "uid-1", "habit-1").Return(0, errors.New("db down")).Once()

		svc := habit.NewHabitService(repo, noopCache{}, testLogger())
		err := svc.Remove(context.Background(), "uid-1", "habit-1")

		assert.Error(t, err)
	})
}
