package models

import "time"

// Habit представляет привычку пользователя.
type Habit struct {
	ID          string    `json:"id"`
	UserUID     string    `json:"user_uid"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	Frequency   string    `json:"frequency"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// HabitLog представляет одну отметку выполнения привычки.
// Запись неизменяемая: создается при отметке выполнения,
// удаляется при снятии отметки за тот же день.
type HabitLog struct {
	ID          string
	HabitID     string
	UserUID     string
	CompletedAt time.Time
}

// DummyHabit используется для приёма данных о привычке из JSON-запроса.
type DummyHabit struct {
	Title       string `json:"title" validate:"required"` // Название привычки
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Frequency   string `json:"frequency"`
}

// HabitWithStats объединяет привычку с производной статистикой выполнения.
// Статистика пересчитывается при каждом чтении и нигде не хранится.
type HabitWithStats struct {
	Habit
	CurrentStreak    int  `json:"current_streak"`
	CompletedToday   bool `json:"completed_today"`
	TotalCompletions int  `json:"total_completions"`
}
