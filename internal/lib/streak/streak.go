// Package streak вычисляет серию последовательных дней выполнения привычки.
//
// Compute — чистая функция без ввода-вывода: принимает список отметок
// выполнения одной привычки и опорную дату "сегодня", возвращает текущую
// серию, флаг выполнения за сегодня и общее число отметок. Опорная дата
// передается снаружи, чтобы функцию можно было тестировать независимо от
// системных часов и часовых поясов.
package streak

import (
	"fmt"
	"time"

	"github.com/sequencia-app/sequencia/internal/models"
)

// Snapshot — производная статистика привычки, пересчитывается на каждое
// чтение из полной истории отметок и нигде не сохраняется.
type Snapshot struct {
	CurrentStreak    int  `json:"current_streak"`
	CompletedToday   bool `json:"completed_today"`
	TotalCompletions int  `json:"total_completions"`
}

// ValidationError указывает на некорректную отметку во входных данных.
// Такая отметка не отбрасывается молча: вызывающая сторона не должна
// показывать пользователю вводящее в заблуждение значение серии.
type ValidationError struct {
	Index int    // Позиция отметки во входном списке
	LogID string // Идентификатор отметки, если известен
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("habit log %d (%s): missing completion timestamp", e.Index, e.LogID)
}

// Compute вычисляет статистику серии по списку отметок выполнения одной
// привычки на опорную дату asOf.
//
// Правила подсчета:
//   - каждая отметка нормализуется до календарного дня в UTC;
//   - несколько отметок за один день считаются одним днем серии,
//     но каждая входит в общее число выполнений;
//   - серия идет назад от asOf; выполнение только вчера сохраняет серию
//     (разрыв больше одного дня обрывает подсчет);
//   - отметки с датой позже asOf не участвуют в серии, но входят в общее
//     число выполнений.
func Compute(events []models.HabitLog, asOf time.Time) (Snapshot, error) {
	if len(events) == 0 {
		return Snapshot{}, nil
	}

	today := toDay(asOf)
	days := make(map[time.Time]struct{}, len(events))
	for i, ev := range events {
		if ev.CompletedAt.IsZero() {
			return Snapshot{}, &ValidationError{Index: i, LogID: ev.ID}
		}
		day := toDay(ev.CompletedAt)
		if day.After(today) {
			continue
		}
		days[day] = struct{}{}
	}

	_, completedToday := days[today]

	cursor := today
	if !completedToday {
		// Выполнение только вчера еще сохраняет серию.
		cursor = cursor.AddDate(0, 0, -1)
	}

	var streak int
	for {
		if _, ok := days[cursor]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}

	return Snapshot{
		CurrentStreak:    streak,
		CompletedToday:   completedToday,
		TotalCompletions: len(events),
	}, nil
}

// toDay отбрасывает время суток, приводя момент к календарному дню в UTC.
func toDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
