package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryType tags an entry.
type EntryType string

const (
	EntryNote EntryType = "note"
	EntryTask EntryType = "task"
)

// TaskStatus is the progress of a task entry.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// BaseEntry holds the fields shared by every entry.
type BaseEntry struct {
	ID          string    `json:"id"`
	Type        EntryType `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Entry is either a NoteEntry or a TaskEntry.
type Entry interface {
	Base() BaseEntry
	entry()
}

// NoteEntry is a note. Notes have no status.
type NoteEntry struct {
	BaseEntry
}

// TaskEntry is a task with a status.
type TaskEntry struct {
	BaseEntry
	Status TaskStatus `json:"status"`
}

func (e NoteEntry) Base() BaseEntry { return e.BaseEntry }
func (e TaskEntry) Base() BaseEntry { return e.BaseEntry }

func (NoteEntry) entry() {}
func (TaskEntry) entry() {}

// Summary renders an entry as one line.
func Summary(e Entry) string {
	switch e := e.(type) {
	case NoteEntry:
		return fmt.Sprintf("note %q: %s", e.Name, e.Description)
	case TaskEntry:
		return fmt.Sprintf("task %q (%s): %s", e.Name, e.Status, e.Description)
	default:
		panic(fmt.Sprintf("auth: unknown entry %T", e))
	}
}

// WeekStart returns Monday 09:00 of the week containing now, in now's
// location. Sunday belongs to the week that started six days earlier.
func WeekStart(now time.Time) time.Time {
	offset := 1 - int(now.Weekday())
	if now.Weekday() == time.Sunday {
		offset = -6
	}
	y, m, d := now.AddDate(0, 0, offset).Date()
	return time.Date(y, m, d, 9, 0, 0, 0, now.Location())
}

// MockEntries returns three notes and three completed tasks spread over
// Monday of the current week.
func MockEntries(now time.Time) []Entry {
	monday := WeekStart(now)
	at := func(hours int) time.Time { return monday.Add(time.Duration(hours) * time.Hour) }

	note := func(n, hours int) Entry {
		return NoteEntry{BaseEntry{
			ID:          uuid.NewString(),
			Type:        EntryNote,
			Name:        fmt.Sprintf("Note %d", n),
			Description: fmt.Sprintf("This is Note %d", n),
			CreatedAt:   at(hours),
		}}
	}
	task := func(n, hours int) Entry {
		return TaskEntry{
			BaseEntry: BaseEntry{
				ID:          uuid.NewString(),
				Type:        EntryTask,
				Name:        fmt.Sprintf("Task %d", n),
				Description: fmt.Sprintf("Completed task %d", n),
				CreatedAt:   at(hours),
			},
			Status: TaskCompleted,
		}
	}

	return []Entry{
		note(1, 0), note(2, 2), note(3, 4),
		task(1, 12), task(2, 14), task(3, 16),
	}
}
