package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2024, 3, 4, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		now  time.Time
	}{
		{"monday morning", time.Date(2024, 3, 4, 7, 30, 0, 0, loc)},
		{"wednesday", time.Date(2024, 3, 6, 15, 0, 0, 0, loc)},
		{"saturday", time.Date(2024, 3, 9, 23, 59, 0, 0, loc)},
		{"sunday", time.Date(2024, 3, 10, 12, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, monday, WeekStart(tt.now))
		})
	}
}

func TestMockEntries(t *testing.T) {
	now := time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)
	monday := WeekStart(now)

	entries := MockEntries(now)
	require.Len(t, entries, 6)

	var notes, completed int
	ids := make(map[string]bool)
	offsets := []time.Duration{0, 2, 4, 12, 14, 16}

	for i, e := range entries {
		base := e.Base()
		ids[base.ID] = true
		assert.Equal(t, monday.Add(offsets[i]*time.Hour), base.CreatedAt, base.Name)

		switch e := e.(type) {
		case NoteEntry:
			notes++
			assert.Equal(t, EntryNote, e.Type)
		case TaskEntry:
			assert.Equal(t, EntryTask, e.Type)
			if e.Status == TaskCompleted {
				completed++
			}
		}
	}

	assert.Equal(t, 3, notes)
	assert.Equal(t, 3, completed)
	assert.Len(t, ids, 6, "ids are unique")
}

func TestSummary(t *testing.T) {
	entries := MockEntries(time.Now())
	assert.True(t, strings.HasPrefix(Summary(entries[0]), `note "Note 1"`))
	assert.Contains(t, Summary(entries[3]), "(completed)")
}
