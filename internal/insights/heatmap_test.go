package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintify-backend-go/internal/models"
)

func TestLevelBuckets(t *testing.T) {
	counts := []int{0, 1, 2, 3, 4, 5, 6, 7, 10}
	levels := []int{0, 1, 1, 2, 2, 3, 3, 4, 4}
	for i, c := range counts {
		assert.Equal(t, levels[i], Level(c), "count %d", c)
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestBuildHeatmap(t *testing.T) {
	today := time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	sprints := []*models.Sprint{
		{CreatedAt: today, Status: models.SprintStatusDraft},
		{CreatedAt: yesterday, Status: models.SprintStatusCompleted, CompletedAt: ptr(today)},
		{CreatedAt: yesterday, Status: models.SprintStatusActive},
		{CreatedAt: today.AddDate(-2, 0, 0), Status: models.SprintStatusDraft},
	}
	tasks := []*models.Task{
		{Status: models.TaskStatusCompleted, CompletedAt: ptr(today)},
		{Status: models.TaskStatusCompleted, CompletedAt: ptr(today.Add(-time.Hour))},
		{Status: models.TaskStatusTodo, CompletedAt: ptr(today)},
	}

	h := BuildHeatmap(sprints, tasks, today)
	require.Len(t, h.Days, HeatmapDays)

	last := h.Days[len(h.Days)-1]
	assert.Equal(t, "2024-06-30", last.Date)
	assert.Equal(t, 1, last.SprintsCreated)
	assert.Equal(t, 1, last.SprintsCompleted)
	assert.Equal(t, 2, last.TasksCompleted)
	assert.Equal(t, 3, last.Count)
	assert.Equal(t, 2, last.Level)

	prev := h.Days[len(h.Days)-2]
	assert.Equal(t, 2, prev.Count)
	assert.Equal(t, 1, prev.Level)

	assert.Equal(t, "2023-07-02", h.Days[0].Date)
	assert.Equal(t, 5, h.TotalCount)
	assert.Equal(t, 2, h.CurrentStreak)
	assert.Equal(t, 2, h.MaxStreak)
}

func TestStreaks(t *testing.T) {
	days := func(levels ...int) []HeatmapDay {
		out := make([]HeatmapDay, len(levels))
		for i, l := range levels {
			out[i].Level = l
		}
		return out
	}
	assert.Equal(t, 3, MaxStreak(days(1, 0, 2, 3, 1, 0, 1)))
	assert.Equal(t, 1, CurrentStreak(days(1, 0, 2, 3, 1, 0, 1)))
	assert.Equal(t, 0, CurrentStreak(days(1, 1, 0)))
	assert.Equal(t, 0, MaxStreak(nil))
	assert.Equal(t, 4, CurrentStreak(days(4, 4, 4, 4)))
}
