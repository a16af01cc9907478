package insights

import (
	"time"

	"sprintify-backend-go/internal/models"
)

// HeatmapDays is the length of the trailing activity window.
const HeatmapDays = 365

const dateLayout = "2006-01-02"

// HeatmapDay is one cell of the activity heatmap.
type HeatmapDay struct {
	Date             string `json:"date"`
	Count            int    `json:"count"`
	Level            int    `json:"level"`
	SprintsCreated   int    `json:"sprintsCreated"`
	SprintsCompleted int    `json:"sprintsCompleted"`
	TasksCompleted   int    `json:"tasksCompleted"`
}

// Heatmap is the full window plus streak summaries.
type Heatmap struct {
	Days          []HeatmapDay `json:"days"`
	TotalCount    int          `json:"totalCount"`
	MaxStreak     int          `json:"maxStreak"`
	CurrentStreak int          `json:"currentStreak"`
}

// Level buckets an activity count: 0, 1-2, 3-4, 5-6, 7+.
func Level(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		return 1
	case count <= 4:
		return 2
	case count <= 6:
		return 3
	default:
		return 4
	}
}

// BuildHeatmap aggregates activity for the HeatmapDays days ending on today,
// in today's location. A created sprint counts 1 and a completed sprint
// counts 2. Tasks completed are reported per day but do not add to the count.
func BuildHeatmap(sprints []*models.Sprint, tasks []*models.Task, today time.Time) Heatmap {
	loc := today.Location()
	last := dayStart(today)
	first := last.AddDate(0, 0, -(HeatmapDays - 1))

	days := make([]HeatmapDay, HeatmapDays)
	index := make(map[string]int, HeatmapDays)
	for i := range days {
		key := first.AddDate(0, 0, i).Format(dateLayout)
		days[i].Date = key
		index[key] = i
	}
	bump := func(t time.Time, fn func(*HeatmapDay)) {
		if t.IsZero() {
			return
		}
		if i, ok := index[t.In(loc).Format(dateLayout)]; ok {
			fn(&days[i])
		}
	}

	for _, s := range sprints {
		bump(s.CreatedAt, func(d *HeatmapDay) { d.SprintsCreated++ })
		if s.CompletedAt != nil && s.Status == models.SprintStatusCompleted {
			bump(*s.CompletedAt, func(d *HeatmapDay) { d.SprintsCompleted++ })
		}
	}
	for _, t := range tasks {
		if t.CompletedAt != nil && t.Status == models.TaskStatusCompleted {
			bump(*t.CompletedAt, func(d *HeatmapDay) { d.TasksCompleted++ })
		}
	}

	h := Heatmap{Days: days}
	for i := range days {
		days[i].Count = days[i].SprintsCreated + 2*days[i].SprintsCompleted
		days[i].Level = Level(days[i].Count)
		h.TotalCount += days[i].Count
	}
	h.MaxStreak = MaxStreak(days)
	h.CurrentStreak = CurrentStreak(days)
	return h
}

// MaxStreak returns the longest run of consecutive active days.
func MaxStreak(days []HeatmapDay) int {
	best, run := 0, 0
	for _, d := range days {
		if d.Level > 0 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// CurrentStreak counts active days backwards from the most recent day.
func CurrentStreak(days []HeatmapDay) int {
	n := 0
	for i := len(days) - 1; i >= 0 && days[i].Level > 0; i-- {
		n++
	}
	return n
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
