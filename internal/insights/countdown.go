// Package insights derives presentation data from sprints and tasks:
// countdowns, urgency, the activity heatmap and progress charts.
package insights

import (
	"context"
	"math"
	"time"
)

const (
	msPerDay    = int64(24 * time.Hour / time.Millisecond)
	msPerHour   = int64(time.Hour / time.Millisecond)
	msPerMinute = int64(time.Minute / time.Millisecond)
	msPerSecond = int64(time.Second / time.Millisecond)
)

// Remaining is a countdown decomposed into whole units.
// Days*86400 + Hours*3600 + Minutes*60 + Seconds == TotalSeconds.
type Remaining struct {
	IsExpired    bool  `json:"isExpired"`
	Days         int64 `json:"days"`
	Hours        int64 `json:"hours"`
	Minutes      int64 `json:"minutes"`
	Seconds      int64 `json:"seconds"`
	TotalSeconds int64 `json:"totalSeconds"`
}

// TimeRemaining returns the time left until end. At or past end the result is expired and all zero.
func TimeRemaining(end, now time.Time) Remaining {
	diff := end.Sub(now).Milliseconds()
	if diff <= 0 {
		return Remaining{IsExpired: true}
	}
	return Remaining{
		Days:         diff / msPerDay,
		Hours:        diff % msPerDay / msPerHour,
		Minutes:      diff % msPerHour / msPerMinute,
		Seconds:      diff % msPerMinute / msPerSecond,
		TotalSeconds: diff / msPerSecond,
	}
}

// TimeProgress is the elapsed share of [start, end] as a percentage clamped to 0..100.
func TimeProgress(start, end, now time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		if now.Before(end) {
			return 0
		}
		return 100
	}
	p := float64(now.Sub(start)) / float64(total) * 100
	return math.Max(0, math.Min(100, p))
}

// DaysRemaining counts started days left until end, 0 once end has passed.
func DaysRemaining(end, now time.Time) int {
	diff := end.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// Urgency classifies how close a deadline is. It only drives presentation.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
	UrgencyExpired  Urgency = "expired"
)

func ClassifyUrgency(end, now time.Time) Urgency {
	if !end.After(now) {
		return UrgencyExpired
	}
	switch days := DaysRemaining(end, now); {
	case days <= 1:
		return UrgencyCritical
	case days <= 3:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// Countdown bundles the views shown next to a sprint deadline.
type Countdown struct {
	Remaining     Remaining `json:"remaining"`
	DaysRemaining int       `json:"daysRemaining"`
	TimeProgress  float64   `json:"timeProgress"`
	Urgency       Urgency   `json:"urgency"`
}

func NewCountdown(start, end, now time.Time) Countdown {
	return Countdown{
		Remaining:     TimeRemaining(end, now),
		DaysRemaining: DaysRemaining(end, now),
		TimeProgress:  TimeProgress(start, end, now),
		Urgency:       ClassifyUrgency(end, now),
	}
}

// Tick emits the remaining time to end immediately and then every interval.
// The channel is closed after the first expired value or when ctx is done.
func Tick(ctx context.Context, end time.Time, interval time.Duration, now func() time.Time) <-chan Remaining {
	out := make(chan Remaining, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			r := TimeRemaining(end, now())
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
			if r.IsExpired {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
