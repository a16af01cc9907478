package insights

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func TestTimeRemainingDecomposition(t *testing.T) {
	diffs := []time.Duration{
		time.Millisecond,
		999 * time.Millisecond,
		time.Second,
		59*time.Minute + 59*time.Second,
		25*time.Hour + 61*time.Second + 500*time.Millisecond,
		400*24*time.Hour + 3*time.Hour + 7*time.Minute + 9*time.Second,
	}
	for _, d := range diffs {
		r := TimeRemaining(base.Add(d), base)
		assert.False(t, r.IsExpired, d.String())
		assert.Equal(t, r.TotalSeconds, r.Days*86400+r.Hours*3600+r.Minutes*60+r.Seconds, d.String())
		assert.Equal(t, int64(d/time.Second), r.TotalSeconds, d.String())
		assert.Less(t, r.Hours, int64(24))
		assert.Less(t, r.Minutes, int64(60))
		assert.Less(t, r.Seconds, int64(60))
	}

	r := TimeRemaining(base.Add(26*time.Hour+3*time.Minute+4*time.Second), base)
	assert.Equal(t, Remaining{Days: 1, Hours: 2, Minutes: 3, Seconds: 4, TotalSeconds: 93784}, r)
}

func TestTimeRemainingExpired(t *testing.T) {
	assert.Equal(t, Remaining{IsExpired: true}, TimeRemaining(base, base))
	assert.Equal(t, Remaining{IsExpired: true}, TimeRemaining(base.Add(-time.Hour), base))
}

func TestTimeProgress(t *testing.T) {
	start := base
	end := base.Add(10 * 24 * time.Hour)
	assert.Equal(t, 0.0, TimeProgress(start, end, start.Add(-time.Hour)))
	assert.Equal(t, 100.0, TimeProgress(start, end, end.Add(time.Hour)))
	assert.InDelta(t, 50.0, TimeProgress(start, end, start.Add(5*24*time.Hour)), 0.0001)
}

func TestDaysRemaining(t *testing.T) {
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysRemaining(end, base))
	assert.Equal(t, 3, DaysRemaining(end, base.Add(12*time.Hour)))
	assert.Equal(t, 1, DaysRemaining(end, end.Add(-time.Minute)))
	assert.Equal(t, 0, DaysRemaining(end, end))
	assert.Equal(t, 0, DaysRemaining(end, end.Add(time.Hour)))
}

func TestClassifyUrgency(t *testing.T) {
	assert.Equal(t, UrgencyExpired, ClassifyUrgency(base, base))
	assert.Equal(t, UrgencyCritical, ClassifyUrgency(base.Add(20*time.Hour), base))
	assert.Equal(t, UrgencyCritical, ClassifyUrgency(base.Add(24*time.Hour), base))
	assert.Equal(t, UrgencyWarning, ClassifyUrgency(base.Add(25*time.Hour), base))
	assert.Equal(t, UrgencyWarning, ClassifyUrgency(base.Add(72*time.Hour), base))
	assert.Equal(t, UrgencyNormal, ClassifyUrgency(base.Add(73*time.Hour), base))
}

func TestNewCountdown(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	c := NewCountdown(start, end, base)
	assert.Equal(t, 3, c.DaysRemaining)
	assert.Equal(t, UrgencyWarning, c.Urgency)
	assert.Equal(t, int64(3), c.Remaining.Days)
	assert.InDelta(t, 4.0/7.0*100, c.TimeProgress, 0.0001)
}

func TestTickStopsAtExpiry(t *testing.T) {
	now := base
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []Remaining
	for r := range Tick(ctx, base.Add(3*time.Second), time.Millisecond, clock) {
		got = append(got, r)
	}
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].TotalSeconds)
	assert.Equal(t, int64(1), got[1].TotalSeconds)
	assert.True(t, got[2].IsExpired)
}

func TestTickStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := Tick(ctx, base.Add(time.Hour), time.Hour, func() time.Time { return base })
	first, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, int64(3600), first.TotalSeconds)
	cancel()
	for range ch {
	}
}
