package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	assert.True(t, Email("user@example.com").IsValid)
	assert.True(t, Email("  user@example.com ").IsValid)

	r := Email("")
	assert.False(t, r.IsValid)
	assert.Equal(t, []string{"Email is required"}, r.Errors)

	assert.False(t, Email("not-an-email").IsValid)
	assert.False(t, Email("a@").IsValid)
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("abc12345").IsValid)

	r := Password("short")
	assert.False(t, r.IsValid)
	assert.Len(t, r.Errors, 2)

	r = Password("12345678")
	assert.Equal(t, []string{"Password must contain at least one letter"}, r.Errors)
}

func TestTitle(t *testing.T) {
	assert.True(t, Title("Learn Go").IsValid)
	assert.False(t, Title("   ").IsValid)
	assert.False(t, Title(strings.Repeat("x", MaxTitleLength+1)).IsValid)
	assert.True(t, Title(strings.Repeat("é", MaxTitleLength)).IsValid)
}

func TestDateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, DateRange(start, start.AddDate(0, 0, 7)).IsValid)

	r := DateRange(start, start)
	assert.Equal(t, []string{"End date must be after start date"}, r.Errors)

	r = DateRange(time.Time{}, time.Time{})
	assert.Len(t, r.Errors, 2)
}

func TestTags(t *testing.T) {
	assert.True(t, Tags(nil).IsValid)
	assert.True(t, Tags([]string{"go", "backend"}).IsValid)

	r := Tags([]string{"go", "Go", ""})
	assert.False(t, r.IsValid)
	assert.Len(t, r.Errors, 2)

	many := make([]string, MaxTags+1)
	for i := range many {
		many[i] = strings.Repeat("t", i+1)
	}
	assert.False(t, Tags(many).IsValid)
}

func TestMerge(t *testing.T) {
	r := Merge(Title(""), Tags([]string{"ok"}), Email("bad"))
	assert.False(t, r.IsValid)
	assert.Len(t, r.Errors, 2)
	assert.True(t, Merge().IsValid)
	assert.NotNil(t, Merge().Errors)
}

func TestProfileFields(t *testing.T) {
	assert.True(t, DisplayName("Ada").IsValid)
	assert.Equal(t, []string{"Display name cannot be empty"}, DisplayName("   ").Errors)
	assert.False(t, DisplayName(strings.Repeat("x", MaxDisplayName+1)).IsValid)

	assert.True(t, PhotoURL("").IsValid)
	assert.True(t, PhotoURL("https://cdn.example.com/a.png").IsValid)
	assert.False(t, PhotoURL("ftp://example.com/a.png").IsValid)
	assert.False(t, PhotoURL("not a url").IsValid)
}
