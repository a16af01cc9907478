package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sprintify-backend-go/internal/models"
)

var tiers = []models.UserType{models.UserTypeNormal, models.UserTypePremium, models.UserTypeAdmin}

func TestCheckUserPermissionReflexiveAndMonotone(t *testing.T) {
	for _, a := range tiers {
		assert.True(t, CheckUserPermission(a, a), "reflexive for %s", a)
		for _, b := range tiers {
			want := a.Rank() >= b.Rank()
			assert.Equal(t, want, CheckUserPermission(a, b), "%s vs %s", a, b)
		}
	}
}

func TestCheckUserPermissionUnknownTier(t *testing.T) {
	assert.False(t, CheckUserPermission("", models.UserTypeNormal))
	assert.False(t, CheckUserPermission("superuser", models.UserTypeNormal))
	assert.False(t, CheckUserPermission(models.UserTypeAdmin, "superuser"))
}

func TestCanUseFeature(t *testing.T) {
	normal := &models.User{UserType: models.UserTypeNormal}
	premium := &models.User{UserType: models.UserTypePremium}
	admin := &models.User{UserType: models.UserTypeAdmin}

	assert.True(t, CanUseFeature(normal, FeatureBasicSprints))
	assert.False(t, CanUseFeature(normal, FeatureAdvancedStats))
	assert.True(t, CanUseFeature(premium, FeatureAdvancedStats))
	assert.False(t, CanUseFeature(premium, FeatureUserManagement))
	assert.True(t, CanUseFeature(admin, FeatureUserManagement))
	assert.True(t, CanUseFeature(admin, FeatureAdvancedStats))

	assert.False(t, CanUseFeature(nil, FeatureBasicSprints))
	assert.False(t, CanUseFeature(admin, Feature("time_travel")))
}

func TestActiveSprintLimit(t *testing.T) {
	assert.Equal(t, NormalActiveSprintLimit, ActiveSprintLimit(models.UserTypeNormal))
	assert.Equal(t, 0, ActiveSprintLimit(models.UserTypePremium))
	assert.Equal(t, 0, ActiveSprintLimit(models.UserTypeAdmin))
	assert.Equal(t, NormalActiveSprintLimit, ActiveSprintLimit(""))
}
