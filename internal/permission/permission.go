// Package permission implements the role hierarchy checks. All checks are pure
// and fail closed: a missing user or unknown tier is never granted anything.
package permission

import "sprintify-backend-go/internal/models"

// Feature names a capability gated behind a minimum user tier.
type Feature string

const (
	FeatureBasicSprints     Feature = "basic_sprints"
	FeatureTemplates        Feature = "templates"
	FeatureAdvancedStats    Feature = "advanced_stats"
	FeatureUnlimitedSprints Feature = "unlimited_sprints"
	FeatureDataExport       Feature = "data_export"
	FeatureCustomTemplates  Feature = "custom_templates"
	FeatureUserManagement   Feature = "user_management"
	FeatureUpgradeReview    Feature = "upgrade_review"
	FeatureSystemSettings   Feature = "system_settings"
)

// NormalActiveSprintLimit caps concurrently active sprints for users without FeatureUnlimitedSprints.
const NormalActiveSprintLimit = 3

var featureTiers = map[Feature]models.UserType{
	FeatureBasicSprints:     models.UserTypeNormal,
	FeatureTemplates:        models.UserTypeNormal,
	FeatureAdvancedStats:    models.UserTypePremium,
	FeatureUnlimitedSprints: models.UserTypePremium,
	FeatureDataExport:       models.UserTypePremium,
	FeatureCustomTemplates:  models.UserTypePremium,
	FeatureUserManagement:   models.UserTypeAdmin,
	FeatureUpgradeReview:    models.UserTypeAdmin,
	FeatureSystemSettings:   models.UserTypeAdmin,
}

// CheckUserPermission reports whether userType ranks at or above requiredType.
func CheckUserPermission(userType, requiredType models.UserType) bool {
	if !userType.IsValid() || !requiredType.IsValid() {
		return false
	}
	return userType.Rank() >= requiredType.Rank()
}

// RequiredTier returns the minimum tier for feature, or false if the feature is unknown.
func RequiredTier(feature Feature) (models.UserType, bool) {
	t, ok := featureTiers[feature]
	return t, ok
}

// CanUseFeature reports whether user may use feature.
func CanUseFeature(user *models.User, feature Feature) bool {
	if user == nil {
		return false
	}
	required, ok := featureTiers[feature]
	if !ok {
		return false
	}
	return CheckUserPermission(user.UserType, required)
}

// ActiveSprintLimit returns how many sprints the tier may have active at once; 0 means unlimited.
func ActiveSprintLimit(userType models.UserType) int {
	if CheckUserPermission(userType, featureTiers[FeatureUnlimitedSprints]) {
		return 0
	}
	return NormalActiveSprintLimit
}
