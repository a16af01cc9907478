package models

import "time"

// UserType is the role tier of a user. Tiers are totally ordered, see Rank.
type UserType string

const (
	UserTypeNormal  UserType = "normal"
	UserTypePremium UserType = "premium"
	UserTypeAdmin   UserType = "admin"
)

// Rank returns the position of the tier in the normal < premium < admin order.
// Unknown or empty tiers rank 0 and are never granted anything.
func (t UserType) Rank() int {
	switch t {
	case UserTypeNormal:
		return 1
	case UserTypePremium:
		return 2
	case UserTypeAdmin:
		return 3
	default:
		return 0
	}
}

// IsValid reports whether t is one of the known tiers.
func (t UserType) IsValid() bool {
	return t.Rank() > 0
}

// User represents a user in the system.
type User struct {
	ID          string    `json:"id" firestore:"-"` // Firebase Auth UID, will be the document ID
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	UserType    UserType  `json:"userType" firestore:"userType"`
	FCMTokens   []string  `json:"-" firestore:"fcmTokens,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}
