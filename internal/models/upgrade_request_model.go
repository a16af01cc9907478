package models

import "time"

type UpgradeStatus string

const (
	UpgradeStatusPending  UpgradeStatus = "pending"
	UpgradeStatusApproved UpgradeStatus = "approved"
	UpgradeStatusRejected UpgradeStatus = "rejected"
)

// UpgradeRequest is a user's petition for a higher tier, reviewed once by an admin.
type UpgradeRequest struct {
	ID            string        `json:"id" firestore:"-"`
	UserID        string        `json:"userId" firestore:"userId"`
	UserEmail     string        `json:"userEmail" firestore:"userEmail"`
	Reason        string        `json:"reason" firestore:"reason"`
	RequestedType UserType      `json:"requestedType" firestore:"requestedType"`
	Status        UpgradeStatus `json:"status" firestore:"status"`
	AdminComment  string        `json:"adminComment,omitempty" firestore:"adminComment,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" firestore:"createdAt"`
	ReviewedAt    *time.Time    `json:"reviewedAt,omitempty" firestore:"reviewedAt,omitempty"`
	ReviewedBy    string        `json:"reviewedBy,omitempty" firestore:"reviewedBy,omitempty"`
}
