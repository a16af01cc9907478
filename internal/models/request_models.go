package models

import "time"

// CreateSprintRequest represents the request body for creating a new sprint.
// EndDate and Duration default from the template when omitted.
type CreateSprintRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description,omitempty"`
	Type        SprintType `json:"type" binding:"required,oneof=learning project"`
	Template    string     `json:"template" binding:"required"`
	StartDate   time.Time  `json:"startDate" binding:"required"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Duration    int        `json:"duration,omitempty" binding:"omitempty,min=1,max=365"`
	Tags        []string   `json:"tags,omitempty"`
}

// UpdateSprintRequest represents the request body for updating an existing sprint.
// Pointers are used to distinguish between empty values and fields not provided for update.
type UpdateSprintRequest struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Type        *SprintType `json:"type,omitempty"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	EndDate     *time.Time  `json:"endDate,omitempty"`
	Tags        *[]string   `json:"tags,omitempty"`
}

// SprintFilter narrows a sprint listing. Zero values mean "any".
type SprintFilter struct {
	Status SprintStatus `form:"status" json:"status,omitempty"`
	Type   SprintType   `form:"type" json:"type,omitempty"`
	Limit  int          `form:"limit" json:"limit,omitempty"`
	Offset int          `form:"offset" json:"offset,omitempty"`
}

// BatchDeleteSprintsRequest is the body of DELETE /sprints.
type BatchDeleteSprintsRequest struct {
	SprintIDs []string `json:"sprintIds" binding:"required,min=1"`
}

type CreateTaskRequest struct {
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description,omitempty"`
	Priority      Priority   `json:"priority,omitempty"`
	EstimatedTime int        `json:"estimatedTime,omitempty" binding:"omitempty,min=0"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Dependencies  []string   `json:"dependencies,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
}

type UpdateTaskRequest struct {
	Title         *string     `json:"title,omitempty"`
	Description   *string     `json:"description,omitempty"`
	Status        *TaskStatus `json:"status,omitempty"`
	Priority      *Priority   `json:"priority,omitempty"`
	EstimatedTime *int        `json:"estimatedTime,omitempty"`
	ActualTime    *int        `json:"actualTime,omitempty"`
	DueDate       *time.Time  `json:"dueDate,omitempty"`
	Dependencies  *[]string   `json:"dependencies,omitempty"`
	Progress      *int        `json:"progress,omitempty"`
	Tags          *[]string   `json:"tags,omitempty"`
}

type CreateMilestoneRequest struct {
	Title        string    `json:"title" binding:"required"`
	TargetDate   time.Time `json:"targetDate" binding:"required"`
	Criteria     []string  `json:"criteria,omitempty"`
	RelatedTasks []string  `json:"relatedTasks,omitempty"`
}

type UpdateMilestoneRequest struct {
	Title        *string          `json:"title,omitempty"`
	TargetDate   *time.Time       `json:"targetDate,omitempty"`
	Status       *MilestoneStatus `json:"status,omitempty"`
	Criteria     *[]string        `json:"criteria,omitempty"`
	RelatedTasks *[]string        `json:"relatedTasks,omitempty"`
}

// CreateUpgradeRequestRequest is the body of POST /upgrade-requests.
type CreateUpgradeRequestRequest struct {
	Reason        string   `json:"reason" binding:"required"`
	RequestedType UserType `json:"requestedType,omitempty"`
}

// ReviewUpgradeRequestRequest is the body of POST /upgrade-requests/:id/review.
type ReviewUpgradeRequestRequest struct {
	Action  string `json:"action" binding:"required,oneof=approve reject"`
	Comment string `json:"comment,omitempty"`
}

// UpdateProfileRequest is the body of PUT /users/me. Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	PhotoURL    *string `json:"photoURL,omitempty"`
}

type FCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
