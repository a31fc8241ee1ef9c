package model

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending        TaskStatus = "pending"
	StatusAIProcessing   TaskStatus = "ai_processing"
	StatusReviewApproved TaskStatus = "review_approved"
	StatusFailedReview   TaskStatus = "failed_review"
	StatusAssigned       TaskStatus = "assigned"
	StatusInProgress     TaskStatus = "in_progress"
	StatusCompleted      TaskStatus = "completed"
	StatusFailed         TaskStatus = "failed"
)

// Terminal reports whether no further transitions are accepted from s.
func (s TaskStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailedReview, StatusFailed:
		return true
	}
	return false
}

// Task is the projected state of one unit of work. Tasks are owned by the
// projection and only ever change by applying ledger events.
type Task struct {
	ID          string     `json:"task_id"`
	Description string     `json:"description"`
	Source      string     `json:"source"`
	Status      TaskStatus `json:"status"`
}
