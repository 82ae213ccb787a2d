package entity

import "time"

type NotificationType string

const (
	TypeTaskAssigned  NotificationType = "task_assigned"
	TypeTaskUpdated   NotificationType = "task_updated"
	TypeTaskCompleted NotificationType = "task_completed"
	TypeLeadAssigned  NotificationType = "lead_assigned"
	TypeLeadUpdated   NotificationType = "lead_updated"
	TypeCommentAdded  NotificationType = "comment_added"
)

// Valid reports whether t belongs to the known type vocabulary.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeTaskAssigned, TypeTaskUpdated, TypeTaskCompleted,
		TypeLeadAssigned, TypeLeadUpdated, TypeCommentAdded:
		return true
	}
	return false
}

// Notification is a user-visible record of a domain event. For comment_added
// with a related task, at most one row exists per (user, task); repeated
// comments collapse into it and re-stamp CreatedAt, which doubles as the
// last-activity time.
type Notification struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	Type         NotificationType `json:"type"`
	RelatedID    *string          `json:"related_id,omitempty"`
	AssignerName *string          `json:"assigner_name,omitempty"`
	IsRead       bool             `json:"is_read"`
	CreatedAt    time.Time        `json:"created_at"`
}
