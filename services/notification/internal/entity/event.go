package entity

// Event is the inbound contract from the rest of the application: task and
// comment code paths emit one of these whenever something may warrant a
// notification.
type Event struct {
	UserID       string           `json:"user_id"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	Type         NotificationType `json:"type"`
	RelatedID    *string          `json:"related_id,omitempty"`
	AssignerName *string          `json:"assigner_name,omitempty"`
}

// Collapsible reports whether the event is subject to the comment dedup rule.
func (e Event) Collapsible() bool {
	return e.Type == TypeCommentAdded && e.RelatedID != nil && *e.RelatedID != ""
}
