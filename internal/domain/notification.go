package domain

import "time"

type NotificationType string

const (
	NotificationListShare NotificationType = "LIST_SHARE"
	NotificationReminder  NotificationType = "REMINDER"
)

// Notification is addressed by e-mail. It is only ever marked read.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	ToEmail   string           `json:"toEmail"`
	FromEmail string           `json:"fromEmail,omitempty"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt *time.Time       `json:"createdAt"`

	// Origin: the shared list or the reminded todo.
	ListID   *string `json:"listId,omitempty"`
	ListName *string `json:"listName,omitempty"`
	TodoID   *string `json:"todoId,omitempty"`
}
