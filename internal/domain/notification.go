package domain

import "time"

// NotificationType categorizes staff notifications.
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "INFO"
	NotificationTypeMessage NotificationType = "MESSAGE"
)

// Notification is an inbox entry for a staff member, written when a message
// is routed to them.
type Notification struct {
	ID        string
	StaffID   string
	Title     string
	Body      string
	Type      NotificationType
	Link      string
	IsRead    bool
	CreatedAt time.Time
}
