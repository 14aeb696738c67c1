package domain

import "time"

// MessageStatus enumerates lifecycle states for inbound messages.
// Transitions move forward only: PENDING -> ASSIGNED -> IN_PROGRESS ->
// COMPLETED, with IN_PROGRESS optional.
type MessageStatus string

const (
	MessageStatusPending    MessageStatus = "PENDING"
	MessageStatusAssigned   MessageStatus = "ASSIGNED"
	MessageStatusInProgress MessageStatus = "IN_PROGRESS"
	MessageStatusCompleted  MessageStatus = "COMPLETED"
)

// MessageDirection distinguishes inbound customer messages from outbound
// replies. Only incoming messages enter routing.
type MessageDirection string

const (
	DirectionIncoming MessageDirection = "INCOMING"
	DirectionOutgoing MessageDirection = "OUTGOING"
)

// Message is the aggregate root for an inbound customer message. At most
// one active Assignment attaches to it.
type Message struct {
	ID         string
	CustomerID string
	Content    string
	Platform   string
	ExternalID *string
	Direction  MessageDirection
	Status     MessageStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanTransitionTo reports whether moving to next respects the forward-only
// lifecycle.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	switch s {
	case MessageStatusPending:
		return next == MessageStatusAssigned
	case MessageStatusAssigned:
		return next == MessageStatusInProgress || next == MessageStatusCompleted
	case MessageStatusInProgress:
		return next == MessageStatusCompleted
	case MessageStatusCompleted:
		return false
	}
	return false
}
