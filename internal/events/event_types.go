package events

import (
	"time"

	"github.com/spec-kit/message-router/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMessageReceived   EventType = "message_received"
	EventMessageAssigned   EventType = "message_assigned"
	EventMessageUnassigned EventType = "message_unassigned"
	EventMessageCompleted  EventType = "message_completed"
)

// Actor encapsulates actor metadata for an event. A nil StaffID means the
// routing engine acted on its own.
type Actor struct {
	StaffID *string `json:"staff_id,omitempty"`
	System  bool    `json:"system"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	MessageID string      `json:"message_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MessageReceivedPayload payload.
type MessageReceivedPayload struct {
	CustomerID string `json:"customer_id"`
	Platform   string `json:"platform"`
	Preview    string `json:"preview"`
}

// MessageAssignedPayload payload.
type MessageAssignedPayload struct {
	AssignmentID    string   `json:"assignment_id"`
	AssigneeStaffID string   `json:"assignee_staff_id"`
	MatchScore      float64  `json:"match_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	Preview         string   `json:"preview"`
}

// MessageUnassignedPayload payload.
type MessageUnassignedPayload struct {
	Reason          domain.UnassignedReason `json:"reason"`
	MatchedKeywords []string                `json:"matched_keywords,omitempty"`
}

// MessageCompletedPayload payload.
type MessageCompletedPayload struct {
	AssignmentID string    `json:"assignment_id"`
	CompletedAt  time.Time `json:"completed_at"`
}
