package dto

import (
	"time"

	"github.com/spec-kit/message-router/internal/domain"
)

// ActorRequest carries the acting staff id, pre-authenticated by the
// gateway in front of this service.
type ActorRequest struct {
	ActorStaffID string `json:"actor_staff_id"`
}

// MessageResponse payload.
type MessageResponse struct {
	ID         string               `json:"id"`
	CustomerID string               `json:"customer_id"`
	Content    string               `json:"content"`
	Platform   string               `json:"platform"`
	Status     domain.MessageStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// AssignmentResponse payload.
type AssignmentResponse struct {
	ID          string     `json:"id"`
	MessageID   string     `json:"message_id"`
	AssignedTo  string     `json:"assigned_to"`
	AssignedBy  *string    `json:"assigned_by,omitempty"`
	MatchScore  float64    `json:"match_score"`
	Notes       string     `json:"notes"`
	AssignedAt  time.Time  `json:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewMessageResponse maps a domain message.
func NewMessageResponse(message *domain.Message) MessageResponse {
	return MessageResponse{
		ID:         message.ID,
		CustomerID: message.CustomerID,
		Content:    message.Content,
		Platform:   message.Platform,
		Status:     message.Status,
		CreatedAt:  message.CreatedAt,
		UpdatedAt:  message.UpdatedAt,
	}
}

// NewAssignmentResponse maps a domain assignment.
func NewAssignmentResponse(assignment *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          assignment.ID,
		MessageID:   assignment.MessageID,
		AssignedTo:  assignment.AssignedTo,
		AssignedBy:  assignment.AssignedBy,
		MatchScore:  assignment.MatchScore,
		Notes:       assignment.Notes,
		AssignedAt:  assignment.AssignedAt,
		CompletedAt: assignment.CompletedAt,
	}
}
