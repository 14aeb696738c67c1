package dto

import "time"

// InboundMessageRequest is the normalized event a platform adapter posts
// after parsing and verifying the raw webhook upstream.
type InboundMessageRequest struct {
	Platform    string     `json:"platform"`
	PlatformRef string     `json:"platform_ref"`
	SenderName  string     `json:"sender_name"`
	ExternalID  *string    `json:"external_id"`
	Text        string     `json:"text"`
	ArrivedAt   *time.Time `json:"arrived_at"`
}

// InboundMessageResponse reports the persisted message and the routing
// outcome of the intake attempt.
type InboundMessageResponse struct {
	MessageID       string              `json:"message_id"`
	Status          string              `json:"status"`
	Outcome         string              `json:"outcome"`
	MatchedKeywords []string            `json:"matched_keywords,omitempty"`
	Assignment      *AssignmentResponse `json:"assignment,omitempty"`
}
