package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/message-router/internal/api/dto"
	"github.com/spec-kit/message-router/internal/domain"
	"github.com/spec-kit/message-router/internal/service"
	apperrors "github.com/spec-kit/message-router/pkg/util"
)

// WebhookHandler accepts normalized inbound message events.
type WebhookHandler struct {
	intake *service.IntakeService
}

// NewWebhookHandler creates the handler.
func NewWebhookHandler(intake *service.IntakeService) *WebhookHandler {
	return &WebhookHandler{intake: intake}
}

// Receive persists the inbound event and runs one routing attempt.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var req dto.InboundMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"parse": err.Error()})
	}

	arrivedAt := time.Now()
	if req.ArrivedAt != nil {
		arrivedAt = *req.ArrivedAt
	}

	message, result, err := h.intake.Receive(c.UserContext(), service.InboundMessage{
		Platform:    req.Platform,
		PlatformRef: req.PlatformRef,
		SenderName:  req.SenderName,
		ExternalID:  req.ExternalID,
		Text:        req.Text,
		ArrivedAt:   arrivedAt,
	})
	if err != nil {
		if message != nil {
			// The message row is durable; report its id so the caller
			// can retry routing without re-sending the event.
			de := apperrors.ToDomainError(err)
			if de.Details == nil {
				de.Details = map[string]any{}
			}
			de.Details["message_id"] = message.ID
			return de
		}
		return err
	}

	resp := dto.InboundMessageResponse{
		MessageID: message.ID,
		Status:    string(message.Status),
		Outcome:   string(result.Outcome),
	}
	for _, kw := range result.MatchedKeywords {
		resp.MatchedKeywords = append(resp.MatchedKeywords, kw.Keyword)
	}
	if result.Assignment != nil {
		resp.Status = string(domain.MessageStatusAssigned)
		assignment := dto.NewAssignmentResponse(result.Assignment)
		resp.Assignment = &assignment
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}
