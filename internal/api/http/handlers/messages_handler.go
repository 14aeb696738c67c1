package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/message-router/internal/api/dto"
	"github.com/spec-kit/message-router/internal/domain"
	"github.com/spec-kit/message-router/internal/repository"
	"github.com/spec-kit/message-router/internal/service"
	apperrors "github.com/spec-kit/message-router/pkg/util"
)

// MessagesHandler exposes message lifecycle operations.
type MessagesHandler struct {
	messages   repository.MessageRepository
	staff      repository.StaffRepository
	assignment *service.AssignmentService
}

// NewMessagesHandler creates the handler.
func NewMessagesHandler(messages repository.MessageRepository, staff repository.StaffRepository, assignment *service.AssignmentService) *MessagesHandler {
	return &MessagesHandler{messages: messages, staff: staff, assignment: assignment}
}

// Get returns a message with its active assignment, if any.
func (h *MessagesHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	message, err := h.messages.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("message", map[string]any{"message_id": id})
		}
		return apperrors.MapError(err)
	}

	resp := fiber.Map{"message": dto.NewMessageResponse(message)}
	assignment, err := h.assignment.GetAssignment(c.UserContext(), id)
	if err == nil {
		resp["assignment"] = dto.NewAssignmentResponse(assignment)
	} else if !apperrors.IsCode(err, "NOT_FOUND") {
		return err
	}
	return c.JSON(resp)
}

// Assign runs an explicit routing attempt for a pending message.
func (h *MessagesHandler) Assign(c *fiber.Ctx) error {
	result, err := h.assignment.AssignMessage(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := fiber.Map{"outcome": string(result.Outcome)}
	if result.Assignment != nil {
		resp["assignment"] = dto.NewAssignmentResponse(result.Assignment)
	}
	return c.JSON(resp)
}

// Start marks an assigned message as in progress.
func (h *MessagesHandler) Start(c *fiber.Ctx) error {
	actor, err := h.resolveActor(c)
	if err != nil {
		return err
	}
	if err := h.assignment.StartMessage(c.UserContext(), c.Params("id"), actor); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": string(domain.MessageStatusInProgress)})
}

// Complete closes a message and stamps its assignment.
func (h *MessagesHandler) Complete(c *fiber.Ctx) error {
	actor, err := h.resolveActor(c)
	if err != nil {
		return err
	}
	assignment, err := h.assignment.CompleteMessage(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":     string(domain.MessageStatusCompleted),
		"assignment": dto.NewAssignmentResponse(assignment),
	})
}

// resolveActor loads the acting staff member named in the request body.
// Authentication happened upstream; this only resolves identity.
func (h *MessagesHandler) resolveActor(c *fiber.Ctx) (*domain.StaffMember, error) {
	var req dto.ActorRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", map[string]any{"parse": err.Error()})
	}
	if req.ActorStaffID == "" {
		return nil, apperrors.NewUnauthorized("actor_staff_id required")
	}
	actor, err := h.staff.GetByID(c.UserContext(), req.ActorStaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("unknown staff actor")
		}
		return nil, apperrors.MapError(err)
	}
	return actor, nil
}
