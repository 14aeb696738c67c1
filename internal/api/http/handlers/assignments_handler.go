package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/message-router/internal/api/dto"
	"github.com/spec-kit/message-router/internal/service"
)

// AssignmentsHandler lists routing decisions per staff member.
type AssignmentsHandler struct {
	assignment *service.AssignmentService
}

// NewAssignmentsHandler creates the handler.
func NewAssignmentsHandler(assignment *service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{assignment: assignment}
}

// ListByStaff returns recent assignments for one staff member.
func (h *AssignmentsHandler) ListByStaff(c *fiber.Ctx) error {
	staffID := c.Params("id")
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	assignments, err := h.assignment.ListAssignments(c.UserContext(), staffID, limit, offset)
	if err != nil {
		return err
	}

	result := make([]dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		result = append(result, dto.NewAssignmentResponse(&assignments[i]))
	}
	return c.JSON(fiber.Map{"assignments": result})
}
