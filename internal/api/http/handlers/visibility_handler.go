package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dcr-inbox/internal/visibility"
)

// VisibilityHandler exposes the role to status rule table.
type VisibilityHandler struct{}

// NewVisibilityHandler constructs handler.
func NewVisibilityHandler() *VisibilityHandler {
	return &VisibilityHandler{}
}

// Statuses GET /visibility/statuses.
func (h *VisibilityHandler) Statuses(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": visibility.Rules()})
}
