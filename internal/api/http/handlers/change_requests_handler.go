package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dcr-inbox/internal/api/dto"
	"github.com/spec-kit/dcr-inbox/internal/service"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

// ChangeRequestsHandler serves change request authoring endpoints.
type ChangeRequestsHandler struct {
	service *service.ChangeRequestService
}

// NewChangeRequestsHandler constructs handler.
func NewChangeRequestsHandler(svc *service.ChangeRequestService) *ChangeRequestsHandler {
	return &ChangeRequestsHandler{service: svc}
}

// Documents GET /documents.
func (h *ChangeRequestsHandler) Documents(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	docs, err := h.service.ListDocuments(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": docs})
}

// Dropdowns GET /dropdowns?type=.
func (h *ChangeRequestsHandler) Dropdowns(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	entries, err := h.service.Dropdown(c.UserContext(), principal, c.Query("type"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// Roles GET /roles.
func (h *ChangeRequestsHandler) Roles(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	roles, err := h.service.Roles(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": roles})
}

// Users GET /users.
func (h *ChangeRequestsHandler) Users(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	users, err := h.service.Users(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": users})
}

// Create POST /change-requests.
func (h *ChangeRequestsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateChangeRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.service.Submit(c.UserContext(), principal, req.ToDraft())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": created})
}
