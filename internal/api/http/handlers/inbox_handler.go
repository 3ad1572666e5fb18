package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/dcr-inbox/internal/api/dto"
	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/service"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

const defaultActivityLimit = 50

// InboxHandler serves the actor's inbox and its local view state.
type InboxHandler struct {
	inbox *service.InboxService
	audit *service.AuditService
}

// NewInboxHandler constructs handler.
func NewInboxHandler(inboxService *service.InboxService, auditService *service.AuditService) *InboxHandler {
	return &InboxHandler{inbox: inboxService, audit: auditService}
}

// Fetch GET /inbox. Refreshes from the backend.
func (h *InboxHandler) Fetch(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	snap, err := h.inbox.Refresh(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInboxResponse(snap, nil)})
}

// Current GET /inbox/current. Returns the last fetched view, optionally filtered.
func (h *InboxHandler) Current(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	filter := domain.InboxFilter{
		AssignedTo: c.Query("assigned_to"),
		Status:     domain.Status(c.Query("status")),
		Priority:   c.Query("priority"),
	}
	snap, err := h.inbox.Current(principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInboxResponse(snap, &filter)})
}

// Select POST /inbox/select/:id.
func (h *InboxHandler) Select(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	record, err := h.inbox.Select(principal, recordID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": record})
}

// Patch PATCH /inbox/records/:id. Applies a local, unsaved edit.
func (h *InboxHandler) Patch(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PatchRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	record, err := h.inbox.Update(c.UserContext(), principal, recordID(c), req.ToPatch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": record})
}

// Activity GET /inbox/activity.
func (h *InboxHandler) Activity(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", defaultActivityLimit)
	entries, err := h.audit.Recent(c.UserContext(), principal.Actor.ID, limit)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewActivityResponse(entries)})
}

// recordID returns a copy of the :id param that is safe to keep after the request.
func recordID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}
