package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dcr-inbox/internal/api/dto"
	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/service"
	"github.com/spec-kit/dcr-inbox/internal/visibility"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

// AuthHandler exposes session endpoints.
type AuthHandler struct {
	sessions *service.SessionService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.sessions.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"actor": dto.NewActorResponse(&result.Session.Actor, result.VisibleStatuses),
			"auth":  dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		},
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// WhoAmI handles GET /auth/whoami.
func (h *AuthHandler) WhoAmI(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	visible := visibility.VisibleStatuses(principal.Actor.Roles)
	return c.JSON(fiber.Map{"data": dto.NewActorResponse(principal.Actor, visible)})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Actor == nil || principal.Session == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}
