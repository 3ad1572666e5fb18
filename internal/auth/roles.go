package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dcr-inbox/internal/domain"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

// RequireRole ensures the actor holds at least one role of the allowed kinds.
func RequireRole(allowed ...domain.RoleKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Actor == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		for _, kind := range allowed {
			if principal.Actor.HasRole(kind) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
