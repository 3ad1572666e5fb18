package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/repository"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller: its session, the actor resolved at
// login and the backend credential recovered from the session store.
type Principal struct {
	Session    *domain.Session
	Actor      *domain.Actor
	Credential Credential
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions repository.SessionRepository
	sealer   *Sealer
	now      func() time.Time
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions repository.SessionRepository, sealer *Sealer) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, sealer: sealer, now: time.Now}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	session, err := m.sessions.Get(c.UserContext(), claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return apperrors.NewUnauthorized("session not found")
		}
		return apperrors.MapError(err)
	}
	if session.Expired(m.now()) || session.Actor.ID != claims.ActorID {
		return apperrors.NewUnauthorized("session expired")
	}

	cred, err := m.sealer.Open(session.SealedCredential)
	if err != nil {
		return apperrors.NewUnauthorized("session credential unreadable")
	}

	c.Locals(principalKey, &Principal{Session: session, Actor: &session.Actor, Credential: cred})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
