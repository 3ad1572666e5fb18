package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/repository"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

type middlewareFixture struct {
	app      *fiber.App
	tokens   *TokenManager
	sessions repository.SessionRepository
	sealer   *Sealer
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &middlewareFixture{
		tokens:   NewTokenManager("jwt-secret", time.Hour),
		sessions: repository.NewSessionRepository(client, "test"),
		sealer:   NewSealer("session-secret"),
	}
	f.app = fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
	}})
	mw := NewAuthMiddleware(f.tokens, f.sessions, f.sealer)
	f.app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		require.True(t, ok)
		return c.JSON(fiber.Map{"actor": p.Actor.ID, "user": p.Credential.Username()})
	})
	f.app.Get("/admin", mw.Handle, RequireRole(domain.RoleKindAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return f
}

func (f *middlewareFixture) login(t *testing.T, actor domain.Actor) string {
	t.Helper()
	cred, err := NewBasicCredential("jdoe", "pw")
	require.NoError(t, err)
	sealed, err := f.sealer.Seal(cred)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, f.sessions.Save(context.Background(), &domain.Session{
		ID:               "sess-1",
		Actor:            actor,
		SealedCredential: sealed,
		CreatedAt:        now,
		ExpiresAt:        now.Add(time.Hour),
	}))
	token, _, err := f.tokens.GenerateToken("sess-1", actor.ID, now)
	require.NoError(t, err)
	return token
}

func (f *middlewareFixture) get(t *testing.T, path, authHeader string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddleware_LoadsPrincipal(t *testing.T) {
	f := newMiddlewareFixture(t)
	token := f.login(t, domain.Actor{ID: "u1"})

	assert.Equal(t, fiber.StatusOK, f.get(t, "/me", "Bearer "+token))
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	f := newMiddlewareFixture(t)
	token := f.login(t, domain.Actor{ID: "u1"})
	orphan, _, err := f.tokens.GenerateToken("no-such-session", "u1", time.Now())
	require.NoError(t, err)
	wrongActor, _, err := f.tokens.GenerateToken("sess-1", "someone-else", time.Now())
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Basic " + token,
		"garbage token":   "Bearer not-a-jwt",
		"unknown session": "Bearer " + orphan,
		"actor mismatch":  "Bearer " + wrongActor,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, fiber.StatusUnauthorized, f.get(t, "/me", header))
		})
	}
}

func TestAuthMiddleware_LoggedOutSession(t *testing.T) {
	f := newMiddlewareFixture(t)
	token := f.login(t, domain.Actor{ID: "u1"})
	require.NoError(t, f.sessions.Delete(context.Background(), "sess-1"))

	assert.Equal(t, fiber.StatusUnauthorized, f.get(t, "/me", "Bearer "+token))
}

func TestRequireRole(t *testing.T) {
	f := newMiddlewareFixture(t)

	token := f.login(t, domain.Actor{ID: "u1", Roles: []domain.Role{domain.NewRole("r1", "Manager")}})
	assert.Equal(t, fiber.StatusForbidden, f.get(t, "/admin", "Bearer "+token))

	token = f.login(t, domain.Actor{ID: "u1", Roles: []domain.Role{domain.NewRole("r2", "Administrator")}})
	assert.Equal(t, fiber.StatusNoContent, f.get(t, "/admin", "Bearer "+token))
}
