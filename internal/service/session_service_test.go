package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/events"
	"github.com/spec-kit/dcr-inbox/internal/identity"
	"github.com/spec-kit/dcr-inbox/internal/repository"
)

type resolverFunc func(ctx context.Context, cred auth.Credential) (*domain.Actor, error)

func (f resolverFunc) Resolve(ctx context.Context, cred auth.Credential) (*domain.Actor, error) {
	return f(ctx, cred)
}

type recordingEnder struct{ ended []string }

func (r *recordingEnder) EndSession(id string) { r.ended = append(r.ended, id) }

type sessionFixture struct {
	svc      *SessionService
	sessions repository.SessionRepository
	tokens   *auth.TokenManager
	sealer   *auth.Sealer
	views    *recordingEnder
	log      *eventLog
}

func newSessionFixture(t *testing.T, resolver ActorResolver) *sessionFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log, dispatcher := newEventLog()
	f := &sessionFixture{
		sessions: repository.NewSessionRepository(client, "test"),
		tokens:   auth.NewTokenManager("jwt", time.Hour),
		sealer:   auth.NewSealer("seal"),
		views:    &recordingEnder{},
		log:      log,
	}
	f.svc = NewSessionService(SessionDependencies{
		Resolver:   resolver,
		Sessions:   f.sessions,
		Tokens:     f.tokens,
		Sealer:     f.sealer,
		Views:      f.views,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return f
}

func documentController() resolverFunc {
	return func(_ context.Context, cred auth.Credential) (*domain.Actor, error) {
		return &domain.Actor{ID: "u1", Username: cred.Username(), Roles: []domain.Role{domain.NewRole("r1", "Document Controller")}}, nil
	}
}

func TestSessionService_Login(t *testing.T) {
	f := newSessionFixture(t, documentController())

	result, err := f.svc.Login(context.Background(), " jdoe ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, []string{"document controller review"}, result.VisibleStatuses.Strings())

	claims, err := f.tokens.ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Session.ID, claims.SessionID)

	stored, err := f.sessions.Get(context.Background(), result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", stored.Actor.Username)
	assert.NotContains(t, stored.SealedCredential, "s3cret")

	cred, err := f.sealer.Open(stored.SealedCredential)
	require.NoError(t, err)
	want, _ := auth.NewBasicCredential("jdoe", "s3cret")
	assert.Equal(t, want, cred)

	assert.Equal(t, []events.EventType{events.EventSessionStarted}, f.log.types())
}

func TestSessionService_LoginFailures(t *testing.T) {
	cases := []struct {
		name     string
		resolver resolverFunc
		password string
		code     string
		status   int
	}{
		{
			name:     "missing password",
			resolver: documentController(),
			code:     "VALIDATION_FAILED",
			status:   http.StatusBadRequest,
		},
		{
			name: "rejected",
			resolver: func(context.Context, auth.Credential) (*domain.Actor, error) {
				return nil, &identity.AuthFailure{Kind: identity.FailureInvalidCredential}
			},
			password: "pw",
			code:     "INVALID_CREDENTIAL",
			status:   http.StatusUnauthorized,
		},
		{
			name: "unreachable",
			resolver: func(context.Context, auth.Credential) (*domain.Actor, error) {
				return nil, &identity.AuthFailure{Kind: identity.FailureBackendUnreachable, Err: errors.New("dial")}
			},
			password: "pw",
			code:     "BACKEND_UNREACHABLE",
			status:   http.StatusBadGateway,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSessionFixture(t, tc.resolver)
			_, err := f.svc.Login(context.Background(), "jdoe", tc.password)
			requireDomainCode(t, err, tc.code, tc.status)
			assert.Empty(t, f.log.types())
		})
	}
}

func TestSessionService_Logout(t *testing.T) {
	f := newSessionFixture(t, documentController())
	result, err := f.svc.Login(context.Background(), "jdoe", "pw")
	require.NoError(t, err)

	principal := &auth.Principal{Session: result.Session, Actor: &result.Session.Actor}
	require.NoError(t, f.svc.Logout(context.Background(), principal))

	_, err = f.sessions.Get(context.Background(), result.Session.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.Equal(t, []string{result.Session.ID}, f.views.ended)
	assert.Equal(t, []events.EventType{events.EventSessionStarted, events.EventSessionEnded}, f.log.types())
}
