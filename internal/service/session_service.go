package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/events"
	"github.com/spec-kit/dcr-inbox/internal/identity"
	"github.com/spec-kit/dcr-inbox/internal/repository"
	"github.com/spec-kit/dcr-inbox/internal/visibility"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

// ActorResolver resolves a credential to an actor.
type ActorResolver interface {
	Resolve(ctx context.Context, cred auth.Credential) (*domain.Actor, error)
}

// SessionEnder drops per-session state when a session ends.
type SessionEnder interface {
	EndSession(sessionID string)
}

// SessionDependencies bundles collaborators for the session service.
type SessionDependencies struct {
	Resolver   ActorResolver
	Sessions   repository.SessionRepository
	Tokens     *auth.TokenManager
	Sealer     *auth.Sealer
	Views      SessionEnder
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// SessionService coordinates login and logout. It is the only holder of backend
// credentials; everything downstream receives them through a Principal.
type SessionService struct {
	resolver   ActorResolver
	sessions   repository.SessionRepository
	tokens     *auth.TokenManager
	sealer     *auth.Sealer
	views      SessionEnder
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Session         *domain.Session
	Token           string
	ExpiresAt       time.Time
	VisibleStatuses domain.StatusSet
}

// NewSessionService builds the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		resolver:   deps.Resolver,
		sessions:   deps.Sessions,
		tokens:     deps.Tokens,
		sealer:     deps.Sealer,
		views:      deps.Views,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger.Named("session"),
		now:        now,
	}
}

// Login validates the credential against the backend and opens a session.
func (s *SessionService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password are required", nil)
	}
	cred, err := auth.NewBasicCredential(username, password)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	actor, err := s.resolver.Resolve(ctx, cred)
	if err != nil {
		if identity.IsInvalidCredential(err) {
			return nil, apperrors.NewInvalidCredential(err)
		}
		return nil, apperrors.NewBackendUnreachable(err)
	}

	sealed, err := s.sealer.Seal(cred)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	session := &domain.Session{
		ID:               uuid.NewString(),
		Actor:            *actor,
		SealedCredential: sealed,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.tokens.TTL()),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	token, exp, err := s.tokens.GenerateToken(session.ID, actor.ID, now)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	visible := visibility.VisibleStatuses(actor.Roles)
	s.publish(ctx, session, events.EventSessionStarted, events.SessionStartedPayload{
		Roles:           actor.RoleNames(),
		VisibleStatuses: visible.Strings(),
	})
	s.logger.Info("session started",
		zap.String("session_id", session.ID),
		zap.String("actor_id", actor.ID))
	return &LoginResult{Session: session, Token: token, ExpiresAt: exp, VisibleStatuses: visible}, nil
}

// Logout clears the stored credential and ends the session's inbox view.
func (s *SessionService) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil || principal.Session == nil {
		return apperrors.NewUnauthorized("no session")
	}
	if s.views != nil {
		s.views.EndSession(principal.Session.ID)
	}
	if err := s.sessions.Delete(ctx, principal.Session.ID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return apperrors.NewInternalError(err)
	}
	s.publish(ctx, principal.Session, events.EventSessionEnded, nil)
	s.logger.Info("session ended", zap.String("session_id", principal.Session.ID))
	return nil
}

func (s *SessionService) publish(ctx context.Context, session *domain.Session, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: session.ID,
		Actor:     events.Actor{ID: session.Actor.ID, Username: session.Actor.Username},
		Timestamp: s.now(),
		Payload:   payload,
	})
}
