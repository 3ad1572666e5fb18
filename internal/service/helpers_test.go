package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/events"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

func testPrincipal(sessionID string, roles ...string) *auth.Principal {
	actor := domain.Actor{ID: "u1", Username: "jdoe"}
	for _, name := range roles {
		actor.Roles = append(actor.Roles, domain.NewRole(name, name))
	}
	session := &domain.Session{ID: sessionID, Actor: actor}
	return &auth.Principal{Session: session, Actor: &session.Actor, Credential: auth.Credential("amRvZTpwdw==")}
}

// eventLog collects every event published on a dispatcher.
type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func newEventLog() (*eventLog, events.Dispatcher) {
	log := &eventLog{}
	d := events.NewInMemoryDispatcher(zap.NewNop())
	for _, eventType := range events.AllEventTypes {
		d.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			log.mu.Lock()
			defer log.mu.Unlock()
			log.events = append(log.events, e)
			return nil
		})
	}
	return log, d
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func requireDomainCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	require.Equal(t, code, domainErr.Code)
	require.Equal(t, status, domainErr.HTTPStatus)
}
