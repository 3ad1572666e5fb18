// Package identity resolves a backend credential into an actor with roles.
package identity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/backend"
	"github.com/spec-kit/dcr-inbox/internal/domain"
)

// FailureKind classifies why resolution failed.
type FailureKind string

const (
	// FailureInvalidCredential means the backend rejected the credential.
	FailureInvalidCredential FailureKind = "invalid_credential"
	// FailureBackendUnreachable means the backend could not be reached or answered garbage.
	FailureBackendUnreachable FailureKind = "backend_unreachable"
)

// AuthFailure is the only error Resolve returns.
type AuthFailure struct {
	Kind FailureKind
	Err  error
}

func (e *AuthFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("identity: %s", e.Kind)
}

func (e *AuthFailure) Unwrap() error { return e.Err }

// IsInvalidCredential reports whether err is an invalid_credential failure.
func IsInvalidCredential(err error) bool {
	var failure *AuthFailure
	return errors.As(err, &failure) && failure.Kind == FailureInvalidCredential
}

// WhoAmIClient is the backend call the resolver depends on.
type WhoAmIClient interface {
	WhoAmI(ctx context.Context, cred auth.Credential) (*backend.WhoAmIResponse, error)
}

// Resolver turns credentials into actors.
type Resolver struct {
	client WhoAmIClient
	logger *zap.Logger
}

// NewResolver constructs a resolver.
func NewResolver(client WhoAmIClient, logger *zap.Logger) *Resolver {
	return &Resolver{client: client, logger: logger.Named("identity")}
}

// Resolve asks the backend who owns cred. On success the actor's roles are fully
// populated; callers keep them for the session and never re-resolve mid-session.
func (r *Resolver) Resolve(ctx context.Context, cred auth.Credential) (*domain.Actor, error) {
	if cred.IsZero() {
		return nil, &AuthFailure{Kind: FailureInvalidCredential, Err: auth.ErrEmptyCredential}
	}

	resp, err := r.client.WhoAmI(ctx, cred)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			r.logger.Info("credential rejected",
				zap.String("username", cred.Username()),
				zap.Int("status", statusErr.StatusCode))
			return nil, &AuthFailure{Kind: FailureInvalidCredential, Err: err}
		}
		r.logger.Warn("whoami failed", zap.Error(err))
		return nil, &AuthFailure{Kind: FailureBackendUnreachable, Err: err}
	}
	if resp == nil || resp.ID == "" {
		return nil, &AuthFailure{Kind: FailureBackendUnreachable, Err: errors.New("whoami returned no identity")}
	}

	actor := resp.Actor()
	if actor.Username == "" {
		actor.Username = cred.Username()
	}
	r.logger.Debug("actor resolved",
		zap.String("actor_id", actor.ID),
		zap.Strings("roles", actor.RoleNames()))
	return actor, nil
}
