package dto

import (
	"time"

	"github.com/spec-kit/dcr-inbox/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RoleResponse describes one role.
type RoleResponse struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Kind domain.RoleKind `json:"kind"`
}

// ActorResponse describes the authenticated actor and what it may see.
type ActorResponse struct {
	ID              string         `json:"id"`
	Username        string         `json:"username"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Roles           []RoleResponse `json:"roles"`
	VisibleStatuses []string       `json:"visible_statuses"`
}

// NewActorResponse maps an actor and its visible statuses.
func NewActorResponse(actor *domain.Actor, visible domain.StatusSet) ActorResponse {
	roles := make([]RoleResponse, 0, len(actor.Roles))
	for _, role := range actor.Roles {
		roles = append(roles, RoleResponse{ID: role.ID, Name: role.Name, Kind: role.Kind})
	}
	return ActorResponse{
		ID:              actor.ID,
		Username:        actor.Username,
		Name:            actor.Name,
		Email:           actor.Email,
		Roles:           roles,
		VisibleStatuses: visible.Strings(),
	}
}
