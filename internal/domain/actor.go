package domain

import (
	"sort"
	"strings"
)

// RoleKind enumerates the role vocabulary known to the inbox router.
type RoleKind string

const (
	RoleKindUnknown             RoleKind = "unknown"
	RoleKindComplianceAuthority RoleKind = "compliance_authority"
	RoleKindDocumentController  RoleKind = "document_controller"
	RoleKindManager             RoleKind = "manager"
	RoleKindAdmin               RoleKind = "admin"
)

// roleNames maps normalized role names to kinds.
var roleNames = map[string]RoleKind{
	"compliance authority": RoleKindComplianceAuthority,
	"document controller":  RoleKindDocumentController,
	"manager":              RoleKindManager,
	"quality manager":      RoleKindManager,
	"admin":                RoleKindAdmin,
	"administrator":        RoleKindAdmin,
}

// NormalizeRoleName lower-cases and collapses whitespace so names compare case-insensitively.
func NormalizeRoleName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ParseRoleKind resolves a free-text role name. Unrecognized names yield RoleKindUnknown.
func ParseRoleKind(name string) RoleKind {
	if kind, ok := roleNames[NormalizeRoleName(name)]; ok {
		return kind
	}
	return RoleKindUnknown
}

// Role is a named authorization grant held by an actor.
type Role struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind RoleKind `json:"kind"`
}

// NewRole builds a role with its kind resolved from the name.
func NewRole(id, name string) Role {
	return Role{ID: id, Name: name, Kind: ParseRoleKind(name)}
}

// Is reports whether the role name matches other, ignoring case.
func (r Role) Is(other string) bool {
	return NormalizeRoleName(r.Name) == NormalizeRoleName(other)
}

// Actor is the authenticated principal behind a session.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Roles    []Role `json:"roles"`
}

// HasRole reports whether the actor holds any role of the given kind.
func (a *Actor) HasRole(kind RoleKind) bool {
	if a == nil {
		return false
	}
	for _, role := range a.Roles {
		if role.Kind == kind {
			return true
		}
	}
	return false
}

// RoleNames returns the actor's role names in their original spelling.
func (a *Actor) RoleNames() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Roles))
	for _, role := range a.Roles {
		names = append(names, role.Name)
	}
	return names
}

// SortedRoles returns a copy of the roles ordered by kind then normalized name.
func SortedRoles(roles []Role) []Role {
	out := append([]Role(nil), roles...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return NormalizeRoleName(out[i].Name) < NormalizeRoleName(out[j].Name)
	})
	return out
}
