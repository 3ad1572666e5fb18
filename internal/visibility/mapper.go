// Package visibility maps roles to the workflow statuses they may see in an inbox.
package visibility

import "github.com/spec-kit/dcr-inbox/internal/domain"

// rules is the static role → status table. Kinds absent from the table see nothing.
var rules = map[domain.RoleKind]domain.StatusSet{
	domain.RoleKindComplianceAuthority: domain.NewStatusSet(domain.StatusComplianceAuthorityReview),
	domain.RoleKindDocumentController:  domain.NewStatusSet(domain.StatusDocumentControllerReview),
	domain.RoleKindManager:             domain.NewStatusSet(domain.StatusManagerReview, domain.StatusPendingApproval),
	domain.RoleKindAdmin:               domain.WildcardStatusSet(),
}

// StatusesFor returns the statuses granted to a single role kind.
func StatusesFor(kind domain.RoleKind) domain.StatusSet {
	return rules[kind]
}

// VisibleStatuses returns the union of statuses granted by roles, or the wildcard
// when any role is granted everything. No roles yield the empty set.
func VisibleStatuses(roles []domain.Role) domain.StatusSet {
	visible := domain.NewStatusSet()
	for _, role := range roles {
		kind := role.Kind
		if kind == "" {
			kind = domain.ParseRoleKind(role.Name)
		}
		granted := StatusesFor(kind)
		if granted.IsWildcard() {
			return granted
		}
		visible = visible.Union(granted)
	}
	return visible
}

// Rule is one row of the rule table for display.
type Rule struct {
	Kind     domain.RoleKind `json:"kind"`
	Statuses []string        `json:"statuses"`
}

// Rules returns the rule table ordered by kind.
func Rules() []Rule {
	kinds := []domain.RoleKind{
		domain.RoleKindAdmin,
		domain.RoleKindComplianceAuthority,
		domain.RoleKindDocumentController,
		domain.RoleKindManager,
		domain.RoleKindUnknown,
	}
	out := make([]Rule, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, Rule{Kind: kind, Statuses: StatusesFor(kind).Strings()})
	}
	return out
}
