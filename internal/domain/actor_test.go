package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/dcr-inbox/internal/domain"
)

func TestParseRoleKind(t *testing.T) {
	cases := map[string]domain.RoleKind{
		"Compliance Authority":    domain.RoleKindComplianceAuthority,
		"  DOCUMENT   controller": domain.RoleKindDocumentController,
		"manager":                 domain.RoleKindManager,
		"Quality Manager":         domain.RoleKindManager,
		"Admin":                   domain.RoleKindAdmin,
		"Administrator":           domain.RoleKindAdmin,
		"Intern":                  domain.RoleKindUnknown,
		"":                        domain.RoleKindUnknown,
	}
	for name, want := range cases {
		assert.Equal(t, want, domain.ParseRoleKind(name), name)
	}
}

func TestRole_Is(t *testing.T) {
	role := domain.NewRole("r1", "Document Controller")

	assert.True(t, role.Is("document controller"))
	assert.True(t, role.Is(" DOCUMENT CONTROLLER "))
	assert.False(t, role.Is("manager"))
}

func TestActor_HasRoleAndNames(t *testing.T) {
	actor := &domain.Actor{ID: "u1", Roles: []domain.Role{
		domain.NewRole("r1", "Manager"),
		domain.NewRole("r2", "Intern"),
	}}

	assert.True(t, actor.HasRole(domain.RoleKindManager))
	assert.False(t, actor.HasRole(domain.RoleKindAdmin))
	assert.Equal(t, []string{"Manager", "Intern"}, actor.RoleNames())

	var none *domain.Actor
	assert.False(t, none.HasRole(domain.RoleKindManager))
	assert.Nil(t, none.RoleNames())
}

func TestSortedRoles_DoesNotMutateInput(t *testing.T) {
	roles := []domain.Role{
		domain.NewRole("r1", "Manager"),
		domain.NewRole("r2", "Admin"),
		domain.NewRole("r3", "Document Controller"),
	}

	sorted := domain.SortedRoles(roles)

	assert.Equal(t, []domain.RoleKind{
		domain.RoleKindAdmin,
		domain.RoleKindDocumentController,
		domain.RoleKindManager,
	}, []domain.RoleKind{sorted[0].Kind, sorted[1].Kind, sorted[2].Kind})
	assert.Equal(t, "Manager", roles[0].Name)
}
