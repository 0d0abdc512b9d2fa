package rbac

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfc/meridian/internal/models"
)

func makeRole(name string, level int, parent *uuid.UUID, perms ...string) models.Role {
	return models.Role{
		ID:           uuid.New(),
		Name:         name,
		Level:        level,
		ParentRoleID: parent,
		Permissions:  models.StringArray(perms),
	}
}

func TestResolveInheritsParentChain(t *testing.T) {
	grandparent := makeRole("Admin", 1, nil, "settings.manageRoles", "clients.view")
	parent := makeRole("Manager", 3, &grandparent.ID, "clients.edit")
	child := makeRole("Coach", 5, &parent.ID, "appointments.view")
	roles := []models.Role{grandparent, parent, child}

	set := Resolve(&child, roles)

	assert.True(t, set.Has("appointments.view"))
	assert.True(t, set.Has("clients.edit"), "inherits from parent")
	assert.True(t, set.Has("clients.view"), "inherits from grandparent")
	assert.True(t, set.Has("settings.manageRoles"))
	assert.False(t, set.Has("clients.delete"))
}

func TestResolveDeduplicates(t *testing.T) {
	parent := makeRole("Admin", 1, nil, "clients.view")
	child := makeRole("Coach", 5, &parent.ID, "clients.view", "clients.edit")
	roles := []models.Role{parent, child}

	set := Resolve(&child, roles)
	assert.Equal(t, []string{"clients.edit", "clients.view"}, set.Sorted())
}

func TestResolveTerminatesOnCycle(t *testing.T) {
	a := makeRole("A", 1, nil, "clients.view")
	b := makeRole("B", 2, &a.ID, "clients.edit")
	a.ParentRoleID = &b.ID
	roles := []models.Role{a, b}

	set := Resolve(&a, roles)
	assert.True(t, set.Has("clients.view"))
	assert.True(t, set.Has("clients.edit"))
}

func TestResolveMissingParentEndsChain(t *testing.T) {
	ghost := uuid.New()
	role := makeRole("Orphan", 5, &ghost, "clients.view")

	set := Resolve(&role, []models.Role{role})
	assert.Equal(t, []string{"clients.view"}, set.Sorted())
}

func TestResolveNilRole(t *testing.T) {
	set := Resolve(nil, nil)
	assert.Empty(t, set)
}

func TestCanManageRole(t *testing.T) {
	admin := makeRole("Admin", 1, nil, PermManageRoles)
	peer := makeRole("Peer", 1, nil, PermManageRoles)
	coach := makeRole("Coach", 5, nil, "clients.view")
	viewer := makeRole("Viewer", 9, nil, "dashboard.view")
	roles := []models.Role{admin, peer, coach, viewer}

	assert.True(t, CanManageRole(&admin, &coach, roles))
	assert.False(t, CanManageRole(&admin, &peer, roles), "equal levels cannot manage each other")
	assert.False(t, CanManageRole(&coach, &admin, roles), "lower authority cannot manage up")
	assert.False(t, CanManageRole(&viewer, &coach, roles), "higher authority without manageRoles is rejected")
	assert.False(t, CanManageRole(nil, &coach, roles))
	assert.False(t, CanManageRole(&admin, nil, roles))
}

func TestCanManageRoleViaInheritedPermission(t *testing.T) {
	root := makeRole("Root", 0, nil, PermManageRoles)
	admin := makeRole("Admin", 1, &root.ID, "clients.view")
	coach := makeRole("Coach", 5, nil)
	roles := []models.Role{root, admin, coach}

	assert.True(t, CanManageRole(&admin, &coach, roles), "manageRoles can be inherited")
}

func TestFullKey(t *testing.T) {
	assert.Equal(t, "settings.manageRoles", FullKey("settings", "manageRoles"))
	assert.Equal(t, PermManageRoles, FullKey("settings", "manageRoles"))
}

func TestKnownKey(t *testing.T) {
	assert.True(t, KnownKey("clients.view"))
	assert.True(t, KnownKey("settings.manageRoles"))
	assert.False(t, KnownKey("clients.fly"))
	assert.False(t, KnownKey("ghosts.view"))
	assert.False(t, KnownKey("noseparator"))
}

func TestCatalogKeysAreWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, cat := range Catalog() {
		require.NotEmpty(t, cat.Key)
		for _, p := range cat.Permissions {
			full := FullKey(cat.Key, p.Key)
			assert.False(t, seen[full], "duplicate permission %s", full)
			seen[full] = true
		}
	}
	assert.True(t, seen[PermManageRoles])
}
