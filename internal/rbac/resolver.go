package rbac

import (
	"sort"

	"github.com/google/uuid"
	"github.com/meridianfc/meridian/internal/models"
)

// PermissionSet is a resolved set of fully-qualified permission keys
type PermissionSet map[string]struct{}

// Has reports membership of a fully-qualified key
func (s PermissionSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Sorted returns the set as a sorted slice
func (s PermissionSet) Sorted() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve returns a role's effective permissions: its own set unioned with
// every ancestor's along the parent chain. The walk tracks visited role
// ids, so it terminates even if an edit path slipped a cycle into the
// collection; a missing parent simply ends the chain.
func Resolve(role *models.Role, roles []models.Role) PermissionSet {
	set := make(PermissionSet)
	if role == nil {
		return set
	}

	index := make(map[uuid.UUID]*models.Role, len(roles))
	for i := range roles {
		index[roles[i].ID] = &roles[i]
	}

	visited := make(map[uuid.UUID]bool)
	for current := role; current != nil; {
		if visited[current.ID] {
			break
		}
		visited[current.ID] = true

		for _, key := range current.Permissions {
			set[key] = struct{}{}
		}

		if current.ParentRoleID == nil {
			break
		}
		current = index[*current.ParentRoleID]
	}

	return set
}

// HasPermission reports whether the role's effective permission set
// contains the fully-qualified key
func HasPermission(role *models.Role, key string, roles []models.Role) bool {
	return Resolve(role, roles).Has(key)
}

// CanManageRole decides whether an actor may administer a target role: the
// actor's level must be strictly lower (higher authority) and its
// effective permissions must include settings.manageRoles
func CanManageRole(actor, target *models.Role, roles []models.Role) bool {
	if actor == nil || target == nil {
		return false
	}
	if actor.Level >= target.Level {
		return false
	}
	return HasPermission(actor, PermManageRoles, roles)
}
