// Package rbac implements the role and permission engine: a role
// hierarchy ranked by level, inheritable permission sets, and the
// authorization checks the dashboard operations are gated on.
package rbac

import "strings"

// Permission is one atomic grantable capability
type Permission struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// PermissionCategory is a named group of permissions. A fully-qualified
// permission reference is "{category}.{key}".
type PermissionCategory struct {
	Key         string       `json:"key"`
	Label       string       `json:"label"`
	Permissions []Permission `json:"permissions"`
}

// PermManageRoles gates every role-management operation
const PermManageRoles = "settings.manageRoles"

// Catalog returns the grantable permissions grouped by category
func Catalog() []PermissionCategory {
	return []PermissionCategory{
		{
			Key:   "dashboard",
			Label: "Dashboard",
			Permissions: []Permission{
				{Key: "view", Label: "View Dashboard"},
				{Key: "viewReports", Label: "View Reports"},
			},
		},
		{
			Key:   "clients",
			Label: "Clients",
			Permissions: []Permission{
				{Key: "view", Label: "View Clients"},
				{Key: "create", Label: "Create Clients"},
				{Key: "edit", Label: "Edit Clients"},
				{Key: "delete", Label: "Delete Clients"},
				{Key: "manageTemplates", Label: "Manage Client Templates"},
			},
		},
		{
			Key:   "content",
			Label: "Content",
			Permissions: []Permission{
				{Key: "view", Label: "View Content"},
				{Key: "edit", Label: "Edit Content"},
				{Key: "publish", Label: "Publish Content"},
			},
		},
		{
			Key:   "appointments",
			Label: "Appointments",
			Permissions: []Permission{
				{Key: "view", Label: "View Appointments"},
				{Key: "manage", Label: "Manage Appointments"},
			},
		},
		{
			Key:   "settings",
			Label: "Settings",
			Permissions: []Permission{
				{Key: "view", Label: "View Settings"},
				{Key: "edit", Label: "Edit Settings"},
				{Key: "manageRoles", Label: "Manage Roles"},
				{Key: "manageUsers", Label: "Manage Users"},
				{Key: "manageIntegrations", Label: "Manage Integrations"},
			},
		},
	}
}

// FullKey builds the fully-qualified permission key for a category/key
// pair. The exact "{category}.{key}" string is used verbatim as the
// membership key in permission sets.
func FullKey(category, key string) string {
	return category + "." + key
}

// KnownKey reports whether a fully-qualified key exists in the catalog
func KnownKey(full string) bool {
	category, key, ok := strings.Cut(full, ".")
	if !ok {
		return false
	}
	for _, cat := range Catalog() {
		if cat.Key != category {
			continue
		}
		for _, p := range cat.Permissions {
			if p.Key == key {
				return true
			}
		}
	}
	return false
}
