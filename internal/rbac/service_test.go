package rbac

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfc/meridian/internal/cache"
	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/models"
	"github.com/meridianfc/meridian/internal/store"
)

type serviceFixture struct {
	svc    *Service
	stores *store.Stores
	admin  *models.Role
	ctx    context.Context
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	stores := store.NewMemoryStores()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	ctx := context.Background()
	admin := &models.Role{
		ID:          uuid.New(),
		Name:        "Admin",
		Description: "admin",
		Level:       1,
		Permissions: models.StringArray{PermManageRoles, "settings.view"},
	}
	require.NoError(t, stores.Roles.Create(ctx, admin))

	return &serviceFixture{
		svc:    NewService(stores.Roles, c, zerolog.Nop()),
		stores: stores,
		admin:  admin,
		ctx:    ctx,
	}
}

func TestServiceCreateRole(t *testing.T) {
	f := newServiceFixture(t)

	role, err := f.svc.Create(f.ctx, f.admin, RoleInput{
		Name:        "Coach",
		Description: "works with clients",
		Level:       5,
		Permissions: []string{"clients.view", "appointments.view"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Coach", role.Name)
	assert.Equal(t, 5, role.Level)
	assert.False(t, role.IsSystem)
}

func TestServiceCreateRequiresManagePermission(t *testing.T) {
	f := newServiceFixture(t)
	powerless := &models.Role{
		ID:          uuid.New(),
		Name:        "Viewer",
		Level:       2,
		Permissions: models.StringArray{"dashboard.view"},
	}
	require.NoError(t, f.stores.Roles.Create(f.ctx, powerless))

	_, err := f.svc.Create(f.ctx, powerless, RoleInput{
		Name: "X", Description: "x", Level: 5, Permissions: []string{"clients.view"},
	})
	var authErr *errors.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestServiceCreateLevelMustBeBelowActor(t *testing.T) {
	f := newServiceFixture(t)

	for _, level := range []int{0, 1} {
		_, err := f.svc.Create(f.ctx, f.admin, RoleInput{
			Name: "X", Description: "x", Level: level, Permissions: []string{"clients.view"},
		})
		var authErr *errors.AuthorizationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "Role level must be lower than your role level", authErr.Error())
	}
}

func TestServiceCreateValidation(t *testing.T) {
	f := newServiceFixture(t)

	tests := []struct {
		name  string
		input RoleInput
	}{
		{"missing name", RoleInput{Description: "x", Level: 5, Permissions: []string{"clients.view"}}},
		{"missing description", RoleInput{Name: "X", Level: 5, Permissions: []string{"clients.view"}}},
		{"no permissions", RoleInput{Name: "X", Description: "x", Level: 5}},
		{"unknown permission", RoleInput{Name: "X", Description: "x", Level: 5, Permissions: []string{"clients.fly"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, f.admin, tt.input)
			var valErr *errors.ValidationError
			require.ErrorAs(t, err, &valErr)
		})
	}
}

func TestServiceCreateInheritedPermissionsCount(t *testing.T) {
	f := newServiceFixture(t)

	// No own permissions, but the parent chain supplies some
	role, err := f.svc.Create(f.ctx, f.admin, RoleInput{
		Name:         "Junior",
		Description:  "inherits everything",
		Level:        5,
		ParentRoleID: &f.admin.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, role.Permissions)

	set, err := f.svc.Permissions(f.ctx, role.ID)
	require.NoError(t, err)
	assert.True(t, set.Has(PermManageRoles))
}

func TestServiceCreateParentChecks(t *testing.T) {
	f := newServiceFixture(t)
	var valErr *errors.ValidationError

	ghost := uuid.New()
	_, err := f.svc.Create(f.ctx, f.admin, RoleInput{
		Name: "X", Description: "x", Level: 5, ParentRoleID: &ghost,
		Permissions: []string{"clients.view"},
	})
	require.ErrorAs(t, err, &valErr, "parent must exist")

	low, err := f.svc.Create(f.ctx, f.admin, RoleInput{
		Name: "Low", Description: "low", Level: 8, Permissions: []string{"clients.view"},
	})
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, f.admin, RoleInput{
		Name: "X", Description: "x", Level: 5, ParentRoleID: &low.ID,
		Permissions: []string{"clients.view"},
	})
	require.ErrorAs(t, err, &valErr, "parent must sit strictly above the role")
}

func TestServiceUpdateSystemRoleLockedToTopLevel(t *testing.T) {
	f := newServiceFixture(t)

	system := &models.Role{
		ID: uuid.New(), Name: "Sys", Description: "sys", Level: 5,
		Permissions: models.StringArray{"clients.view"}, IsSystem: true,
	}
	require.NoError(t, f.stores.Roles.Create(f.ctx, system))

	_, err := f.svc.Update(f.ctx, f.admin, system.ID, RoleInput{
		Name: "Sys", Description: "sys", Level: 5, Permissions: []string{"clients.view"},
	})
	var authErr *errors.AuthorizationError
	require.ErrorAs(t, err, &authErr)

	root := &models.Role{
		ID: uuid.New(), Name: "Root", Description: "root", Level: 0,
		Permissions: models.StringArray{PermManageRoles},
	}
	require.NoError(t, f.stores.Roles.Create(f.ctx, root))

	updated, err := f.svc.Update(f.ctx, root, system.ID, RoleInput{
		Name: "Sys Renamed", Description: "sys", Level: 5, Permissions: []string{"clients.view"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sys Renamed", updated.Name)
	assert.True(t, updated.IsSystem, "the system flag itself is immutable")
}

func TestServiceDeleteGuards(t *testing.T) {
	f := newServiceFixture(t)
	var valErr *errors.ValidationError

	system := &models.Role{
		ID: uuid.New(), Name: "Sys", Description: "sys", Level: 5,
		Permissions: models.StringArray{"clients.view"}, IsSystem: true,
	}
	require.NoError(t, f.stores.Roles.Create(f.ctx, system))

	root := &models.Role{
		ID: uuid.New(), Name: "Root", Description: "root", Level: 0,
		Permissions: models.StringArray{PermManageRoles},
	}
	require.NoError(t, f.stores.Roles.Create(f.ctx, root))

	err := f.svc.Delete(f.ctx, root, system.ID)
	require.ErrorAs(t, err, &valErr, "system roles cannot be deleted")

	occupied, err := f.svc.Create(f.ctx, f.admin, RoleInput{
		Name: "Coach", Description: "c", Level: 5, Permissions: []string{"clients.view"},
	})
	require.NoError(t, err)
	require.NoError(t, f.stores.Users.Create(f.ctx, &models.User{
		ID: uuid.New(), Email: "coach@meridianfc.example", RoleID: &occupied.ID, IsActive: true,
	}))

	err = f.svc.Delete(f.ctx, f.admin, occupied.ID)
	require.ErrorAs(t, err, &valErr, "roles with assigned users cannot be deleted")

	empty, err := f.svc.Create(f.ctx, f.admin, RoleInput{
		Name: "Temp", Description: "t", Level: 6, Permissions: []string{"clients.view"},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(f.ctx, f.admin, empty.ID))

	_, err = f.svc.Get(f.ctx, empty.ID)
	var nfErr *errors.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestServiceUsersCountIsDerived(t *testing.T) {
	f := newServiceFixture(t)

	role, err := f.svc.Create(f.ctx, f.admin, RoleInput{
		Name: "Coach", Description: "c", Level: 5, Permissions: []string{"clients.view"},
	})
	require.NoError(t, err)

	got, err := f.svc.Get(f.ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UsersCount)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.stores.Users.Create(f.ctx, &models.User{
			ID: uuid.New(), Email: uuid.NewString() + "@meridianfc.example", RoleID: &role.ID,
		}))
	}

	got, err = f.svc.Get(f.ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.UsersCount, "count reflects live assignments, not the stored column")

	list, err := f.svc.List(f.ctx)
	require.NoError(t, err)
	for _, r := range list {
		if r.ID == role.ID {
			assert.Equal(t, 3, r.UsersCount)
		}
	}
}

func TestServicePermissionCacheInvalidation(t *testing.T) {
	f := newServiceFixture(t)

	role, err := f.svc.Create(f.ctx, f.admin, RoleInput{
		Name: "Coach", Description: "c", Level: 5, Permissions: []string{"clients.view"},
	})
	require.NoError(t, err)

	set, err := f.svc.Permissions(f.ctx, role.ID)
	require.NoError(t, err)
	assert.False(t, set.Has("clients.edit"))

	_, err = f.svc.Update(f.ctx, f.admin, role.ID, RoleInput{
		Name: "Coach", Description: "c", Level: 5,
		Permissions: []string{"clients.view", "clients.edit"},
	})
	require.NoError(t, err)

	set, err = f.svc.Permissions(f.ctx, role.ID)
	require.NoError(t, err)
	assert.True(t, set.Has("clients.edit"), "mutations drop cached permission sets")
}

func TestServiceCheck(t *testing.T) {
	f := newServiceFixture(t)

	ok, err := f.svc.Check(f.ctx, f.admin.ID, PermManageRoles)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.Check(f.ctx, f.admin.ID, "clients.delete")
	require.NoError(t, err)
	assert.False(t, ok)
}
