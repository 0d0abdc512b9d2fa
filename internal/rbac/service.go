package rbac

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meridianfc/meridian/internal/cache"
	"github.com/meridianfc/meridian/internal/errors"
	"github.com/meridianfc/meridian/internal/models"
	"github.com/meridianfc/meridian/internal/store"
)

const permissionTTL = 10 * time.Minute

// Service implements role management on top of the role repository. All
// mutations are gated on the actor's effective permissions and level, and
// every check runs before the first write.
type Service struct {
	roles store.RoleStore
	cache cache.Cache
	log   zerolog.Logger
}

// NewService creates a role service. The cache is optional; pass nil to
// resolve permission sets on every call.
func NewService(roles store.RoleStore, c cache.Cache, log zerolog.Logger) *Service {
	return &Service{roles: roles, cache: c, log: log.With().Str("component", "rbac").Logger()}
}

// RoleInput carries the caller-editable role attributes
type RoleInput struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Level        int        `json:"level"`
	ParentRoleID *uuid.UUID `json:"parentRoleId"`
	Permissions  []string   `json:"permissions"`
}

// List returns all roles with UsersCount freshly derived from the user
// assignments, never from the stored counter.
func (s *Service) List(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		count, err := s.roles.CountUsers(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].UsersCount = count
	}
	return roles, nil
}

// Get returns one role with a derived UsersCount
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	role, err := s.roles.Get(ctx, id)
	if err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("role")
		}
		return nil, err
	}
	count, err := s.roles.CountUsers(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.UsersCount = count
	return role, nil
}

// Create adds a new role. The actor must hold settings.manageRoles and may
// only create roles below its own authority.
func (s *Service) Create(ctx context.Context, actor *models.Role, input RoleInput) (*models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}

	if !HasPermission(actor, PermManageRoles, roles) {
		return nil, errors.NewAuthorizationError("You do not have permission to manage roles")
	}
	if actor == nil || input.Level <= actor.Level {
		return nil, errors.NewAuthorizationError("Role level must be lower than your role level")
	}
	if err := s.validateInput(ctx, input, nil, roles); err != nil {
		return nil, err
	}

	role := &models.Role{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Level:        input.Level,
		ParentRoleID: input.ParentRoleID,
		Permissions:  models.StringArray(input.Permissions),
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}

	s.invalidatePermissions(ctx)
	s.log.Info().Str("role_id", role.ID.String()).Str("name", role.Name).Msg("role created")
	return role, nil
}

// Update edits an existing role. System roles are locked to top-level
// actors; level and hierarchy rules apply the same as on create.
func (s *Service) Update(ctx context.Context, actor *models.Role, id uuid.UUID, input RoleInput) (*models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}

	role, err := s.roles.Get(ctx, id)
	if err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("role")
		}
		return nil, err
	}

	if !CanManageRole(actor, role, roles) {
		return nil, errors.NewAuthorizationError("You do not have permission to manage this role")
	}
	if role.IsSystem && actor.Level != 0 {
		return nil, errors.NewAuthorizationError("System roles can only be modified by the top-level role")
	}
	if input.Level <= actor.Level {
		return nil, errors.NewAuthorizationError("Role level must be lower than your role level")
	}
	if err := s.validateInput(ctx, input, &id, roles); err != nil {
		return nil, err
	}

	role.Name = strings.TrimSpace(input.Name)
	role.Description = strings.TrimSpace(input.Description)
	role.Level = input.Level
	role.ParentRoleID = input.ParentRoleID
	role.Permissions = models.StringArray(input.Permissions)

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}

	s.invalidatePermissions(ctx)
	s.log.Info().Str("role_id", role.ID.String()).Msg("role updated")
	return role, nil
}

// Delete removes a role. System roles and roles that still have users
// assigned are protected; the user check reads the live assignment count.
func (s *Service) Delete(ctx context.Context, actor *models.Role, id uuid.UUID) error {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return err
	}

	role, err := s.roles.Get(ctx, id)
	if err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return errors.NewNotFoundError("role")
		}
		return err
	}

	if !CanManageRole(actor, role, roles) {
		return errors.NewAuthorizationError("You do not have permission to manage this role")
	}
	if role.IsSystem {
		return errors.NewValidationError("role", "System roles cannot be deleted")
	}
	count, err := s.roles.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.NewValidationError("role", "Roles with assigned users cannot be deleted")
	}

	if err := s.roles.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidatePermissions(ctx)
	s.log.Info().Str("role_id", id.String()).Msg("role deleted")
	return nil
}

// Permissions returns a role's effective permission set, cached per role
func (s *Service) Permissions(ctx context.Context, roleID uuid.UUID) (PermissionSet, error) {
	key := cache.PermissionKey(roleID.String())

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var keys []string
			if json.Unmarshal(raw, &keys) == nil {
				set := make(PermissionSet, len(keys))
				for _, k := range keys {
					set[k] = struct{}{}
				}
				return set, nil
			}
		}
	}

	role, err := s.roles.Get(ctx, roleID)
	if err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("role")
		}
		return nil, err
	}
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}

	set := Resolve(role, roles)

	if s.cache != nil {
		if raw, err := json.Marshal(set.Sorted()); err == nil {
			if err := s.cache.Set(ctx, key, raw, permissionTTL); err != nil {
				s.log.Warn().Err(err).Msg("permission cache write failed")
			}
		}
	}

	return set, nil
}

// Check reports whether the role holds the fully-qualified permission key
func (s *Service) Check(ctx context.Context, roleID uuid.UUID, key string) (bool, error) {
	set, err := s.Permissions(ctx, roleID)
	if err != nil {
		return false, err
	}
	return set.Has(key), nil
}

// validateInput checks the caller-supplied attributes. selfID is set on
// updates so the parent check can reject self-reference.
func (s *Service) validateInput(ctx context.Context, input RoleInput, selfID *uuid.UUID, roles []models.Role) error {
	var fields []errors.FieldError

	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, errors.FieldError{Field: "name", Message: "Role name is required"})
	}
	if strings.TrimSpace(input.Description) == "" {
		fields = append(fields, errors.FieldError{Field: "description", Message: "Role description is required"})
	}
	for _, key := range input.Permissions {
		if !KnownKey(key) {
			fields = append(fields, errors.FieldError{Field: "permissions", Message: "Unknown permission: " + key})
		}
	}

	effective := len(input.Permissions)
	if input.ParentRoleID != nil {
		if selfID != nil && *input.ParentRoleID == *selfID {
			fields = append(fields, errors.FieldError{Field: "parentRoleId", Message: "A role cannot be its own parent"})
		} else {
			parent, err := s.roles.Get(ctx, *input.ParentRoleID)
			if err != nil {
				if goerrors.Is(err, store.ErrNotFound) {
					fields = append(fields, errors.FieldError{Field: "parentRoleId", Message: "Parent role does not exist"})
				} else {
					return err
				}
			} else {
				// Inheritance only flows downward in authority, so the
				// parent must sit strictly above the new role.
				if parent.Level >= input.Level {
					fields = append(fields, errors.FieldError{Field: "parentRoleId", Message: "Parent role must have a higher authority level"})
				}
				effective += len(Resolve(parent, roles))
			}
		}
	}
	if effective == 0 {
		fields = append(fields, errors.FieldError{Field: "permissions", Message: "Role must have at least one permission"})
	}

	if len(fields) > 0 {
		return errors.NewValidationErrors(fields)
	}
	return nil
}

// invalidatePermissions drops every cached permission set after a role
// mutation; any role may inherit from the one that changed
func (s *Service) invalidatePermissions(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx, "permissions:*"); err != nil {
		s.log.Warn().Err(err).Msg("permission cache invalidation failed")
	}
}
