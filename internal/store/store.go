// Package store provides the record store: typed repositories for
// templates, roles, clients and users, with a change-notification hub.
// Missing records are a first-class outcome (ErrNotFound), never a crash.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/meridianfc/meridian/internal/models"
)

// ErrNotFound is returned when a record id does not exist
var ErrNotFound = errors.New("record not found")

// TemplateStore persists client templates
type TemplateStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.ClientTemplate, error)
	List(ctx context.Context) ([]models.ClientTemplate, error)
	Create(ctx context.Context, t *models.ClientTemplate) error
	Update(ctx context.Context, t *models.ClientTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RoleStore persists roles. CountUsers reports the number of users
// currently assigned to a role; the roles' UsersCount field is derived
// from it, never mutated directly.
type RoleStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Create(ctx context.Context, r *models.Role) error
	Update(ctx context.Context, r *models.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUsers(ctx context.Context, roleID uuid.UUID) (int, error)
}

// ClientStore persists client records. Search matches the query against
// name, email and company, case-insensitively.
type ClientStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
	Search(ctx context.Context, query string) ([]models.Client, error)
	Create(ctx context.Context, c *models.Client) error
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserStore persists dashboard users
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Stores bundles the repositories and the shared notification hub
type Stores struct {
	Templates TemplateStore
	Roles     RoleStore
	Clients   ClientStore
	Users     UserStore
	Events    *Hub
}
