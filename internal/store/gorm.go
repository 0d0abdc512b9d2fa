package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meridianfc/meridian/internal/models"
	"github.com/meridianfc/meridian/internal/security"
	"gorm.io/gorm"
)

// NewGormStores creates the PostgreSQL-backed repositories sharing one
// notification hub
func NewGormStores(db *gorm.DB) *Stores {
	hub := NewHub()
	return &Stores{
		Templates: &gormTemplateStore{db: db, hub: hub},
		Roles:     &gormRoleStore{db: db, hub: hub},
		Clients:   &gormClientStore{db: db, hub: hub},
		Users:     &gormUserStore{db: db, hub: hub},
		Events:    hub,
	}
}

func translateGormErr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s query failed: %w", resource, err)
}

// =============================================================================
// TEMPLATES
// =============================================================================

type gormTemplateStore struct {
	db  *gorm.DB
	hub *Hub
}

func (s *gormTemplateStore) Get(ctx context.Context, id uuid.UUID) (*models.ClientTemplate, error) {
	var t models.ClientTemplate
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translateGormErr(err, "template")
	}
	return &t, nil
}

func (s *gormTemplateStore) List(ctx context.Context) ([]models.ClientTemplate, error) {
	var list []models.ClientTemplate
	if err := s.db.WithContext(ctx).Order("created_at").Find(&list).Error; err != nil {
		return nil, translateGormErr(err, "template")
	}
	return list, nil
}

func (s *gormTemplateStore) Create(ctx context.Context, t *models.ClientTemplate) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return translateGormErr(err, "template")
	}
	notify(s.hub, "template", ActionCreated, t.ID)
	return nil
}

func (s *gormTemplateStore) Update(ctx context.Context, t *models.ClientTemplate) error {
	result := s.db.WithContext(ctx).Model(&models.ClientTemplate{}).
		Where("id = ?", t.ID).
		Select("*").Omit("id", "created_at").
		Updates(t)
	if result.Error != nil {
		return translateGormErr(result.Error, "template")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	notify(s.hub, "template", ActionUpdated, t.ID)
	return nil
}

func (s *gormTemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.ClientTemplate{}, "id = ?", id)
	if result.Error != nil {
		return translateGormErr(result.Error, "template")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	notify(s.hub, "template", ActionDeleted, id)
	return nil
}

// =============================================================================
// ROLES
// =============================================================================

type gormRoleStore struct {
	db  *gorm.DB
	hub *Hub
}

func (s *gormRoleStore) Get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var r models.Role
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translateGormErr(err, "role")
	}
	return &r, nil
}

func (s *gormRoleStore) List(ctx context.Context) ([]models.Role, error) {
	var list []models.Role
	if err := s.db.WithContext(ctx).Order("level").Find(&list).Error; err != nil {
		return nil, translateGormErr(err, "role")
	}
	return list, nil
}

func (s *gormRoleStore) Create(ctx context.Context, r *models.Role) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return translateGormErr(err, "role")
	}
	notify(s.hub, "role", ActionCreated, r.ID)
	return nil
}

func (s *gormRoleStore) Update(ctx context.Context, r *models.Role) error {
	result := s.db.WithContext(ctx).Model(&models.Role{}).
		Where("id = ?", r.ID).
		Select("*").Omit("id", "created_at").
		Updates(r)
	if result.Error != nil {
		return translateGormErr(result.Error, "role")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	notify(s.hub, "role", ActionUpdated, r.ID)
	return nil
}

func (s *gormRoleStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id)
	if result.Error != nil {
		return translateGormErr(result.Error, "role")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	notify(s.hub, "role", ActionDeleted, id)
	return nil
}

func (s *gormRoleStore) CountUsers(ctx context.Context, roleID uuid.UUID) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	if err != nil {
		return 0, translateGormErr(err, "role")
	}
	return int(count), nil
}

// =============================================================================
// CLIENTS
// =============================================================================

type gormClientStore struct {
	db  *gorm.DB
	hub *Hub
}

func (s *gormClientStore) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translateGormErr(err, "client")
	}
	return &c, nil
}

func (s *gormClientStore) List(ctx context.Context) ([]models.Client, error) {
	var list []models.Client
	if err := s.db.WithContext(ctx).Order("joined_at DESC").Find(&list).Error; err != nil {
		return nil, translateGormErr(err, "client")
	}
	return list, nil
}

func (s *gormClientStore) Search(ctx context.Context, query string) ([]models.Client, error) {
	pattern := security.SearchPattern(query)
	var list []models.Client
	err := s.db.WithContext(ctx).
		Where(`name ILIKE ? ESCAPE '\' OR email ILIKE ? ESCAPE '\' OR company ILIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("joined_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, translateGormErr(err, "client")
	}
	return list, nil
}

func (s *gormClientStore) Create(ctx context.Context, c *models.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return translateGormErr(err, "client")
	}
	notify(s.hub, "client", ActionCreated, c.ID)
	return nil
}

func (s *gormClientStore) Update(ctx context.Context, c *models.Client) error {
	result := s.db.WithContext(ctx).Model(&models.Client{}).
		Where("id = ?", c.ID).
		Select("*").Omit("id").
		Updates(c)
	if result.Error != nil {
		return translateGormErr(result.Error, "client")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	notify(s.hub, "client", ActionUpdated, c.ID)
	return nil
}

func (s *gormClientStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Client{}, "id = ?", id)
	if result.Error != nil {
		return translateGormErr(result.Error, "client")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	notify(s.hub, "client", ActionDeleted, id)
	return nil
}

// =============================================================================
// USERS
// =============================================================================

type gormUserStore struct {
	db  *gorm.DB
	hub *Hub
}

func (s *gormUserStore) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&u, "id = ?", id).Error; err != nil {
		return nil, translateGormErr(err, "user")
	}
	return &u, nil
}

func (s *gormUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&u, "email = ?", email).Error; err != nil {
		return nil, translateGormErr(err, "user")
	}
	return &u, nil
}

func (s *gormUserStore) List(ctx context.Context) ([]models.User, error) {
	var list []models.User
	if err := s.db.WithContext(ctx).Preload("Role").Order("created_at").Find(&list).Error; err != nil {
		return nil, translateGormErr(err, "user")
	}
	return list, nil
}

func (s *gormUserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Omit("Role").Create(u).Error; err != nil {
		return translateGormErr(err, "user")
	}
	notify(s.hub, "user", ActionCreated, u.ID)
	return nil
}

func (s *gormUserStore) Update(ctx context.Context, u *models.User) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", u.ID).
		Select("*").Omit("id", "created_at").
		Updates(u)
	if result.Error != nil {
		return translateGormErr(result.Error, "user")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	notify(s.hub, "user", ActionUpdated, u.ID)
	return nil
}

func (s *gormUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return translateGormErr(result.Error, "user")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	notify(s.hub, "user", ActionDeleted, id)
	return nil
}
