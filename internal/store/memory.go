package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridianfc/meridian/internal/models"
)

// NewMemoryStores creates in-memory repositories sharing one notification
// hub. Used by tests and the seed CLI path.
func NewMemoryStores() *Stores {
	hub := NewHub()
	users := &memoryUserStore{hub: hub, data: make(map[uuid.UUID]models.User)}
	return &Stores{
		Templates: &memoryTemplateStore{hub: hub, data: make(map[uuid.UUID]models.ClientTemplate)},
		Roles:     &memoryRoleStore{hub: hub, users: users, data: make(map[uuid.UUID]models.Role)},
		Clients:   &memoryClientStore{hub: hub, data: make(map[uuid.UUID]models.Client)},
		Users:     users,
		Events:    hub,
	}
}

// =============================================================================
// TEMPLATES
// =============================================================================

type memoryTemplateStore struct {
	mu   sync.RWMutex
	hub  *Hub
	data map[uuid.UUID]models.ClientTemplate
}

func (s *memoryTemplateStore) Get(ctx context.Context, id uuid.UUID) (*models.ClientTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *memoryTemplateStore) List(ctx context.Context) ([]models.ClientTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.ClientTemplate, 0, len(s.data))
	for _, t := range s.data {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *memoryTemplateStore) Create(ctx context.Context, t *models.ClientTemplate) error {
	s.mu.Lock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	s.data[t.ID] = *t
	s.mu.Unlock()

	notify(s.hub, "template", ActionCreated, t.ID)
	return nil
}

func (s *memoryTemplateStore) Update(ctx context.Context, t *models.ClientTemplate) error {
	s.mu.Lock()
	if _, ok := s.data[t.ID]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	t.UpdatedAt = time.Now()
	s.data[t.ID] = *t
	s.mu.Unlock()

	notify(s.hub, "template", ActionUpdated, t.ID)
	return nil
}

func (s *memoryTemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.data[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.data, id)
	s.mu.Unlock()

	notify(s.hub, "template", ActionDeleted, id)
	return nil
}

// =============================================================================
// ROLES
// =============================================================================

type memoryRoleStore struct {
	mu    sync.RWMutex
	hub   *Hub
	users *memoryUserStore
	data  map[uuid.UUID]models.Role
}

func (s *memoryRoleStore) Get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memoryRoleStore) List(ctx context.Context) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.Role, 0, len(s.data))
	for _, r := range s.data {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Level < list[j].Level })
	return list, nil
}

func (s *memoryRoleStore) Create(ctx context.Context, r *models.Role) error {
	s.mu.Lock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.data[r.ID] = *r
	s.mu.Unlock()

	notify(s.hub, "role", ActionCreated, r.ID)
	return nil
}

func (s *memoryRoleStore) Update(ctx context.Context, r *models.Role) error {
	s.mu.Lock()
	if _, ok := s.data[r.ID]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	r.UpdatedAt = time.Now()
	s.data[r.ID] = *r
	s.mu.Unlock()

	notify(s.hub, "role", ActionUpdated, r.ID)
	return nil
}

func (s *memoryRoleStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.data[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.data, id)
	s.mu.Unlock()

	notify(s.hub, "role", ActionDeleted, id)
	return nil
}

func (s *memoryRoleStore) CountUsers(ctx context.Context, roleID uuid.UUID) (int, error) {
	if s.users == nil {
		return 0, nil
	}
	return s.users.countByRole(roleID), nil
}

// =============================================================================
// CLIENTS
// =============================================================================

type memoryClientStore struct {
	mu   sync.RWMutex
	hub  *Hub
	data map[uuid.UUID]models.Client
}

func (s *memoryClientStore) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *memoryClientStore) List(ctx context.Context) ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.Client, 0, len(s.data))
	for _, c := range s.data {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].JoinedAt.After(list[j].JoinedAt) })
	return list, nil
}

func (s *memoryClientStore) Search(ctx context.Context, query string) ([]models.Client, error) {
	needle := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []models.Client
	for _, c := range s.data {
		if strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle) ||
			strings.Contains(strings.ToLower(c.Company), needle) {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].JoinedAt.After(list[j].JoinedAt) })
	return list, nil
}

func (s *memoryClientStore) Create(ctx context.Context, c *models.Client) error {
	s.mu.Lock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.data[c.ID] = *c
	s.mu.Unlock()

	notify(s.hub, "client", ActionCreated, c.ID)
	return nil
}

func (s *memoryClientStore) Update(ctx context.Context, c *models.Client) error {
	s.mu.Lock()
	if _, ok := s.data[c.ID]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.data[c.ID] = *c
	s.mu.Unlock()

	notify(s.hub, "client", ActionUpdated, c.ID)
	return nil
}

func (s *memoryClientStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.data[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.data, id)
	s.mu.Unlock()

	notify(s.hub, "client", ActionDeleted, id)
	return nil
}

// =============================================================================
// USERS
// =============================================================================

type memoryUserStore struct {
	mu   sync.RWMutex
	hub  *Hub
	data map[uuid.UUID]models.User
}

func (s *memoryUserStore) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *memoryUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.data {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryUserStore) List(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.User, 0, len(s.data))
	for _, u := range s.data {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *memoryUserStore) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.data[u.ID] = *u
	s.mu.Unlock()

	notify(s.hub, "user", ActionCreated, u.ID)
	return nil
}

func (s *memoryUserStore) Update(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	if _, ok := s.data[u.ID]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	u.UpdatedAt = time.Now()
	s.data[u.ID] = *u
	s.mu.Unlock()

	notify(s.hub, "user", ActionUpdated, u.ID)
	return nil
}

func (s *memoryUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.data[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.data, id)
	s.mu.Unlock()

	notify(s.hub, "user", ActionDeleted, id)
	return nil
}

func (s *memoryUserStore) countByRole(roleID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, u := range s.data {
		if u.RoleID != nil && *u.RoleID == roleID {
			count++
		}
	}
	return count
}
