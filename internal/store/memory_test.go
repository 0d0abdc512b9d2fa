package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfc/meridian/internal/models"
)

func TestMemoryTemplateStoreCRUD(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()

	tpl := &models.ClientTemplate{Name: "Intake", Version: 1}
	require.NoError(t, stores.Templates.Create(ctx, tpl))
	assert.NotEqual(t, uuid.Nil, tpl.ID, "ids are assigned on create")

	got, err := stores.Templates.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intake", got.Name)

	got.Name = "Renamed"
	require.NoError(t, stores.Templates.Update(ctx, got))
	got, err = stores.Templates.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, stores.Templates.Delete(ctx, tpl.ID))
	_, err = stores.Templates.Get(ctx, tpl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, stores.Templates.Delete(ctx, tpl.ID), ErrNotFound)
	assert.ErrorIs(t, stores.Templates.Update(ctx, tpl), ErrNotFound)
}

func TestMemoryRoleStoreCountUsers(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()

	role := &models.Role{Name: "Coach", Level: 5}
	require.NoError(t, stores.Roles.Create(ctx, role))

	count, err := stores.Roles.CountUsers(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	other := uuid.New()
	require.NoError(t, stores.Users.Create(ctx, &models.User{Email: "a@x.test", RoleID: &role.ID}))
	require.NoError(t, stores.Users.Create(ctx, &models.User{Email: "b@x.test", RoleID: &role.ID}))
	require.NoError(t, stores.Users.Create(ctx, &models.User{Email: "c@x.test", RoleID: &other}))
	require.NoError(t, stores.Users.Create(ctx, &models.User{Email: "d@x.test"}))

	count, err = stores.Roles.CountUsers(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryRoleStoreListOrderedByLevel(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()

	for _, level := range []int{9, 0, 5, 1} {
		require.NoError(t, stores.Roles.Create(ctx, &models.Role{Name: "r", Level: level}))
	}

	list, err := stores.Roles.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Level, list[i].Level)
	}
}

func TestMemoryClientStoreSearch(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()

	seed := []models.Client{
		{Name: "Dana Reyes", Email: "dana@example.com", JoinedAt: time.Now().Add(-time.Hour)},
		{Name: "Marcus Webb", Email: "marcus@reyesgroup.com", JoinedAt: time.Now().Add(-2 * time.Hour)},
		{Name: "Acme", Company: "Reyes Consulting", JoinedAt: time.Now()},
		{Name: "Unrelated", Email: "u@x.test", JoinedAt: time.Now().Add(-3 * time.Hour)},
	}
	for i := range seed {
		require.NoError(t, stores.Clients.Create(ctx, &seed[i]))
	}

	found, err := stores.Clients.Search(ctx, "REYES")
	require.NoError(t, err)
	require.Len(t, found, 3, "matches name, email and company case-insensitively")
	assert.Equal(t, "Acme", found[0].Name, "newest first")

	none, err := stores.Clients.Search(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryUserStoreGetByEmail(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()

	require.NoError(t, stores.Users.Create(ctx, &models.User{Email: "Dana@Example.com"}))

	user, err := stores.Users.GetByEmail(ctx, "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Dana@Example.com", user.Email)

	_, err = stores.Users.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHubPublishAndSubscribe(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(4)
	defer cancel()

	id := uuid.New()
	hub.Publish(Event{Entity: "client", Action: ActionCreated, ID: id})

	select {
	case event := <-ch:
		assert.Equal(t, "client", event.Entity)
		assert.Equal(t, ActionCreated, event.Action)
		assert.Equal(t, id, event.ID)
		assert.False(t, event.At.IsZero(), "publish stamps the event time")
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	// Second publish overflows the buffer and is dropped, not deadlocked
	hub.Publish(Event{Entity: "client", Action: ActionCreated, ID: uuid.New()})
	hub.Publish(Event{Entity: "client", Action: ActionUpdated, ID: uuid.New()})

	event := <-ch
	assert.Equal(t, ActionCreated, event.Action)
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "no second event should be buffered")
	default:
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)

	cancel()
	cancel() // idempotent

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after the last subscriber left is a no-op
	hub.Publish(Event{Entity: "role", Action: ActionDeleted, ID: uuid.New()})
}

func TestStoresEmitMutationEvents(t *testing.T) {
	stores := NewMemoryStores()
	ctx := context.Background()
	ch, cancel := stores.Events.Subscribe(8)
	defer cancel()

	client := &models.Client{Name: "Dana Reyes"}
	require.NoError(t, stores.Clients.Create(ctx, client))
	require.NoError(t, stores.Clients.Update(ctx, client))
	require.NoError(t, stores.Clients.Delete(ctx, client.ID))

	want := []Action{ActionCreated, ActionUpdated, ActionDeleted}
	for _, action := range want {
		select {
		case event := <-ch:
			assert.Equal(t, "client", event.Entity)
			assert.Equal(t, action, event.Action)
			assert.Equal(t, client.ID, event.ID)
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", action)
		}
	}
}
