package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*sessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client).(*sessionStore), mr
}

func TestSessionStore_CreateAndExists(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	sess, err := store.Create(ctx, "u1", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, sess.CreatedAt.Add(time.Hour), sess.ExpiresAt)

	ok, err := store.Exists(ctx, "u1", sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "u2", sess.ID)
	require.NoError(t, err)
	assert.False(t, ok, "session is bound to its user")

	mr.FastForward(2 * time.Hour)
	ok, err = store.Exists(ctx, "u1", sess.ID)
	require.NoError(t, err)
	assert.False(t, ok, "session expires with its ttl")
}

func TestSessionStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	a, err := store.Create(ctx, "u1", time.Hour)
	require.NoError(t, err)
	b, err := store.Create(ctx, "u1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "u1", a.ID))

	ok, err := store.Exists(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.Exists(ctx, "u1", b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	active, err := store.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)
}

func TestSessionStore_DeleteAllForUser(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, "u1", time.Hour)
		require.NoError(t, err)
	}
	other, err := store.Create(ctx, "u2", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.DeleteAllForUser(ctx, "u1"))

	active, err := store.ListActive(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, active)

	ok, err := store.Exists(ctx, "u2", other.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.DeleteAllForUser(ctx, "nobody"))
}

func TestSessionStore_ListActivePrunesExpired(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	short, err := store.Create(ctx, "u1", time.Minute)
	require.NoError(t, err)
	store.now = func() time.Time { return base.Add(time.Second) }
	long, err := store.Create(ctx, "u1", time.Hour)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	active, err := store.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, long.ID, active[0].ID)

	members, err := mr.SMembers(userSessionsKey("u1"))
	require.NoError(t, err)
	assert.NotContains(t, members, short.ID)
}
