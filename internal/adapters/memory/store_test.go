package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

func TestSessionStore_SaveGetDelete(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess := domainauth.Session{
		ID:         "client-1",
		Identifier: "jane@example.com",
		Attributes: domainauth.Attributes{domainauth.AttrName: "Jane Doe"},
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	// Mutating the caller's map does not leak into the store.
	sess.Attributes[domainauth.AttrName] = "Changed"
	got, err = store.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Attributes[domainauth.AttrName])

	keys, err := store.Keys(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"client-1"}, keys)

	require.NoError(t, store.Delete(ctx, "client-1"))
	_, err = store.Get(ctx, "client-1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, store.Save(ctx, domainauth.Session{ID: "x", ExpiresAt: now.Add(-time.Second)}))
	require.Error(t, store.Save(ctx, domainauth.Session{ExpiresAt: now.Add(time.Second)}))

	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "x", ExpiresAt: now.Add(time.Second)}))
	now = now.Add(2 * time.Second)

	_, err := store.Get(ctx, "x")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_ExpiredReadKeepsConcurrentSave(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "x", Identifier: "old", ExpiresAt: now.Add(time.Second)}))
	now = now.Add(2 * time.Second)

	// A fresh session lands between the read and the expiry cleanup.
	saved := false
	store.now = func() time.Time {
		if !saved {
			saved = true
			require.NoError(t, store.Save(ctx, domainauth.Session{ID: "x", Identifier: "new", ExpiresAt: now.Add(time.Hour)}))
		}
		return now
	}

	got, err := store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Identifier)

	got, err = store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Identifier)
}

func TestOverrideStore_RoundTripAndTTL(t *testing.T) {
	store := NewOverrideStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	rec := domainauth.Record{Identifier: "jane@example.com", Attributes: domainauth.Attributes{domainauth.AttrName: "Jane"}}
	require.NoError(t, store.Store(ctx, "client-1", rec))

	got, err := store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, "client-1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestOverrideStore_DeleteAndValidation(t *testing.T) {
	store := NewOverrideStore(0)
	ctx := context.Background()

	require.Error(t, store.Store(ctx, "", domainauth.Record{Identifier: "x"}))
	require.ErrorIs(t, store.Store(ctx, "k", domainauth.Record{}), domainauth.ErrInvalidRecord)

	require.NoError(t, store.Store(ctx, "k", domainauth.Record{Identifier: "x"}))
	require.NoError(t, store.Delete(ctx, "k"))
	_, err := store.Load(ctx, "k")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
