package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
)

func TestOverrideStore_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewOverrideStore(client, time.Minute)
	ctx := context.Background()

	rec := domainauth.Record{
		Identifier: "jane@example.com",
		Attributes: domainauth.Attributes{domainauth.AttrName: "Jane", domainauth.AttrEmail: "jane@example.com"},
	}
	require.NoError(t, store.Store(ctx, "client-1", rec))

	got, err := store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	ttl := client.TTL(ctx, "override:client-1").Val()
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestOverrideStore_MissingAndDelete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewOverrideStore(client, time.Minute)
	ctx := context.Background()

	_, err := store.Load(ctx, "absent")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Store(ctx, "client-2", domainauth.Record{Identifier: "x@example.com"}))
	require.NoError(t, store.Delete(ctx, "client-2"))

	_, err = store.Load(ctx, "client-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOverrideStore_CorruptRecord(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewOverrideStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "override:client-3", "{not json", time.Minute).Err())

	_, err := store.Load(ctx, "client-3")
	assert.ErrorIs(t, err, domainauth.ErrInvalidRecord)
}

func TestOverrideStore_RejectsEmptyInput(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewOverrideStore(client, time.Minute)
	ctx := context.Background()

	assert.Error(t, store.Store(ctx, "", domainauth.Record{Identifier: "x@example.com"}))
	assert.ErrorIs(t, store.Store(ctx, "client-4", domainauth.Record{}), domainauth.ErrInvalidRecord)
}
