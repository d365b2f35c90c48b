package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aman-churiwal/image-relay/internal/models"
	"github.com/aman-churiwal/image-relay/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*storage.RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return storage.NewRedisFromClient(client), mr
}

func TestRedisClientQuotaRepository(t *testing.T) {
	runStoreContract(t, func(t *testing.T) ClientQuotaStore {
		client, _ := setupMiniredis(t)
		return NewRedisClientQuotaRepository(client)
	})
}

func TestRedisClientQuotaRepository_TTL(t *testing.T) {
	ctx := context.Background()
	client, mr := setupMiniredis(t)
	store := NewRedisClientQuotaRepository(client, WithTTL(time.Hour), WithKeyPrefix("test:"))

	now := time.Now()
	_, err := store.Apply(ctx, "1.2.3.4", now, capAt(3, now, nil))
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:1.2.3.4"))
	assert.Equal(t, time.Hour, mr.TTL("test:1.2.3.4"))

	mr.FastForward(2 * time.Hour)

	rec, err := store.Get(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRedisClientQuotaRepository_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	client, mr := setupMiniredis(t)
	store := NewRedisClientQuotaRepository(client)

	require.NoError(t, mr.Set("relay:quota:broken", "not-json"))

	_, err := store.Get(ctx, "broken")
	require.Error(t, err)

	_, err = store.Apply(ctx, "broken", time.Now(), func(*models.ClientQuotaRecord) bool { return true })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt quota record")
}

func TestRedisClientQuotaRepository_Unavailable(t *testing.T) {
	ctx := context.Background()
	client, mr := setupMiniredis(t)
	store := NewRedisClientQuotaRepository(client)
	mr.Close()

	_, err := store.Apply(ctx, "1.2.3.4", time.Now(), capAt(3, time.Now(), nil))
	require.Error(t, err)
	assert.Error(t, store.Ping(ctx))
}
