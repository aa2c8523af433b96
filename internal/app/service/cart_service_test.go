package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_OneStorePerSession(t *testing.T) {
	svc := NewCartService(repository.NewMemoryCartStorage(), CartServiceOptions{})
	ctx := context.Background()

	a1, err := svc.Cart(ctx, "a")
	require.NoError(t, err)
	a2, err := svc.Cart(ctx, "a")
	require.NoError(t, err)
	b, err := svc.Cart(ctx, "b")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)

	_, err = a1.AddItem(ctx, newItem("p1", 100, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, b.ItemCount())
}

func TestCartService_MissingSession(t *testing.T) {
	svc := NewCartService(repository.NewMemoryCartStorage(), CartServiceOptions{})

	_, err := svc.Cart(context.Background(), "")

	assert.ErrorIs(t, err, ErrMissingSession)
}

func TestCartService_ForgetReloadsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewCartService(repository.NewRedisCartStorage(client, time.Hour), CartServiceOptions{StorageKey: "cart-storage"})
	ctx := context.Background()

	cart, err := svc.Cart(ctx, "sess-1")
	require.NoError(t, err)
	_, err = cart.AddItem(ctx, newItem("p1", 100, 2))
	require.NoError(t, err)
	assert.True(t, mr.Exists("cart-storage:sess-1"))

	svc.Forget("sess-1")
	reloaded, err := svc.Cart(ctx, "sess-1")
	require.NoError(t, err)

	assert.NotSame(t, cart, reloaded)
	assert.Equal(t, 2, reloaded.ItemCount())
}

func TestCartService_EvictIdle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := NewCartService(repository.NewMemoryCartStorage(), CartServiceOptions{
		IdleTimeout: time.Hour,
		Now:         func() time.Time { return now },
	})
	ctx := context.Background()
	_, _ = svc.Cart(ctx, "old")
	now = now.Add(50 * time.Minute)
	_, _ = svc.Cart(ctx, "fresh")

	evicted := svc.EvictIdle(now.Add(20 * time.Minute))

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 0, svc.EvictIdle(now.Add(20*time.Minute)))
}
