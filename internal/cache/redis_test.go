package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func testTiers() []domain.KitTier {
	return []domain.KitTier{
		{Quantity: 2, Price: decimal.NewFromInt(100), Enabled: true},
		{Quantity: 3, Price: decimal.NewFromInt(135), Enabled: true},
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	var productID int64 = 42

	data, _ := json.Marshal(testTiers())
	mr.Set(cacheKey(productID), string(data))

	tiers, err := cache.Get(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, tiers, 2)
	assert.Equal(t, 2, tiers[0].Quantity)
	assert.True(t, tiers[0].Price.Equal(decimal.NewFromInt(100)))
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := cache.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSet_ThenGet(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	var productID int64 = 42

	err := cache.Set(ctx, productID, testTiers())
	require.NoError(t, err)

	tiers, err := cache.Get(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, tiers, 2)
	assert.Equal(t, 3, tiers[1].Quantity)
	assert.True(t, tiers[1].Price.Equal(decimal.NewFromInt(135)))
}

func TestDelete(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	var productID int64 = 42

	require.NoError(t, cache.Set(ctx, productID, testTiers()))
	require.NoError(t, cache.Delete(ctx, productID))

	_, err := cache.Get(ctx, productID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
