package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

func setupTestDB(t *testing.T) (KitSetRepository, CartRepository, func()) {
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	// Get connection string
	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Connect to MongoDB
	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	kitSets := NewMongoKitSetRepository(db)
	carts := NewMongoCartRepository(db)

	// Create indexes
	err = kitSets.(*mongoKitSetRepository).CreateIndexes(ctx)
	require.NoError(t, err)
	err = carts.(*mongoCartRepository).CreateIndexes(ctx)
	require.NoError(t, err)

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return kitSets, carts, cleanup
}

func TestKitSetGet_NotFound(t *testing.T) {
	kitSets, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	_, err := kitSets.Get(ctx, 404)

	assert.ErrorIs(t, err, ErrKitSetNotFound)
}

func TestKitSetPut_RoundTripsDecimalPrices(t *testing.T) {
	kitSets, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	set := domain.KitSet{
		Tiers: []domain.KitTier{
			{Quantity: 2, Price: decimal.RequireFromString("100.00"), BadgeText: "Leve 2", BadgeColor: "#000000", Enabled: true},
			{Quantity: 3, Price: decimal.RequireFromString("135.50"), BadgeColor: "#ff0000", Enabled: false},
		},
	}

	err := kitSets.Put(ctx, 10, set)
	require.NoError(t, err)

	got, err := kitSets.Get(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got.Tiers, 2)
	assert.True(t, got.Tiers[0].Price.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, got.Tiers[1].Price.Equal(decimal.RequireFromString("135.50")))
	assert.Equal(t, "Leve 2", got.Tiers[0].BadgeText)
	assert.False(t, got.Tiers[1].Enabled)
}

func TestKitSetPut_ReplacesWholeSet(t *testing.T) {
	kitSets, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	err := kitSets.Put(ctx, 10, domain.KitSet{Tiers: []domain.KitTier{
		{Quantity: 2, Price: decimal.RequireFromString("100.00"), Enabled: true},
	}})
	require.NoError(t, err)

	// second write replaces, never merges
	err = kitSets.Put(ctx, 10, domain.KitSet{Tiers: []domain.KitTier{
		{Quantity: 5, Price: decimal.RequireFromString("200.00"), Enabled: true},
	}})
	require.NoError(t, err)

	got, err := kitSets.Get(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got.Tiers, 1)
	assert.Equal(t, 5, got.Tiers[0].Quantity)
}

func TestKitSetRemove(t *testing.T) {
	kitSets, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	err := kitSets.Put(ctx, 10, domain.KitSet{Tiers: []domain.KitTier{
		{Quantity: 2, Price: decimal.RequireFromString("100.00"), Enabled: true},
	}})
	require.NoError(t, err)

	err = kitSets.Remove(ctx, 10)
	require.NoError(t, err)

	_, err = kitSets.Get(ctx, 10)
	assert.ErrorIs(t, err, ErrKitSetNotFound)
}

func TestGetCart_NotFound(t *testing.T) {
	_, carts, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	cart, err := carts.GetCart(ctx, "nonexistent")

	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestUpsertCart_NewCart(t *testing.T) {
	_, carts, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	cart := &domain.Cart{
		SessionID: "session-1",
		Lines: []domain.CartLine{
			{
				Key:        "line-a",
				ProductID:  10,
				Quantity:   2,
				UnitPrice:  decimal.RequireFromString("50"),
				GroupToken: "token-1",
				Kit:        &domain.TierSnapshot{Quantity: 2, Price: decimal.RequireFromString("100"), BadgeText: "Leve 2"},
				AddedAt:    time.Now(),
			},
		},
	}

	err := carts.UpsertCart(ctx, cart)
	require.NoError(t, err)
	assert.False(t, cart.CreatedAt.IsZero(), "created_at stamped on first write")

	got, err := carts.GetCart(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "line-a", got.Lines[0].Key)
	assert.True(t, got.Lines[0].UnitPrice.Equal(decimal.RequireFromString("50")))
	require.NotNil(t, got.Lines[0].Kit)
	assert.True(t, got.Lines[0].Kit.Price.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, "Leve 2", got.Lines[0].Kit.BadgeText)
}

func TestUpsertCart_ExistingCart_ReplacesLines(t *testing.T) {
	_, carts, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	err := carts.UpsertCart(ctx, &domain.Cart{
		SessionID: "session-1",
		Lines: []domain.CartLine{
			{Key: "line-a", ProductID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("50")},
		},
	})
	require.NoError(t, err)

	err = carts.UpsertCart(ctx, &domain.Cart{
		SessionID: "session-1",
		Lines: []domain.CartLine{
			{Key: "line-b", ProductID: 20, Quantity: 1, UnitPrice: decimal.RequireFromString("30")},
		},
	})
	require.NoError(t, err)

	got, err := carts.GetCart(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "line-b", got.Lines[0].Key)
}

func TestDeleteCart(t *testing.T) {
	_, carts, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	err := carts.UpsertCart(ctx, &domain.Cart{
		SessionID: "session-1",
		Lines: []domain.CartLine{
			{Key: "line-a", ProductID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("50")},
		},
	})
	require.NoError(t, err)

	err = carts.DeleteCart(ctx, "session-1")
	require.NoError(t, err)

	_, err = carts.GetCart(ctx, "session-1")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestDeleteCart_NotFound(t *testing.T) {
	_, carts, cleanup := setupTestDB(t)
	defer cleanup()

	err := carts.DeleteCart(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestContextCancellation(t *testing.T) {
	_, carts, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := carts.GetCart(ctx, "session-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
