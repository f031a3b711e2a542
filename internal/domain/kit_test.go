package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKitSet_MinimumQuantity(t *testing.T) {
	assert.Equal(t, 0, KitSet{}.MinimumQuantity(), "no tiers means no floor")

	set := KitSet{Tiers: []KitTier{
		{Quantity: 2, Price: decimal.RequireFromString("100.00"), Enabled: false},
		{Quantity: 3, Price: decimal.RequireFromString("135.00"), Enabled: true},
		{Quantity: 5, Price: decimal.RequireFromString("200.00"), Enabled: true},
	}}
	assert.Equal(t, 3, set.MinimumQuantity(), "disabled tiers do not set the floor")
}

func TestKitSet_UpsertReplacesAndSorts(t *testing.T) {
	var set KitSet
	set.Upsert(KitTier{Quantity: 3, Price: decimal.RequireFromString("135.00"), Enabled: true})
	set.Upsert(KitTier{Quantity: 2, Price: decimal.RequireFromString("100.00"), Enabled: true})
	set.Upsert(KitTier{Quantity: 2, Price: decimal.RequireFromString("90.00"), Enabled: true})

	assert.Len(t, set.Tiers, 2)
	assert.Equal(t, 2, set.Tiers[0].Quantity)
	assert.True(t, set.Tiers[0].Price.Equal(decimal.RequireFromString("90.00")))
	assert.Equal(t, 3, set.Tiers[1].Quantity)
}
