package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
)

func TestSetStock(t *testing.T) {
	store := repositories.NewMemoryStore()
	seedProduct(t, store, models.Product{ID: "P1", Title: "Red Dress", Sizes: []models.SizeStock{{Size: "M", Stock: 1}}})
	seedProduct(t, store, models.Product{ID: "P2", Title: "Belt", TotalStock: ptr(1)})

	inv := NewInventoryService(store)
	var changed int
	inv.OnStockChange(func(context.Context) { changed++ })
	ctx := context.Background()

	p, err := inv.SetStock(ctx, "P1", StockEdit{Sizes: []models.SizeStock{{Size: " S ", Stock: 4}, {Size: "M", Stock: 0}}})
	require.NoError(t, err)
	assert.Equal(t, []models.SizeStock{{Size: "S", Stock: 4}, {Size: "M", Stock: 0}}, p.Sizes)
	assert.Equal(t, p.Sizes, product(t, store, "P1").Sizes)

	p, err = inv.SetStock(ctx, "P2", StockEdit{TotalStock: ptr(12)})
	require.NoError(t, err)
	assert.Equal(t, 12, *p.TotalStock)
	assert.Nil(t, p.Sizes)
	assert.Equal(t, 2, changed)
}

func TestSetStockRejects(t *testing.T) {
	store := repositories.NewMemoryStore()
	seedProduct(t, store, models.Product{ID: "P1", Title: "Red Dress", Sizes: []models.SizeStock{{Size: "M", Stock: 1}}})
	inv := NewInventoryService(store)
	ctx := context.Background()

	for name, edit := range map[string]StockEdit{
		"nothing":        {},
		"empty sizes":    {Sizes: []models.SizeStock{}},
		"both":           {Sizes: []models.SizeStock{}, TotalStock: ptr(1)},
		"negative total": {TotalStock: ptr(-1)},
		"negative size":  {Sizes: []models.SizeStock{{Size: "M", Stock: -2}}},
		"blank label":    {Sizes: []models.SizeStock{{Size: " ", Stock: 1}}},
		"duplicate":      {Sizes: []models.SizeStock{{Size: "M", Stock: 1}, {Size: "M", Stock: 2}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := inv.SetStock(ctx, "P1", edit)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, 1, product(t, store, "P1").Sizes[0].Stock)
		})
	}

	_, err := inv.SetStock(ctx, "missing", StockEdit{TotalStock: ptr(1)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetStockSwitchesForm(t *testing.T) {
	store := repositories.NewMemoryStore()
	seedProduct(t, store, models.Product{ID: "P1", Title: "Scarf", Sizes: []models.SizeStock{{Size: "M", Stock: 0}}})
	seedProduct(t, store, models.Product{ID: "P2", Title: "Belt", TotalStock: ptr(4)})
	seedOrder(t, store, "O1", models.StatusPaid, models.OrderItem{ProductID: "P1", Title: "Scarf", Quantity: 2})
	seedOrder(t, store, "O2", models.StatusPaid, models.OrderItem{ProductID: "P2", Title: "Belt", Size: "L", Quantity: 1})

	inv := NewInventoryService(store)
	orders, _ := newOrderService(store)
	ctx := context.Background()

	p, err := inv.SetStock(ctx, "P1", StockEdit{TotalStock: ptr(10)})
	require.NoError(t, err)
	assert.False(t, p.TracksSizes())
	assert.Nil(t, p.Sizes)
	assert.True(t, p.InStock())

	res, err := orders.UpdateStatus(ctx, "O1", models.StatusShipped)
	require.NoError(t, err)
	assert.True(t, res.StockUpdated)
	assert.Equal(t, 8, product(t, store, "P1").TotalStockOrZero())
	assert.Nil(t, product(t, store, "P1").Sizes)

	p, err = inv.SetStock(ctx, "P2", StockEdit{Sizes: []models.SizeStock{{Size: "L", Stock: 3}}})
	require.NoError(t, err)
	assert.True(t, p.TracksSizes())
	assert.Nil(t, p.TotalStock)

	res, err = orders.UpdateStatus(ctx, "O2", models.StatusShipped)
	require.NoError(t, err)
	assert.True(t, res.StockUpdated)
	assert.Equal(t, []models.SizeStock{{Size: "L", Stock: 2}}, product(t, store, "P2").Sizes)
}

func TestInventoryList(t *testing.T) {
	store := repositories.NewMemoryStore()
	seedProduct(t, store, models.Product{ID: "P1", Title: "Red Dress", Sizes: []models.SizeStock{{Size: "M", Stock: 0}}})
	seedProduct(t, store, models.Product{ID: "P2", Title: "Belt", TotalStock: ptr(3)})

	levels, err := NewInventoryService(store).List(context.Background())
	require.NoError(t, err)
	require.Len(t, levels, 2)

	byID := map[string]StockLevel{}
	for _, l := range levels {
		byID[l.ProductID] = l
	}
	assert.False(t, byID["P1"].InStock)
	assert.True(t, byID["P2"].InStock)
}
