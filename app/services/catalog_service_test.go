package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/pkg/cache"
)

func seedCatalog(t *testing.T) *repositories.MemoryStore {
	t.Helper()
	store := repositories.NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []models.Product{
		{ID: "d1", Title: "Red Dress", Price: 200, SalePrice: ptr(150.0), Rating: 4.5, Colors: []string{"Red"}, Sizes: []models.SizeStock{{Size: "S", Stock: 0}, {Size: "M", Stock: 2}}},
		{ID: "d2", Title: "Blue Dress", Price: 120, Rating: 3, Colors: []string{"blue"}, Sizes: []models.SizeStock{{Size: "L", Stock: 0}}},
		{ID: "d3", Title: "Green Dress", Price: 300, Rating: 5, Colors: []string{"Green", "red"}, TotalStock: ptr(4)},
		{ID: "d4", Title: "Black Dress", Price: 90, Colors: []string{"black"}, Sizes: []models.SizeStock{{Size: "M", Stock: 1}}},
	} {
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		seedProduct(t, store, p)
	}
	hidden := models.Product{ID: "d5", Title: "Hidden Dress", Price: 10, Category: models.CategoryDresses, CreatedAt: base}
	require.NoError(t, store.Products().Create(context.Background(), hidden))
	return store
}

func ids(ps []models.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestListCategoryFiltersAndSorts(t *testing.T) {
	svc := NewCatalogService(seedCatalog(t), nil, time.Minute, 0)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter CatalogFilter
		want   []string
	}{
		{"newest first, inactive hidden", CatalogFilter{}, []string{"d4", "d3", "d2", "d1"}},
		{"price asc uses sale price", CatalogFilter{Sort: SortPriceAsc}, []string{"d4", "d2", "d1", "d3"}},
		{"price desc", CatalogFilter{Sort: SortPriceDesc}, []string{"d3", "d1", "d2", "d4"}},
		{"rating desc", CatalogFilter{Sort: SortRatingDesc}, []string{"d3", "d1", "d2", "d4"}},
		{"price range", CatalogFilter{Min: ptr(100.0), Max: ptr(200.0)}, []string{"d2", "d1"}},
		{"sale only", CatalogFilter{SaleOnly: true}, []string{"d1"}},
		{"in stock only", CatalogFilter{InStockOnly: true}, []string{"d4", "d3", "d1"}},
		{"sizes", CatalogFilter{Sizes: []string{"M"}}, []string{"d4", "d1"}},
		{"colors lowercased", CatalogFilter{Colors: []string{"red"}}, []string{"d3", "d1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListCategory(ctx, models.CategoryDresses, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page.Items))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestListCategoryFacetsAndPaging(t *testing.T) {
	svc := NewCatalogService(seedCatalog(t), nil, time.Minute, 0)

	page, err := svc.ListCategory(context.Background(), "Dresses", CatalogFilter{PageSize: 3, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, "Dresses", page.Category.Title)
	assert.Equal(t, []string{"L", "M", "S"}, page.Sizes)
	assert.Equal(t, []string{"black", "blue", "green", "red"}, page.Colors)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, []string{"d1"}, ids(page.Items))

	page, err = svc.ListCategory(context.Background(), "dresses", CatalogFilter{Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Items, 4)
}

func TestListCategoryRejects(t *testing.T) {
	svc := NewCatalogService(seedCatalog(t), nil, time.Minute, 0)

	_, err := svc.ListCategory(context.Background(), "shoes", CatalogFilter{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListCategory(context.Background(), "dresses", CatalogFilter{Sort: "cheapest"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListCategoryUsesCacheUntilInvalidated(t *testing.T) {
	store := seedCatalog(t)
	svc := NewCatalogService(store, cache.NewMemory(), time.Minute, 0)
	ctx := context.Background()

	page, err := svc.ListCategory(ctx, "dresses", CatalogFilter{})
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)

	seedProduct(t, store, models.Product{ID: "d6", Title: "New Dress", Price: 50, TotalStock: ptr(1), CreatedAt: time.Now()})

	page, err = svc.ListCategory(ctx, "dresses", CatalogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total, "served from cache")

	svc.Invalidate(ctx)
	page, err = svc.ListCategory(ctx, "dresses", CatalogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, "d6", page.Items[0].ID)
}

func TestCachedListingKeepsStockMode(t *testing.T) {
	svc := NewCatalogService(seedCatalog(t), cache.NewMemory(), time.Minute, 0)
	ctx := context.Background()

	_, err := svc.ListCategory(ctx, "dresses", CatalogFilter{})
	require.NoError(t, err)
	page, err := svc.ListCategory(ctx, "dresses", CatalogFilter{InStockOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"d4", "d3", "d1"}, ids(page.Items))
}

func TestProductAndSearch(t *testing.T) {
	svc := NewCatalogService(seedCatalog(t), nil, time.Minute, 0)
	ctx := context.Background()

	p, err := svc.Product(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Red Dress", p.Title)

	_, err = svc.Product(ctx, "d5")
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := svc.Search(ctx, "  dress ", 0)
	require.NoError(t, err)
	assert.Len(t, found, 4)

	found, err = svc.Search(ctx, "RED", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids(found))

	found, err = svc.Search(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestVerifyReportsEveryViolation(t *testing.T) {
	svc := NewCatalogService(seedCatalog(t), nil, time.Minute, 0)

	got, err := svc.Verify(context.Background(), []CheckoutLine{
		{ProductID: "d1", Title: "Red Dress", Size: "M", Quantity: 1, Price: 150},
		{ProductID: "gone", Title: "Old Dress", Quantity: 1, Price: 10},
		{ProductID: "d2", Title: "Blue Dress", Size: "L", Quantity: 1, Price: 100},
		{ProductID: "d3", Title: "Green Dress", Quantity: 5, Price: 300},
		{ProductID: "d1", Title: "Red Dress", Size: "M", Color: "red", Quantity: 2, Price: 150},
		{ProductID: "d5", Title: "Hidden Dress", Quantity: 1, Price: 10},
	})
	require.NoError(t, err)

	type v struct {
		index int
		code  string
	}
	var codes []v
	for _, x := range got {
		codes = append(codes, v{x.Index, x.Code})
	}
	assert.Equal(t, []v{
		{1, ViolationProductMissing},
		{2, ViolationPriceChanged},
		{2, ViolationOutOfStock},
		{3, ViolationInsufficientStock},
		{4, ViolationInsufficientStock},
		{5, ViolationProductMissing},
	}, codes)

	assert.Equal(t, 120.0, got[1].Price)
	assert.Equal(t, 4, got[3].Available)
	assert.Equal(t, 2, got[4].Available)
}

func TestVerifyClean(t *testing.T) {
	svc := NewCatalogService(seedCatalog(t), nil, time.Minute, 0)

	got, err := svc.Verify(context.Background(), []CheckoutLine{
		{ProductID: "d4", Size: "M", Quantity: 1, Price: 90},
		{ProductID: "d3", Quantity: 4, Price: 300},
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}
