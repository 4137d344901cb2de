package seeders

import (
	"context"
	"errors"
	"time"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
)

func init() {
	Register("catalog", seedCatalog)
}

func sized(stock ...int) []models.SizeStock {
	labels := []string{"S", "M", "L", "XL"}
	out := make([]models.SizeStock, 0, len(stock))
	for i, n := range stock {
		out = append(out, models.SizeStock{Size: labels[i], Stock: n})
	}
	return out
}

func price(v float64) *float64 { return &v }
func count(v int) *int         { return &v }

var demoProducts = []models.Product{
	{ID: "demo-linen-shirt", Title: "Linen Shirt", Price: 189, Category: models.CategoryShirts, Colors: []string{"white", "sand"}, Sizes: sized(4, 6, 6, 2), Rating: 4.6},
	{ID: "demo-oxford-shirt", Title: "Oxford Shirt", Price: 159, SalePrice: price(119), Category: models.CategoryShirts, Colors: []string{"blue"}, Sizes: sized(0, 3, 5, 1), Rating: 4.2},
	{ID: "demo-basic-tee", Title: "Cotton Tee", Price: 59, Category: models.CategoryBasics, Colors: []string{"black", "white", "grey"}, Sizes: sized(20, 30, 25, 10), Rating: 4.4},
	{ID: "demo-chinos", Title: "Slim Chinos", Price: 229, Category: models.CategoryPants, Colors: []string{"khaki", "navy"}, Sizes: sized(3, 5, 5, 0), Rating: 4.1},
	{ID: "demo-suit", Title: "Wool Suit", Price: 1290, SalePrice: price(990), Category: models.CategorySuits, Colors: []string{"charcoal"}, Sizes: sized(1, 2, 2, 1), Rating: 4.8},
	{ID: "demo-scarf", Title: "Silk Scarf", Price: 89, Category: models.CategoryAccessories, Colors: []string{"red", "emerald"}, TotalStock: count(15), Rating: 4.5},
	{ID: "demo-belt", Title: "Leather Belt", Price: 129, Category: models.CategoryAccessories, Colors: []string{"brown"}, TotalStock: count(0), Rating: 3.9},
	{ID: "demo-red-dress", Title: "Red Dress", Price: 349, SalePrice: price(279), Category: models.CategoryDresses, Colors: []string{"red"}, Sizes: sized(2, 3, 1, 0), Rating: 4.7},
	{ID: "demo-pleated-skirt", Title: "Pleated Skirt", Price: 199, Category: models.CategorySkirts, Colors: []string{"black", "beige"}, Sizes: sized(4, 4, 2, 1), Rating: 4.3},
	{ID: "demo-abaya", Title: "Classic Abaya", Price: 420, Category: models.CategoryAbayas, Colors: []string{"black"}, Sizes: sized(3, 5, 5, 3), Rating: 4.9},
	{ID: "demo-denim-jacket", Title: "Denim Jacket", Price: 310, Category: models.CategoryJackets, Colors: []string{"indigo"}, Sizes: sized(2, 0, 4, 2), Rating: 4.0},
}

// seedCatalog inserts the demo products that are not already present.
func seedCatalog(ctx context.Context, store repositories.Store) error {
	now := time.Now().UTC()
	for i, p := range demoProducts {
		p.Currency = models.CurrencyILS
		p.IsActive = true
		p.Images = []string{"/storage/demo/" + p.ID + ".jpg"}
		// Spread creation times so "newest" has a stable order.
		p.CreatedAt = now.Add(-time.Duration(len(demoProducts)-i) * time.Minute)
		p.UpdatedAt = p.CreatedAt

		err := store.Products().Create(ctx, p)
		if err != nil && !errors.Is(err, repositories.ErrDuplicate) {
			return err
		}
	}
	return nil
}
