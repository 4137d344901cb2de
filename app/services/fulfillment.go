package services

import (
	"context"
	"errors"
	"time"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
)

// fulfill ships orderID inside tx. Every line is checked against the product
// as read in this transaction, lines of the same product draw from one staged
// copy, and nothing is written until every line passes. The first failing
// line's error is returned.
//
// It reports false without writing when the order is already shipped.
func fulfill(ctx context.Context, tx repositories.Tx, orderID string, now time.Time) (bool, error) {
	order, err := tx.FindOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	if order.Status == models.StatusShipped {
		return false, nil
	}

	staged := make(map[string]*models.Product, len(order.Items))
	var touched []string

	for _, item := range order.Items {
		if item.Quantity < 0 {
			return false, invalid("negative quantity for product %q", item.ProductID)
		}

		p, ok := staged[item.ProductID]
		if !ok {
			fresh, err := tx.FindProduct(ctx, item.ProductID)
			if errors.Is(err, repositories.ErrNotFound) {
				return false, &StockError{Kind: ErrProductNotFound, Title: lineTitle(item, nil)}
			}
			if err != nil {
				return false, err
			}
			p = &fresh
			staged[item.ProductID] = p
			touched = append(touched, item.ProductID)
		}

		if err := reserve(p, item); err != nil {
			return false, err
		}
	}

	for _, id := range touched {
		if err := tx.SetProductStock(ctx, id, stockOf(staged[id])); err != nil {
			return false, err
		}
	}

	shipped := models.StatusShipped
	err = tx.UpdateOrder(ctx, orderID, models.OrderPatch{
		Status:    &shipped,
		ShippedAt: &now,
		UpdatedAt: now,
	})
	return err == nil, err
}

// reserve takes item.Quantity out of the staged product p.
func reserve(p *models.Product, item models.OrderItem) error {
	title := lineTitle(item, p)

	if !p.TracksSizes() {
		have := p.TotalStockOrZero()
		if have < item.Quantity {
			return &StockError{Kind: ErrInsufficientStock, Title: title}
		}
		left := have - item.Quantity
		p.TotalStock = &left
		return nil
	}

	for i := range p.Sizes {
		if p.Sizes[i].Size != item.Size {
			continue
		}
		if p.Sizes[i].Stock < item.Quantity {
			return &StockError{Kind: ErrInsufficientStock, Title: title, Size: item.Size}
		}
		p.Sizes[i].Stock -= item.Quantity
		return nil
	}
	return &StockError{Kind: ErrSizeNotFound, Title: title, Size: item.Size}
}

func stockOf(p *models.Product) repositories.ProductStock {
	if p.TracksSizes() {
		return repositories.ProductStock{Sizes: p.Sizes}
	}
	total := p.TotalStockOrZero()
	return repositories.ProductStock{TotalStock: &total}
}

// lineTitle names a line in errors: the title captured on the order, else the
// live product title, else the product id.
func lineTitle(item models.OrderItem, p *models.Product) string {
	if item.Title != "" {
		return item.Title
	}
	if p != nil && p.Title != "" {
		return p.Title
	}
	return item.ProductID
}
