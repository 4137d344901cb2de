package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/pkg/logger"
)

// StockLevel is one row of the back-office inventory view.
type StockLevel struct {
	ProductID  string             `json:"productId"`
	Title      string             `json:"title"`
	Category   string             `json:"category"`
	IsActive   bool               `json:"isActive"`
	Sizes      []models.SizeStock `json:"sizes"`
	TotalStock *int               `json:"totalStock,omitempty"`
	InStock    bool               `json:"inStock"`
}

// StockEdit replaces a product's stock. Exactly one of Sizes and TotalStock
// must be set, and the product switches to that form: a total drops any size
// list and a size list drops any total. Sizes, when set, must not be empty.
type StockEdit struct {
	Sizes      []models.SizeStock `json:"sizes"`
	TotalStock *int               `json:"totalStock"`
}

func (e StockEdit) validate() error {
	if (e.Sizes == nil) == (e.TotalStock == nil) {
		return invalid("set either sizes or totalStock")
	}
	if e.Sizes != nil && len(e.Sizes) == 0 {
		return invalid("sizes must list at least one size, use totalStock for unsized stock")
	}
	if e.TotalStock != nil && *e.TotalStock < 0 {
		return invalid("totalStock must not be negative")
	}
	seen := make(map[string]bool, len(e.Sizes))
	for _, s := range e.Sizes {
		label := strings.TrimSpace(s.Size)
		if label == "" {
			return invalid("size label is required")
		}
		if seen[label] {
			return invalid("duplicate size %s", label)
		}
		if s.Stock < 0 {
			return invalid("stock for size %s must not be negative", label)
		}
		seen[label] = true
	}
	return nil
}

// stock is e with size labels trimmed, in the form the store writes.
func (e StockEdit) stock() repositories.ProductStock {
	stock := repositories.ProductStock{TotalStock: e.TotalStock}
	if e.Sizes != nil {
		stock.Sizes = make([]models.SizeStock, 0, len(e.Sizes))
		for _, sz := range e.Sizes {
			stock.Sizes = append(stock.Sizes, models.SizeStock{Size: strings.TrimSpace(sz.Size), Stock: sz.Stock})
		}
	}
	return stock
}

// InventoryService applies manual stock edits through the same transaction
// primitive as shipments, so an edit and a concurrent shipment serialise.
type InventoryService struct {
	store    repositories.Store
	onChange func(context.Context)
}

func NewInventoryService(store repositories.Store) *InventoryService {
	return &InventoryService{store: store}
}

// OnStockChange registers fn to run after an edit commits.
func (s *InventoryService) OnStockChange(fn func(context.Context)) { s.onChange = fn }

func (s *InventoryService) List(ctx context.Context) ([]StockLevel, error) {
	const op = "InventoryService.List"

	ps, err := s.store.Products().List(ctx, repositories.ProductQuery{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]StockLevel, 0, len(ps))
	for _, p := range ps {
		out = append(out, StockLevel{
			ProductID:  p.ID,
			Title:      p.Title,
			Category:   p.Category,
			IsActive:   p.IsActive,
			Sizes:      p.Sizes,
			TotalStock: p.TotalStock,
			InStock:    p.InStock(),
		})
	}
	return out, nil
}

// SetStock replaces the stock of product id and returns the product as
// committed.
func (s *InventoryService) SetStock(ctx context.Context, id string, edit StockEdit) (models.Product, error) {
	const op = "InventoryService.SetStock"

	if err := edit.validate(); err != nil {
		return models.Product{}, err
	}

	stock := edit.stock()
	var updated models.Product
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx repositories.Tx) error {
		if _, err := tx.FindProduct(ctx, id); err != nil {
			return err
		}
		if err := tx.SetProductStock(ctx, id, stock); err != nil {
			return err
		}
		p, err := tx.FindProduct(ctx, id)
		updated = p
		return err
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	logger.WithCtx(ctx).Info("stock updated", "op", op, "product_id", id,
		"sizes", len(updated.Sizes), "total_stock", updated.TotalStockOrZero())
	if s.onChange != nil {
		s.onChange(ctx)
	}
	return updated, nil
}
