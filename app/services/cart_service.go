package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
)

type CartAdd struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1,lte=99"`
}

// CartService keeps one cart per user. A line is identified by product, size
// and color; adding an existing line raises its quantity.
type CartService struct {
	store repositories.Store
	now   func() time.Time
}

func NewCartService(store repositories.Store) *CartService {
	return &CartService{store: store, now: time.Now}
}

func (s *CartService) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	const op = "CartService.List"

	items, err := s.store.Carts().List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func (s *CartService) Add(ctx context.Context, userID string, in CartAdd) (models.CartItem, error) {
	const op = "CartService.Add"

	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return models.CartItem{}, invalid("quantity must be positive")
	}

	p, err := s.store.Products().FindByID(ctx, in.ProductID)
	if err != nil {
		return models.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	if !p.IsActive {
		return models.CartItem{}, fmt.Errorf("%s: product %s: %w", op, p.ID, ErrNotFound)
	}
	size := strings.TrimSpace(in.Size)
	if p.TracksSizes() && len(p.Sizes) > 0 {
		if _, ok := p.Size(size); !ok {
			return models.CartItem{}, invalid("size %q is not offered for %q", size, p.Title)
		}
	}
	color := strings.TrimSpace(in.Color)

	key := models.CartKey(p.ID, size, color)
	now := s.now().UTC()

	item, err := s.store.Carts().Find(ctx, userID, key)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		item = models.CartItem{ID: key, Quantity: 0, CreatedAt: now}
	case err != nil:
		return models.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	item.ProductID = p.ID
	item.Title = p.Title
	item.Price = p.EffectivePrice()
	item.Category = p.Category
	item.Size = size
	item.Color = color
	item.Quantity += qty
	item.UpdatedAt = now
	if len(p.Images) > 0 {
		item.Image = p.Images[0]
	}

	if err := s.store.Carts().Put(ctx, userID, item); err != nil {
		return models.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// SetQuantity sets the quantity of line key. Zero or less removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, key string, qty int) error {
	const op = "CartService.SetQuantity"

	if qty <= 0 {
		return s.Remove(ctx, userID, key)
	}
	item, err := s.store.Carts().Find(ctx, userID, key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	item.Quantity = qty
	item.UpdatedAt = s.now().UTC()
	if err := s.store.Carts().Put(ctx, userID, item); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CartService) Remove(ctx context.Context, userID, key string) error {
	if err := s.store.Carts().Delete(ctx, userID, key); err != nil {
		return fmt.Errorf("CartService.Remove: %w", err)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.store.Carts().Clear(ctx, userID); err != nil {
		return fmt.Errorf("CartService.Clear: %w", err)
	}
	return nil
}

// Totals sums a cart.
func Totals(items []models.CartItem) (count int, subtotal float64) {
	for _, it := range items {
		count += it.Quantity
		subtotal += it.Price * float64(it.Quantity)
	}
	return count, subtotal
}
