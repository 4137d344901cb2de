package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
)

type FavoriteService struct {
	store repositories.Store
	now   func() time.Time
}

func NewFavoriteService(store repositories.Store) *FavoriteService {
	return &FavoriteService{store: store, now: time.Now}
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	const op = "FavoriteService.List"

	favs, err := s.store.Favorites().List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return favs, nil
}

// Add saves productID for userID with a snapshot of its listing. Adding it
// again refreshes the snapshot.
func (s *FavoriteService) Add(ctx context.Context, userID, productID string) (models.Favorite, error) {
	const op = "FavoriteService.Add"

	p, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		return models.Favorite{}, fmt.Errorf("%s: %w", op, err)
	}
	fav := models.Favorite{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		Category:  p.Category,
		CreatedAt: s.now().UTC(),
	}
	if len(p.Images) > 0 {
		fav.Image = p.Images[0]
	}
	if err := s.store.Favorites().Put(ctx, userID, fav); err != nil {
		return models.Favorite{}, fmt.Errorf("%s: %w", op, err)
	}
	return fav, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, productID string) error {
	if err := s.store.Favorites().Delete(ctx, userID, productID); err != nil {
		return fmt.Errorf("FavoriteService.Remove: %w", err)
	}
	return nil
}
