package controllers

import (
	"github.com/hayatshop/storefront/app/services"
	"github.com/hayatshop/storefront/pkg/ctx"
)

type FavoriteController struct {
	favorites *services.FavoriteService
}

func NewFavoriteController(favorites *services.FavoriteService) *FavoriteController {
	return &FavoriteController{favorites: favorites}
}

func (c *FavoriteController) Index(x *ctx.Context) {
	favs, err := c.favorites.List(x.Context(), x.UserID())
	if err != nil {
		fail(x, "FavoriteController.Index", err, "Favorite not found")
		return
	}
	x.Success(map[string]any{"items": favs})
}

func (c *FavoriteController) Add(x *ctx.Context) {
	var in struct {
		ProductID string `json:"productId" validate:"required"`
	}
	if !x.BindJSON(&in) {
		return
	}
	fav, err := c.favorites.Add(x.Context(), x.UserID(), in.ProductID)
	if err != nil {
		fail(x, "FavoriteController.Add", err, "Product not found")
		return
	}
	x.Success(fav)
}

func (c *FavoriteController) Remove(x *ctx.Context) {
	if err := c.favorites.Remove(x.Context(), x.UserID(), x.Param("productId")); err != nil {
		fail(x, "FavoriteController.Remove", err, "Favorite not found")
		return
	}
	x.OK(nil)
}
