package controllers

import (
	"github.com/hayatshop/storefront/app/services"
	"github.com/hayatshop/storefront/pkg/ctx"
)

type CartController struct {
	cart *services.CartService
}

func NewCartController(cart *services.CartService) *CartController {
	return &CartController{cart: cart}
}

func (c *CartController) Show(x *ctx.Context) {
	items, err := c.cart.List(x.Context(), x.UserID())
	if err != nil {
		fail(x, "CartController.Show", err, "Cart not found")
		return
	}
	count, subtotal := services.Totals(items)
	x.Success(map[string]any{"items": items, "count": count, "subtotal": subtotal})
}

func (c *CartController) Add(x *ctx.Context) {
	var in services.CartAdd
	if !x.BindJSON(&in) {
		return
	}
	item, err := c.cart.Add(x.Context(), x.UserID(), in)
	if err != nil {
		fail(x, "CartController.Add", err, "Product not found")
		return
	}
	x.Success(item)
}

type cartQuantity struct {
	Key      string `json:"key" validate:"required"`
	Quantity int    `json:"quantity" validate:"lte=99"`
}

// Update sets a line's quantity; zero or less removes it.
func (c *CartController) Update(x *ctx.Context) {
	var in cartQuantity
	if !x.BindJSON(&in) {
		return
	}
	if err := c.cart.SetQuantity(x.Context(), x.UserID(), in.Key, in.Quantity); err != nil {
		fail(x, "CartController.Update", err, "Cart item not found")
		return
	}
	x.OK(nil)
}

// Remove drops the line named by ?key=, or empties the cart without one.
func (c *CartController) Remove(x *ctx.Context) {
	var err error
	if key := x.Query("key"); key != "" {
		err = c.cart.Remove(x.Context(), x.UserID(), key)
	} else {
		err = c.cart.Clear(x.Context(), x.UserID())
	}
	if err != nil {
		fail(x, "CartController.Remove", err, "Cart item not found")
		return
	}
	x.OK(nil)
}
