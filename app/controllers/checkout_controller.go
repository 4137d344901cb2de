package controllers

import (
	"errors"
	"net/http"

	"github.com/hayatshop/storefront/app/services"
	"github.com/hayatshop/storefront/pkg/ctx"
	"github.com/hayatshop/storefront/pkg/payment"
	"github.com/hayatshop/storefront/pkg/response"
)

type CheckoutController struct {
	checkout *services.CheckoutService
}

func NewCheckoutController(checkout *services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkout: checkout}
}

// Verify reports every problem with the caller's cart. An empty list means
// the cart can be bought as shown.
func (c *CheckoutController) Verify(x *ctx.Context) {
	violations, err := c.checkout.Verify(x.Context(), x.UserID())
	if err != nil {
		fail(x, "CheckoutController.Verify", err, "Cart not found")
		return
	}
	x.Success(map[string]any{"ok": len(violations) == 0, "violations": violations})
}

func (c *CheckoutController) COD(x *ctx.Context) {
	var in services.CheckoutInput
	if !x.BindJSON(&in) {
		return
	}

	o, err := c.checkout.PlaceCOD(x.Context(), x.UserID(), callerEmail(x), in)
	if err != nil {
		c.reject(x, "CheckoutController.COD", err)
		return
	}
	x.Created(response.Fields{"orderId": o.ID, "order": o})
}

func (c *CheckoutController) Card(x *ctx.Context) {
	var in services.CheckoutInput
	if !x.BindJSON(&in) {
		return
	}

	res, err := c.checkout.PlaceCard(x.Context(), x.UserID(), callerEmail(x), in)
	if err != nil {
		c.reject(x, "CheckoutController.Card", err)
		return
	}
	x.Success(res)
}

func (c *CheckoutController) reject(x *ctx.Context, op string, err error) {
	var rejected *services.CheckoutRejected
	switch {
	case errors.As(err, &rejected):
		x.JSON(http.StatusConflict, map[string]any{"error": "Cart changed", "violations": rejected.Violations})
	case errors.Is(err, services.ErrEmptyCart):
		x.BadRequest("Cart is empty")
	case errors.Is(err, payment.ErrDisabled):
		x.Error(http.StatusServiceUnavailable, "Card payments are unavailable")
	default:
		fail(x, op, err, "Order not found")
	}
}

func callerEmail(x *ctx.Context) string {
	if claims, ok := x.Claims(); ok {
		return claims.Email
	}
	return ""
}
