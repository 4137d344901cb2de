package controllers

import (
	"errors"
	"net/http"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/services"
	"github.com/hayatshop/storefront/pkg/ctx"
	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/response"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

type statusBody struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/admin/orders/{id}.
//
//	200 {"ok":true,"stockUpdated":bool}
//	400 {"error":"Missing status"}
//	404 {"error":"Order not found"}
//	500 {"error":<stock problem>} or {"error":"Server error"}
func (c *OrderController) UpdateStatus(x *ctx.Context) {
	const op = "OrderController.UpdateStatus"

	var body statusBody
	if _, err := x.ShouldBindJSON(&body); err != nil {
		x.BadRequest("Missing status")
		return
	}

	res, err := c.orders.UpdateStatus(x.Context(), x.Param("id"), models.OrderStatus(body.Status))
	var stockErr *services.StockError
	switch {
	case err == nil:
		x.OK(response.Fields{"stockUpdated": res.StockUpdated})
	case errors.Is(err, services.ErrInvalidArgument):
		x.BadRequest("Missing status")
	case errors.As(err, &stockErr):
		x.Error(http.StatusInternalServerError, stockErr.Error())
	case errors.Is(err, services.ErrNotFound):
		x.NotFound("Order not found")
	default:
		logger.WithCtx(x.Context()).Error("status update failed", "op", op, "order_id", x.Param("id"), "error", err)
		x.ServerError()
	}
}

// Index lists orders for the back office, optionally by ?status=.
func (c *OrderController) Index(x *ctx.Context) {
	orders, err := c.orders.List(x.Context(), models.OrderStatus(x.Query("status")), x.QueryInt("limit", 0))
	if err != nil {
		fail(x, "OrderController.Index", err, "Order not found")
		return
	}
	x.Success(map[string]any{"orders": orders})
}

func (c *OrderController) Show(x *ctx.Context) {
	o, err := c.orders.Get(x.Context(), x.Param("id"))
	if err != nil {
		fail(x, "OrderController.Show", err, "Order not found")
		return
	}
	x.Success(o)
}

func (c *OrderController) Destroy(x *ctx.Context) {
	if err := c.orders.Delete(x.Context(), x.Param("id")); err != nil {
		fail(x, "OrderController.Destroy", err, "Order not found")
		return
	}
	x.OK(nil)
}

// Mine lists the caller's own orders.
func (c *OrderController) Mine(x *ctx.Context) {
	orders, err := c.orders.ListMine(x.Context(), x.UserID())
	if err != nil {
		fail(x, "OrderController.Mine", err, "Order not found")
		return
	}
	x.Success(map[string]any{"orders": orders})
}
