// Package routes maps the storefront's URLs onto its controllers.
package routes

import (
	"time"

	"github.com/hayatshop/storefront/app/controllers"
	"github.com/hayatshop/storefront/pkg/ctx"
	"github.com/hayatshop/storefront/pkg/middleware"
	"github.com/hayatshop/storefront/pkg/rbac"
	"github.com/hayatshop/storefront/pkg/router"
)

// Controllers are the handlers behind every API route.
type Controllers struct {
	Auth      *controllers.AuthController
	Catalog   *controllers.CatalogController
	Cart      *controllers.CartController
	Favorites *controllers.FavoriteController
	Checkout  *controllers.CheckoutController
	Orders    *controllers.OrderController
	Products  *controllers.ProductController
}

// Guards decide who may reach a route.
type Guards struct {
	Tokens middleware.TokenValidator
	Admins rbac.Policy
	// LoginLimit caps auth attempts per client per minute. Zero disables it.
	LoginLimit int
}

func RegisterAPI(r *router.Router, c Controllers, g Guards) {
	authed := router.Middleware(middleware.Authenticate(g.Tokens))
	admin := router.Middleware(rbac.RequireAdmin(g.Admins))

	api := r.Group("/api")

	// Public catalog.
	api.Get("/categories", "catalog.categories", ctx.Wrap(c.Catalog.Categories))
	api.Get("/categories/{slug}/products", "catalog.category", ctx.Wrap(c.Catalog.Category))
	api.Get("/products/search", "catalog.search", ctx.Wrap(c.Catalog.Search))
	api.Get("/products/{id}", "catalog.product", ctx.Wrap(c.Catalog.Product))

	// Accounts.
	var limited []router.Middleware
	if g.LoginLimit > 0 {
		limited = append(limited, middleware.RateLimit(g.LoginLimit, time.Minute))
	}
	api.Post("/auth/register", "auth.register", ctx.Wrap(c.Auth.Register), limited...)
	api.Post("/auth/login", "auth.login", ctx.Wrap(c.Auth.Login), limited...)
	api.Get("/auth/me", "auth.me", ctx.Wrap(c.Auth.Me), authed)

	// Shopper.
	me := api.Group("", authed)
	me.Get("/cart", "cart.show", ctx.Wrap(c.Cart.Show))
	me.Post("/cart", "cart.add", ctx.Wrap(c.Cart.Add))
	me.Patch("/cart", "cart.update", ctx.Wrap(c.Cart.Update))
	me.Delete("/cart", "cart.remove", ctx.Wrap(c.Cart.Remove))

	me.Get("/favorites", "favorites.index", ctx.Wrap(c.Favorites.Index))
	me.Post("/favorites", "favorites.add", ctx.Wrap(c.Favorites.Add))
	me.Delete("/favorites/{productId}", "favorites.remove", ctx.Wrap(c.Favorites.Remove))

	me.Post("/checkout/verify", "checkout.verify", ctx.Wrap(c.Checkout.Verify))
	me.Post("/checkout/cod", "checkout.cod", ctx.Wrap(c.Checkout.COD))
	me.Post("/checkout/card", "checkout.card", ctx.Wrap(c.Checkout.Card))
	me.Get("/orders", "orders.mine", ctx.Wrap(c.Orders.Mine))

	// Back office.
	bo := api.Group("/admin", authed, admin)
	bo.Get("/orders", "admin.orders.index", ctx.Wrap(c.Orders.Index))
	bo.Get("/orders/{id}", "admin.orders.show", ctx.Wrap(c.Orders.Show))
	bo.Patch("/orders/{id}", "admin.orders.status", ctx.Wrap(c.Orders.UpdateStatus))
	bo.Delete("/orders/{id}", "admin.orders.destroy", ctx.Wrap(c.Orders.Destroy))

	bo.Get("/products", "admin.products.index", ctx.Wrap(c.Products.Index))
	bo.Post("/products", "admin.products.store", ctx.Wrap(c.Products.Store))
	bo.Put("/products/{id}", "admin.products.update", ctx.Wrap(c.Products.Update))
	bo.Delete("/products/{id}", "admin.products.destroy", ctx.Wrap(c.Products.Destroy))
	bo.Post("/products/{id}/images", "admin.products.images", ctx.Wrap(c.Products.Images))

	bo.Get("/inventory", "admin.inventory.index", ctx.Wrap(c.Products.Inventory))
	bo.Put("/inventory/{id}", "admin.inventory.update", ctx.Wrap(c.Products.SetStock))

	bo.Get("/users", "admin.users.index", ctx.Wrap(c.Auth.Users))
}

// RegisterLegacy redirects old top-level category links. Fixed paths such
// as /healthz still match first.
func RegisterLegacy(r *router.Router, c Controllers) {
	r.Get("/{slug}", "legacy.category", ctx.Wrap(c.Catalog.LegacyCategory))
}
