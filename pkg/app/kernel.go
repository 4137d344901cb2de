package app

import (
	"context"
	"net/http"
	"time"

	"github.com/hayatshop/storefront/app/controllers"
	"github.com/hayatshop/storefront/app/routes"
	"github.com/hayatshop/storefront/pkg/metrics"
	"github.com/hayatshop/storefront/pkg/middleware"
	"github.com/hayatshop/storefront/pkg/reqid"
	"github.com/hayatshop/storefront/pkg/response"
	"github.com/hayatshop/storefront/pkg/router"
)

// loginLimit is the per-client budget for register and login attempts.
const loginLimit = 20

// rooted is implemented by the local disk.
type rooted interface{ Root() string }

// Handler builds the HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.router().Handler()
}

// Routes lists every registered route, for route:list.
func (a *Application) Routes() []router.Route {
	return a.router().Routes()
}

func (a *Application) router() *router.Router {
	r := router.New()

	// Global middleware, outermost first:
	//  1. metrics    total latency including everything below
	//  2. recovery   a panic becomes a 500
	//  3. request id set before anything logs
	//  4. logger     one line per request with the id
	//  5. CORS
	//  6. rate limit
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(a.corsOptions()))
	if a.Config.RateLimit > 0 {
		r.Use(middleware.RateLimit(a.Config.RateLimit, time.Minute))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/metrics", "ops.metrics", metrics.Handler())
	r.Get("/healthz", "ops.health", a.health)
	if d, ok := a.Backends.Disk.(rooted); ok {
		r.Mount("/storage", "storage.files", http.StripPrefix("/storage", http.FileServer(http.Dir(d.Root()))))
	}

	s := a.Services
	c := routes.Controllers{
		Auth:      controllers.NewAuthController(s.Auth),
		Catalog:   controllers.NewCatalogController(s.Catalog),
		Cart:      controllers.NewCartController(s.Cart),
		Favorites: controllers.NewFavoriteController(s.Favorites),
		Checkout:  controllers.NewCheckoutController(s.Checkout),
		Orders:    controllers.NewOrderController(s.Orders),
		Products:  controllers.NewProductController(s.Products, s.Inventory, a.Config.Shop.MaxUploadBytes),
	}
	routes.RegisterAPI(r, c, routes.Guards{Tokens: a.Tokens, Admins: a.Admins, LoginLimit: loginLimit})
	routes.RegisterLegacy(r, c)

	return r
}

func (a *Application) corsOptions() middleware.CORSOptions {
	opts := middleware.DefaultCORSOptions()
	if a.Config.IsProduction() && a.Config.Payment.SiteURL != "" {
		opts.AllowedOrigins = []string{a.Config.Payment.SiteURL}
	}
	return opts
}

// health reports 503 when the store cannot be reached.
func (a *Application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.Backends.Store.Ping(ctx); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "down", "error": err.Error()})
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
