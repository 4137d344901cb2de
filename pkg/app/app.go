// Package app assembles the storefront: it connects the backends named by the
// configuration, wires the services together and builds the HTTP handler.
//
//	cfg, _ := config.Load(flags)
//	a, err := app.Boot(ctx, cfg)
//	if err != nil { ... }
//	defer a.Close(ctx)
//	server.Start(ctx, ":"+cfg.AppPort, a.Handler())
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/app/services"
	"github.com/hayatshop/storefront/config"
	"github.com/hayatshop/storefront/pkg/auth"
	"github.com/hayatshop/storefront/pkg/bind"
	"github.com/hayatshop/storefront/pkg/cache"
	"github.com/hayatshop/storefront/pkg/events"
	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/payment"
	"github.com/hayatshop/storefront/pkg/storage"
)

const (
	eventWorkers = 2
	eventQueue   = 512
	connectWait  = 15 * time.Second
)

// Backends are the outside systems the storefront talks to.
type Backends struct {
	Store    repositories.Store
	Cache    cache.Store
	Disk     storage.Disk
	Events   events.Publisher
	Payments payment.Gateway
}

// Services are the use cases behind the API.
type Services struct {
	Catalog   *services.CatalogService
	Orders    *services.OrderService
	Inventory *services.InventoryService
	Products  *services.ProductService
	Cart      *services.CartService
	Favorites *services.FavoriteService
	Checkout  *services.CheckoutService
	Auth      *services.AuthService
}

// Application is a fully wired storefront.
type Application struct {
	Config   config.Config
	Backends Backends
	Services Services
	Tokens   *auth.Tokens
	Admins   auth.AdminPolicy

	closers []func(context.Context) error
}

// Boot connects every backend named by cfg and wires the application.
// Optional backends fall back to in-process stand-ins with a warning: the
// cache to memory, events to a no-op publisher, card payments to disabled.
func Boot(ctx context.Context, cfg config.Config) (*Application, error) {
	const op = "app.Boot"

	logger.Setup(cfg.AppEnv, cfg.LogLevel)
	bind.SetMaxBodyBytes(cfg.MaxBodyBytes)
	log := logger.L.With("op", op)

	if cfg.IsProduction() && cfg.JWTSecret == config.DefaultJWTSecret {
		return nil, fmt.Errorf("%s: jwt_secret must be set in production", op)
	}

	ctx, cancel := context.WithTimeout(ctx, connectWait)
	defer cancel()

	var (
		b       Backends
		closers []func(context.Context) error
	)

	switch cfg.Store {
	case "memory":
		log.Warn("using in-memory store; data is lost on exit")
		b.Store = repositories.NewMemoryStore()
	case "", "mongo":
		st, err := repositories.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		b.Store = st
	default:
		return nil, fmt.Errorf("%s: unknown store %q", op, cfg.Store)
	}
	closers = append(closers, b.Store.Close)

	b.Cache = cache.Store(cache.NewMemory())
	if cfg.Redis.Addr != "" {
		rc, err := cache.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			log.Warn("redis unavailable, caching in memory", "addr", cfg.Redis.Addr, "error", err)
		} else {
			b.Cache = rc
			closers = append(closers, func(context.Context) error { return rc.Close() })
		}
	}

	disk, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = closeAll(context.Background(), closers)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b.Disk = disk

	b.Payments = payment.Disabled{}
	if cfg.Payment.StripeKey != "" {
		b.Payments = payment.NewStripe(cfg.Payment.StripeKey)
	} else {
		log.Warn("no payment key configured, card checkout disabled")
	}

	b.Events = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		k, err := events.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Warn("kafka unavailable, order events disabled", "brokers", cfg.Kafka.Brokers, "error", err)
		} else {
			b.Events = events.NewAsync(k, eventWorkers, eventQueue)
		}
	}
	closers = append(closers, func(context.Context) error { b.Events.Close(); return nil })

	a := New(cfg, b)
	a.closers = closers
	log.Info("application ready", "store", cfg.Store, "disk", cfg.Storage.Disk,
		"admins", a.Admins.Len(), "events", len(cfg.Kafka.Brokers) > 0)
	return a, nil
}

// New wires services over already connected backends.
func New(cfg config.Config, b Backends) *Application {
	if b.Cache == nil {
		b.Cache = cache.Nop{}
	}
	if b.Events == nil {
		b.Events = events.Nop{}
	}
	if b.Payments == nil {
		b.Payments = payment.Disabled{}
	}

	a := &Application{
		Config:   cfg,
		Backends: b,
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Admins:   auth.NewAdminPolicy(cfg.Shop.AdminEmails...),
	}

	s := &a.Services
	s.Catalog = services.NewCatalogService(b.Store, b.Cache, cfg.Shop.CatalogTTL, cfg.Shop.CatalogLimit)
	s.Orders = services.NewOrderService(b.Store, b.Events)
	s.Inventory = services.NewInventoryService(b.Store)
	s.Products = services.NewProductService(b.Store, b.Disk, cfg.Shop.MaxUploadBytes)
	s.Cart = services.NewCartService(b.Store)
	s.Favorites = services.NewFavoriteService(b.Store)
	s.Checkout = services.NewCheckoutService(b.Store, s.Catalog, b.Payments, b.Events, services.CheckoutConfig{
		Currency:    cfg.Shop.Currency,
		ShippingFee: cfg.Shop.ShippingFee,
		SiteURL:     cfg.Payment.SiteURL,
	})
	s.Auth = services.NewAuthService(b.Store, a.Tokens, a.Admins)

	// Cached category pages must not outlive a stock or catalog change.
	s.Orders.OnStockChange(s.Catalog.Invalidate)
	s.Inventory.OnStockChange(s.Catalog.Invalidate)
	s.Products.OnChange(s.Catalog.Invalidate)

	return a
}

// Close releases backends in reverse order of connection.
func (a *Application) Close(ctx context.Context) error {
	return closeAll(ctx, a.closers)
}

func closeAll(ctx context.Context, closers []func(context.Context) error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
