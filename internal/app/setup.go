// Package app wires the storefront components together.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/admin"
	"github.com/abgdnv/storefront/internal/admin/kv"
	"github.com/abgdnv/storefront/internal/catalog"
	catalogservice "github.com/abgdnv/storefront/internal/catalog/service"
	catalogstore "github.com/abgdnv/storefront/internal/catalog/store"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/feed"
	orderservice "github.com/abgdnv/storefront/internal/order/service"
	orderstore "github.com/abgdnv/storefront/internal/order/store"
	"github.com/abgdnv/storefront/internal/productsync"
	"github.com/abgdnv/storefront/internal/session"
	"github.com/abgdnv/storefront/internal/transport/rest"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/server"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
)

const serviceName = "storefront"

// Backends are the driver-specific implementations chosen by the caller.
type Backends struct {
	Products   catalogstore.ProductStore
	Orders     orderstore.OrderStore
	Publisher  messaging.Publisher
	Subscriber feed.Subscriber
	Documents  kv.Store
}

// InMemoryBackends returns backends that keep everything in process.
func InMemoryBackends(logger *slog.Logger) Backends {
	local := feed.NewLocal(logger)
	return Backends{
		Products:   catalogstore.NewInMemoryStore(),
		Orders:     orderstore.NewInMemoryStore(),
		Publisher:  local,
		Subscriber: local,
		Documents:  kv.NewMemoryStore(),
	}
}

type Dependencies struct {
	Cache          *catalog.Cache
	Sessions       *session.Registry
	ProductService catalogservice.ProductService
	OrderService   orderservice.OrderService
	Categories     *admin.Categories
	Settings       *admin.SettingsService
	Newsletter     *admin.Newsletter
	Syncer         *productsync.Syncer
	CookieSecure   bool
	Logger         *slog.Logger
}

func SetupDependencies(b Backends, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	cache := catalog.NewCache()

	var fetcher productsync.Fetcher = productsync.NewStoreFetcher(b.Products)
	if cfg.Resilience.CircuitBreaker.Enabled {
		fetcher = productsync.NewBreakerFetcher(fetcher, cfg.Resilience.CircuitBreaker, logger)
	}
	metrics, err := productsync.NewMetrics(otel.Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	syncer := productsync.NewSyncer(fetcher, b.Subscriber, cache.Replace, metrics, logger)

	return &Dependencies{
		Cache:          cache,
		Sessions:       session.NewRegistry(cfg.Session.TTL, logger),
		ProductService: catalogservice.NewService(b.Products, b.Publisher, logger),
		OrderService:   orderservice.NewService(b.Orders, cache, b.Publisher, logger),
		Categories:     admin.NewCategories(b.Documents),
		Settings:       admin.NewSettingsService(b.Documents),
		Newsletter:     admin.NewNewsletter(b.Documents),
		Syncer:         syncer,
		CookieSecure:   cfg.Session.CookieSecure,
		Logger:         logger,
	}, nil
}

// SetupHttpHandler builds the router. metrics may be nil; adminMW guards the admin routes.
func SetupHttpHandler(deps *Dependencies, metrics http.Handler, adminMW ...func(http.Handler) http.Handler) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps, adminMW)
	mux.Get("/healthz", rest.HealthCheck)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies, adminMW []func(http.Handler) http.Handler) {
	storefront := rest.NewStorefrontHandler(deps.Cache, deps.Sessions, deps.OrderService,
		deps.Categories, deps.Newsletter, deps.CookieSecure, deps.Logger)
	storefront.RegisterRoutes(mux)

	adminHandler := rest.NewAdminHandler(deps.ProductService, deps.Categories, deps.Settings, deps.Newsletter, deps.Logger)
	adminHandler.RegisterRoutes(mux, adminMW...)
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config, metrics http.Handler, adminMW ...func(http.Handler) http.Handler) *http.Server {
	mux := SetupHttpHandler(deps, metrics, adminMW...)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, serviceName, mux)
}
