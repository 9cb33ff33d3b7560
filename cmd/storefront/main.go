// Package main runs the storefront service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/abgdnv/storefront/internal/admin/kv"
	"github.com/abgdnv/storefront/internal/app"
	catalogstore "github.com/abgdnv/storefront/internal/catalog/store"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/feed"
	orderstore "github.com/abgdnv/storefront/internal/order/store"
	"github.com/abgdnv/storefront/migrations"
	"github.com/abgdnv/storefront/pkg/auth"
	"github.com/abgdnv/storefront/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/config/configloader"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/nats"
	"github.com/abgdnv/storefront/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "storefront"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, opens the configured backends and runs the HTTP server,
// the product sync hook, the session janitor and the optional pprof server until ctx is done.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	meterProvider, metricsHandler, err := telemetry.NewMeterProvider(serviceName)
	if err != nil {
		return fmt.Errorf("failed to create meter provider: %w", err)
	}

	if cfg.Telemetry.Traces.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			logger.Error("error creating tracer provider", slog.Any("error", err))
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown tracer provider", slog.Any("error", err))
			}
		}()
	}

	backends, closeBackends, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackends()

	var adminMW []func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		verifier, err := auth.NewJWTVerifier(startupCtx, cfg.Auth.IdP)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to create JWT verifier: %w", err)
		}
		adminMW = append(adminMW, auth.RequireBearer(verifier, logger))
	} else {
		logger.Warn("Admin routes are not protected, auth is disabled")
	}

	deps, err := app.SetupDependencies(backends, cfg, logger)
	if err != nil {
		return err
	}
	httpServer := app.SetupHttpServer(deps, cfg, metricsHandler, adminMW...)

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Run the product sync hook for the lifetime of the process
	g.Go(func() error {
		if err := deps.Syncer.Start(gCtx); err != nil {
			return fmt.Errorf("product sync failed to start: %w", err)
		}
		logger.Info("Product sync started", "products", len(deps.Syncer.Snapshot().Products))
		<-gCtx.Done()
		logger.Info("Stopping product sync...")
		deps.Syncer.Stop()
		deps.Syncer.Wait()
		return nil
	})

	// Evict idle shopper sessions
	g.Go(func() error {
		return deps.Sessions.Run(gCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr: cfg.PProf.Addr,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	// flush metrics on shutdown
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// openBackends connects the gateway, change feed and document store selected by cfg.
// The returned func releases them in reverse order.
func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app.Backends, func(), error) {
	var (
		b       = app.InMemoryBackends(logger)
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Gateway.Driver == pkgconfig.GatewayDriverPostgres {
		if cfg.Database.Migrate {
			if err := bootstrap.Migrate(cfg.Database.URL, migrations.FS); err != nil {
				return b, func() {}, err
			}
			logger.Info("Database migrations applied")
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return b, func() {}, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		closers = append(closers, dbPool.Close)
		logger.Info("Successfully connected to the database!")
		b.Products = catalogstore.NewPgStore(dbPool)
		b.Orders = orderstore.NewPgStore(dbPool)
	}

	if cfg.Feed.Driver == pkgconfig.FeedDriverNATS {
		natsConn, err := nats.NewClient(cfg.Nats)
		if err != nil {
			closeAll()
			return b, func() {}, fmt.Errorf("failed to create NATS connection: %w", err)
		}
		closers = append(closers, func() {
			if err := natsConn.Drain(); err != nil {
				logger.Error("failed to drain NATS connection", "error", err)
			}
		})
		js, err := nats.NewJetStreamContext(natsConn)
		if err != nil {
			closeAll()
			return b, func() {}, fmt.Errorf("failed to get JetStream context: %w", err)
		}
		streamCtx, cancel := context.WithTimeout(ctx, cfg.Feed.Timeout)
		_, err = nats.EnsureStream(streamCtx, js, cfg.Feed.Stream, cfg.Feed.Subject, messaging.OrdersPlacedSubject)
		cancel()
		if err != nil {
			closeAll()
			return b, func() {}, err
		}
		b.Publisher = nats.NewNatsPublisher(js)
		b.Subscriber = feed.NewNatsSubscriber(js, cfg.Feed, logger)
	}

	if cfg.KV.Path != "" {
		docs, err := kv.OpenSQLite(cfg.KV.Path)
		if err != nil {
			closeAll()
			return b, func() {}, fmt.Errorf("failed to open document store: %w", err)
		}
		closers = append(closers, func() { _ = docs.Close() })
		b.Documents = docs
	}
	return b, closeAll, nil
}
