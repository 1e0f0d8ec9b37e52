// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/storefront-labs/storefront-api/internal/config"
	"github.com/storefront-labs/storefront-api/internal/domain/cart"
	"github.com/storefront-labs/storefront-api/internal/domain/checkout"
	"github.com/storefront-labs/storefront-api/internal/domain/order"
	"github.com/storefront-labs/storefront-api/internal/domain/pricing"
	"github.com/storefront-labs/storefront-api/internal/domain/product"
	"github.com/storefront-labs/storefront-api/internal/infrastructure/database/postgres"
	"github.com/storefront-labs/storefront-api/internal/infrastructure/database/redis"
	"github.com/storefront-labs/storefront-api/internal/interfaces/http"
	"github.com/storefront-labs/storefront-api/internal/interfaces/http/handlers"
	"github.com/storefront-labs/storefront-api/internal/interfaces/http/routes"
	"github.com/storefront-labs/storefront-api/internal/pkg/auth"
	"github.com/storefront-labs/storefront-api/internal/pkg/logger"
	"github.com/storefront-labs/storefront-api/internal/pkg/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting application")

	// Connect to database
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), log)

	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}

	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Fatal("Index creation failed")
	}

	// Seed initial data in development
	if cfg.IsDevelopment() || cfg.Database.SeedData {
		if err := migration.SeedInitialData(); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
		if err := migration.GetTableInfo(); err != nil {
			log.WithError(err).Warn("Failed to read table info")
		}
	}

	validation.RegisterJSONTagNames()

	server := http.NewServer(cfg, log, wire(cfg, log, db, redisClient))

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}

// wire builds repositories, services and handlers on top of the open
// connections
func wire(cfg *config.Config, log *logrus.Logger, db *postgres.Connection, redisClient *redis.Client) http.Dependencies {
	gdb := db.GetDB()
	store := postgres.NewStore(gdb)

	products := postgres.NewProductRepository(gdb)
	carts := postgres.NewCartRepository(gdb)
	vouchers := postgres.NewVoucherRepository(gdb)
	orders := postgres.NewOrderRepository(gdb)
	applied := redis.NewAppliedStore(redisClient.GetClient(), cfg.Session.TTL)

	productService := product.NewService(products, log.WithField("component", "product"))
	cartService := cart.NewService(carts, products, applied, store, log.WithField("component", "cart"))
	orderService := order.NewService(orders, log.WithField("component", "order"))
	checkoutService := checkout.NewService(checkout.Deps{
		Carts:      carts,
		CartViews:  cartService,
		Products:   products,
		Vouchers:   vouchers,
		Orders:     orders,
		Applied:    applied,
		UnitOfWork: store,
	}, checkout.Settings{
		Policy: pricing.Policy{
			TaxRate:               cfg.Pricing.TaxRate,
			ShippingFlatRate:      cfg.Pricing.ShippingFlatRate,
			FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		},
		Currency:    cfg.Checkout.Currency,
		OrderPrefix: cfg.Checkout.OrderNumberPrefix,
	}, log.WithField("component", "checkout"))

	httpLog := log.WithField("component", "http")

	return http.Dependencies{
		Handlers: routes.Handlers{
			Products: handlers.NewProductHandler(productService, httpLog),
			Cart:     handlers.NewCartHandler(cartService, httpLog),
			Checkout: handlers.NewCheckoutHandler(checkoutService, httpLog),
			Orders:   handlers.NewOrderHandler(orderService, httpLog),
		},
		JWT:   auth.NewJWTManager(cfg),
		Redis: redisClient.GetClient(),
		Checks: map[string]http.HealthChecker{
			"database": db,
			"redis":    redisClient,
		},
	}
}
