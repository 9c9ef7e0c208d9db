package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/florezcook/orders-backend/api/routes"
	"github.com/florezcook/orders-backend/internal/customers"
	"github.com/florezcook/orders-backend/internal/orders"
	"github.com/florezcook/orders-backend/internal/products"
	"github.com/florezcook/orders-backend/internal/reports"
	"github.com/florezcook/orders-backend/pkg/config"
	"github.com/florezcook/orders-backend/pkg/db"
	"github.com/florezcook/orders-backend/pkg/logger"
	"github.com/florezcook/orders-backend/pkg/metrics"
	"github.com/florezcook/orders-backend/pkg/migrate"
	"github.com/florezcook/orders-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	customerRepo := customers.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())

	catalogStore := products.NewMemoryCatalogStore(nil)
	if cfg.Catalog.Backend == config.CatalogBackendRedis {
		catalogStore = products.NewRedisCatalogStore(redisClient, redisClient.CacheKey("catalog"))
	}
	catalog, err := products.NewCatalog(products.CatalogParams{
		Source:  productRepo,
		Store:   catalogStore,
		TTL:     cfg.Catalog.TTL,
		Metrics: metrics.NewCatalogMetrics(registry),
		Logger:  logg,
	})
	requireService(ctx, logg, "catalog", err)

	customerService, err := customers.NewService(customerRepo, dbClient, logg)
	requireService(ctx, logg, "customers", err)

	productService, err := products.NewService(products.ServiceParams{
		Repo:     productRepo,
		TxRunner: dbClient,
		Catalog:  catalog,
		Logger:   logg,
	})
	requireService(ctx, logg, "products", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:         orders.NewRepository(dbClient.DB()),
		Customers:    customerRepo,
		Products:     productRepo,
		Catalog:      catalog,
		TxRunner:     dbClient,
		Metrics:      metrics.NewOrderMetrics(registry),
		Logger:       logg,
		CommitMode:   cfg.Orders.CommitMode,
		BusinessDays: cfg.Orders.MinDeliveryBusinessDays,
		RecentLimit:  cfg.Orders.RecentLimit,
	})
	requireService(ctx, logg, "orders", err)

	reportsService, err := reports.NewService(reports.NewRepository(dbClient.DB()), cfg.Orders.ReportPageSize, logg)
	requireService(ctx, logg, "reports", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"db_driver":       dbClient.Dialect(),
		"catalog_backend": cfg.Catalog.Backend,
		"commit_mode":     cfg.Orders.CommitMode,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			customerService,
			productService,
			ordersService,
			reportsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "service", name), "failed to create service", err)
	os.Exit(1)
}
