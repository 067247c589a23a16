package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reyes-labs/storefront-backend/api/controllers"
	"github.com/reyes-labs/storefront-backend/api/routes"
	addresssvc "github.com/reyes-labs/storefront-backend/internal/address"
	authsvc "github.com/reyes-labs/storefront-backend/internal/auth"
	cartsvc "github.com/reyes-labs/storefront-backend/internal/cart"
	catalogsvc "github.com/reyes-labs/storefront-backend/internal/catalog"
	checkoutsvc "github.com/reyes-labs/storefront-backend/internal/checkout"
	ordersvc "github.com/reyes-labs/storefront-backend/internal/orders"
	"github.com/reyes-labs/storefront-backend/internal/users"
	"github.com/reyes-labs/storefront-backend/pkg/config"
	"github.com/reyes-labs/storefront-backend/pkg/db"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
	"github.com/reyes-labs/storefront-backend/pkg/metrics"
	"github.com/reyes-labs/storefront-backend/pkg/migrate"
	"github.com/reyes-labs/storefront-backend/pkg/outbox"
	"github.com/reyes-labs/storefront-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := authsvc.NewService(users.NewRepository(gormDB), cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogRepo := catalogsvc.NewRepository(gormDB)
	catalogService, err := catalogsvc.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartMirror := cartsvc.NewMirror(redisClient, logg)
	cartService, err := cartsvc.NewService(cartsvc.NewRepository(gormDB), dbClient, catalogRepo, outboxService, cartMirror)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	addressService, err := addresssvc.NewService(addresssvc.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	ordersRepo := ordersvc.NewRepository(gormDB)
	ordersService, err := ordersvc.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	drafts := checkoutsvc.NewDraftStore(redisClient, cfg.Checkout.DraftTTL)
	checkoutService, err := checkoutsvc.NewService(drafts, cartService, addressService, ordersRepo, dbClient, outboxService, cartMirror)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config: cfg,
			Logger: logg,
			Ready: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Metrics:         httpMetrics,
			MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			AuthService:     authService,
			CatalogService:  catalogService,
			CartService:     cartService,
			AddressService:  addressService,
			CheckoutService: checkoutService,
			OrdersService:   ordersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
