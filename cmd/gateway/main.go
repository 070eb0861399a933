package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kaidenz/storefront-gateway/api/routes"
	"github.com/kaidenz/storefront-gateway/internal/cart"
	checkoutsvc "github.com/kaidenz/storefront-gateway/internal/checkout"
	"github.com/kaidenz/storefront-gateway/internal/upstream"
	stripewebhook "github.com/kaidenz/storefront-gateway/internal/webhooks/stripe"
	"github.com/kaidenz/storefront-gateway/internal/wishlist"
	"github.com/kaidenz/storefront-gateway/pkg/config"
	"github.com/kaidenz/storefront-gateway/pkg/logger"
	"github.com/kaidenz/storefront-gateway/pkg/maps"
	"github.com/kaidenz/storefront-gateway/pkg/metrics"
	"github.com/kaidenz/storefront-gateway/pkg/redis"
	"github.com/kaidenz/storefront-gateway/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	upstreamMetrics := metrics.NewUpstreamMetrics(prometheus.DefaultRegisterer)
	backend, err := upstream.NewClient(cfg.Upstream, upstream.WithMetrics(upstreamMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to build upstream client", err)
		os.Exit(1)
	}

	janitorCtx, stopJanitors := context.WithCancel(context.Background())
	defer stopJanitors()

	carts := cart.NewRegistry(backend, cfg.State.SessionTTL)
	carts.StartJanitor(janitorCtx, cfg.State.SweepInterval)
	wishlists := wishlist.NewRegistry(backend, cfg.State.SessionTTL)
	wishlists.StartJanitor(janitorCtx, cfg.State.SweepInterval)

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build stripe client", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Stripe:  checkoutsvc.NewStripeClient(stripeClient),
		Backend: backend,
		Config:  cfg.Stripe,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Backend: backend,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to build webhook guard", err)
		os.Exit(1)
	}

	var mapsClient *maps.Client
	if cfg.Maps.Enabled() {
		mapsClient, err = maps.NewClient(cfg.Maps.APIKey)
		if err != nil {
			logg.Error(context.Background(), "failed to build places client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "maps api key not set, address autocomplete disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"upstream": cfg.Upstream.BaseURL,
	})
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			backend,
			redisClient,
			carts,
			wishlists,
			checkoutService,
			stripeClient,
			webhookService,
			webhookGuard,
			mapsClient,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}
