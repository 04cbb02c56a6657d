package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/application/frontend"
	"github.com/TemirB/bazar/internal/cache"
	"github.com/TemirB/bazar/internal/config"
	"github.com/TemirB/bazar/internal/httpapi"
	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/selector"
	"github.com/TemirB/bazar/internal/upstream"
)

func main() {
	cfg := config.Load(config.Frontend, os.Args[1:])

	logger, err := observability.NewLogger(cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := cache.New(cfg.CacheCap)
	if err != nil {
		logger.Fatal("Failed to create cache", zap.Error(err))
	}

	sel, err := selector.New(map[selector.Role][]string{
		selector.Catalog: cfg.CatalogReplicas,
		selector.Order:   cfg.OrderReplicas,
	})
	if err != nil {
		logger.Fatal("Invalid replica configuration", zap.Error(err))
	}

	metrics := observability.NewInmem(200)
	router := frontend.NewRouter(c, sel, upstream.New(cfg.UpstreamTimeout), logger, metrics)

	if len(cfg.CacheWarmIDs) > 0 {
		n := c.Warm(ctx, router, cfg.CacheWarmIDs)
		logger.Info("Cache warmed", zap.Int("loaded", n), zap.Int("requested", len(cfg.CacheWarmIDs)))
	}

	logger.Info("Front-end configured",
		zap.Strings("catalog_replicas", cfg.CatalogReplicas),
		zap.Strings("order_replicas", cfg.OrderReplicas),
		zap.Int("cache_cap", cfg.CacheCap),
	)

	srv := httpapi.NewFrontend(router, c, logger, metrics)
	if err := httpapi.Serve(ctx, cfg.HTTPAddr, srv.Handler(), logger); err != nil {
		logger.Fatal("Front-end server failed", zap.Error(err))
	}
}
