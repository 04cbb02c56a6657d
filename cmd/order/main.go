package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/application/order"
	"github.com/TemirB/bazar/internal/config"
	"github.com/TemirB/bazar/internal/database"
	"github.com/TemirB/bazar/internal/domain"
	"github.com/TemirB/bazar/internal/httpapi"
	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/selector"
	"github.com/TemirB/bazar/internal/upstream"
)

func main() {
	cfg := config.Load(config.Order, os.Args[1:])

	logger, err := observability.NewLogger(cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sel, err := selector.New(map[selector.Role][]string{selector.Catalog: cfg.CatalogReplicas})
	if err != nil {
		logger.Fatal("Invalid catalog replicas", zap.Error(err))
	}

	var ledger domain.OrderLedger
	if cfg.Pg.Enabled() {
		pool, err := database.Connect(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Fatal("Failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		l := database.New(pool, cfg.Pg.Table)
		if err := l.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to prepare order ledger", zap.Error(err))
		}
		ledger = l
		logger.Info("Order ledger enabled", zap.String("table", cfg.Pg.Table))
	}

	metrics := observability.NewInmem(200)
	coord := order.NewCoordinator(sel, upstream.New(cfg.UpstreamTimeout), ledger, cfg.AtomicDecrement, logger, metrics)

	logger.Info("Order service configured",
		zap.Strings("catalog_replicas", cfg.CatalogReplicas),
		zap.Bool("atomic_decrement", cfg.AtomicDecrement),
	)

	srv := httpapi.NewOrder(coord, logger, metrics)
	if err := httpapi.Serve(ctx, cfg.HTTPAddr, srv.Handler(), logger); err != nil {
		logger.Fatal("Order server failed", zap.Error(err))
	}
}
