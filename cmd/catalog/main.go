package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/application/handler"
	"github.com/TemirB/bazar/internal/catalog"
	"github.com/TemirB/bazar/internal/config"
	"github.com/TemirB/bazar/internal/httpapi"
	"github.com/TemirB/bazar/internal/kafka"
	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/pkg/breaker"
	"github.com/TemirB/bazar/internal/pkg/pool"
	"github.com/TemirB/bazar/internal/replication"
	"github.com/TemirB/bazar/internal/upstream"
)

func main() {
	cfg := config.Load(config.Catalog, os.Args[1:])

	logger, err := observability.NewLogger(cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := catalog.Open(cfg.CatalogFile, logger)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.String("file", cfg.CatalogFile), zap.Error(err))
	}

	metrics := observability.NewInmem(200)

	var fanout replication.Fanout
	if len(cfg.Peers) > 0 {
		p := pool.New(cfg.ReplicationWorkers)
		defer p.Close()
		fanout = append(fanout, replication.NewHTTPPusher(
			cfg.ReplicaID,
			cfg.Peers,
			upstream.New(cfg.UpstreamTimeout),
			p,
			cfg.Breaker,
			cfg.UpstreamTimeout,
			logger,
			metrics,
		))
		logger.Info("Peer replication enabled", zap.Strings("peers", cfg.Peers))
	}

	if cfg.Kafka.Enabled() {
		if err := kafka.EnsureTopic(ctx, cfg.Kafka, 1, 1, logger); err != nil {
			logger.Warn("Kafka topic not ensured", zap.Error(err))
		}

		publisher := replication.NewPublisher(
			replication.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger),
			cfg.Kafka.Topic,
			logger,
			metrics,
		)
		defer publisher.Close()
		fanout = append(fanout, publisher)

		h := handler.NewHandler(store, breaker.New(cfg.Breaker), cfg.ReplicaID, cfg.Retry, logger)
		reader := kafka.NewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Group, cfg.ReplicaID)
		consumer := kafka.NewConsumer(h, reader, cfg.Kafka.Workers, logger)
		go consumer.Start(ctx)
		logger.Info("Kafka replication enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	srv := httpapi.NewCatalog(store, fanout, cfg.ReplicaID, logger, metrics)
	if err := httpapi.Serve(ctx, cfg.HTTPAddr, srv.Handler(), logger); err != nil {
		logger.Fatal("Catalog server failed", zap.Error(err))
	}
}
