package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/config"
	"github.com/TemirB/bazar/internal/domain"
	"github.com/TemirB/bazar/internal/pkg/retry"
)

//go:generate mockgen -source internal/application/handler/handler.go -destination=internal/application/handler/handler_mock_test.go -package=handler

var (
	ErrBadJSON     = errors.New("bad json")
	ErrApply       = errors.New("apply failed")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

type Store interface {
	Apply(update domain.ItemUpdate) error
}

type brk interface {
	Allow() error
	Success()
	Failure()
}

// Handler applies replication events from other catalog replicas to the local store.
type Handler struct {
	store       Store
	breaker     brk
	replicaID   string
	logger      *zap.Logger
	retryPolicy config.Retry
}

func NewHandler(store Store, breaker brk, replicaID string, retryPolicy config.Retry, logger *zap.Logger) *Handler {
	return &Handler{
		store:       store,
		breaker:     breaker,
		replicaID:   replicaID,
		logger:      logger,
		retryPolicy: retryPolicy,
	}
}

// Handle is called by the consumer for every message. Events published by this
// replica are skipped. Applied events are not replicated again.
func (h *Handler) Handle(ctx context.Context, message kafkago.Message) error {
	var update domain.ItemUpdate
	if err := json.Unmarshal(message.Value, &update); err != nil || update.ID == "" {
		h.logger.Error("bad replication event",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return ErrBadJSON
	}
	if update.Origin == h.replicaID {
		return nil
	}

	if err := h.breaker.Allow(); err != nil {
		h.logger.Warn("circuit breaker is open",
			zap.Error(err),
			zap.String("id", update.ID),
			zap.Int64("offset", message.Offset),
		)
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	err := retry.Do(ctx, h.retryPolicy, func() error {
		err := h.store.Apply(update)
		if errors.Is(err, domain.ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		h.logger.Error("apply replicated update failed",
			zap.String("id", update.ID),
			zap.String("origin", update.Origin),
			zap.Error(err),
			zap.Int64("offset", message.Offset),
		)
		// unknown ids say nothing about the health of the store
		if errors.Is(err, domain.ErrNotFound) {
			h.breaker.Success()
		} else {
			h.breaker.Failure()
		}
		return fmt.Errorf("%w: %v", ErrApply, err)
	}

	h.breaker.Success()
	h.logger.Info("replicated update applied",
		zap.String("id", update.ID),
		zap.String("origin", update.Origin),
		zap.Int("quantity", update.Quantity),
		zap.Float64("price", update.Price),
	)
	return nil
}
