package replication

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/domain"
	"github.com/TemirB/bazar/internal/observability"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher emits item updates as JSON events keyed by item id.
type Publisher struct {
	writer  Writer
	topic   string
	logger  *zap.Logger
	metrics observability.Metrics
}

// NewKafkaWriter builds an async writer: WriteMessages returns at once and
// delivery errors surface only in the completion log.
func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Warn("Replication event delivery failed",
					zap.Int("messages", len(msgs)),
					zap.Error(err),
				)
			}
		},
	}
}

func NewPublisher(w Writer, topic string, logger *zap.Logger, metrics observability.Metrics) *Publisher {
	return &Publisher{
		writer:  w,
		topic:   topic,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *Publisher) Replicate(ctx context.Context, u domain.ItemUpdate) {
	value, err := json.Marshal(u)
	if err != nil {
		p.logger.Error("Replication event encode failed", zap.String("id", u.ID), zap.Error(err))
		return
	}

	msg := kafkago.Message{
		Key:   []byte(u.ID),
		Value: value,
		Time:  u.At,
	}
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		p.logger.Warn("Replication event publish failed",
			zap.String("topic", p.topic),
			zap.String("id", u.ID),
			zap.Error(err),
		)
		p.metrics.ObserveReplication(p.topic, false)
		return
	}
	p.metrics.ObserveReplication(p.topic, true)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Fanout hands one update to several replicators.
type Fanout []domain.Replicator

func (f Fanout) Replicate(ctx context.Context, u domain.ItemUpdate) {
	for _, r := range f {
		r.Replicate(ctx, u)
	}
}

// Nop discards updates; used when a replica has neither peers nor brokers.
type Nop struct{}

func (Nop) Replicate(context.Context, domain.ItemUpdate) {}
