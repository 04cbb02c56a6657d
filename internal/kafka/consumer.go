package kafka

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg kafkago.Message) error
}

type Reader interface {
	Config() kafkago.ReaderConfig
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewReader subscribes one catalog replica. Every replica needs its own group
// so that each of them sees every update.
func NewReader(brokers []string, topic, group, replicaID string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     group + "." + sanitizeGroup(replicaID),
		StartOffset: kafkago.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
}

type Consumer struct {
	handler MessageHandler
	reader  Reader
	zlogger *zap.Logger

	workerPoolSize int
	shards         []chan jobItem
	pending        chan jobItem
	backoff        time.Duration
}

type jobItem struct {
	msg    kafkago.Message
	result chan error
}

func NewConsumer(handler MessageHandler, reader Reader, workers int, logger *zap.Logger) *Consumer {
	if workers < 1 {
		workers = 1
	}
	shards := make([]chan jobItem, workers)
	for i := range shards {
		shards[i] = make(chan jobItem, 2)
	}
	return &Consumer{
		handler:        handler,
		reader:         reader,
		zlogger:        logger,
		workerPoolSize: workers,
		shards:         shards,
		pending:        make(chan jobItem, workers*2),
		backoff:        200 * time.Millisecond,
	}
}

// Start blocks until ctx is done. Up to workers messages are handled at once;
// messages with the same key always go to the same worker, so updates to one
// item apply in fetch order. Commits follow fetch order too. A failed message
// is logged and committed, since replication is best effort and must not stall
// the partition.
func (c *Consumer) Start(ctx context.Context) {
	rc := c.reader.Config()
	c.zlogger.Info("Starting replication consumer",
		zap.Strings("brokers", rc.Brokers),
		zap.String("group", rc.GroupID),
		zap.String("topic", rc.Topic),
		zap.Int("workers", c.workerPoolSize),
	)

	for _, jobs := range c.shards {
		go c.worker(ctx, jobs)
	}

	committed := make(chan struct{})
	go func() {
		defer close(committed)
		c.commitLoop(ctx)
	}()

	defer func() {
		close(c.pending)
		<-committed
		if err := c.reader.Close(); err != nil {
			c.zlogger.Warn("reader close failed", zap.Error(err))
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if isBenignFetchTimeout(err) {
				c.zlogger.Debug("fetch timeout (idle), backing off", zap.Error(err))
			} else {
				c.zlogger.Warn("FetchMessage error, backing off", zap.Error(err))
			}
			sleepWithContext(ctx, c.backoff)
			continue
		}

		it := jobItem{msg: msg, result: make(chan error, 1)}
		select {
		case c.pending <- it:
		case <-ctx.Done():
			return
		}
		select {
		case c.shards[c.shard(msg.Key)] <- it:
		case <-ctx.Done():
			return
		}
	}
}

// commitLoop waits for each message in fetch order and commits it.
func (c *Consumer) commitLoop(ctx context.Context) {
	for it := range c.pending {
		var procErr error
		select {
		case procErr = <-it.result:
		case <-ctx.Done():
			return
		}

		if procErr != nil {
			c.zlogger.Warn("replication event dropped",
				zap.Error(procErr),
				zap.Int("partition", it.msg.Partition),
				zap.Int64("offset", it.msg.Offset),
			)
		}

		if err := c.reader.CommitMessages(ctx, it.msg); err != nil {
			c.zlogger.Warn("commit failed",
				zap.Error(err),
				zap.Int("partition", it.msg.Partition),
				zap.Int64("offset", it.msg.Offset),
			)
			sleepWithContext(ctx, c.backoff)
		}
	}
}

func (c *Consumer) shard(key []byte) int {
	h := fnv.New32a()
	_, _ = h.Write(key)
	return int(h.Sum32() % uint32(len(c.shards)))
}

func (c *Consumer) worker(ctx context.Context, jobs <-chan jobItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-jobs:
			start := time.Now()
			err := c.handler.Handle(ctx, it.msg)
			c.zlogger.Debug("message handled",
				zap.Int("partition", it.msg.Partition),
				zap.Int64("offset", it.msg.Offset),
				zap.Int("value_bytes", len(it.msg.Value)),
				zap.Duration("elapsed", time.Since(start)),
				zap.Bool("ok", err == nil),
			)
			it.result <- err
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isBenignFetchTimeout(err error) bool {
	s := err.Error()
	return strings.Contains(s, "Request Timed Out") ||
		strings.Contains(s, "no messages received from kafka within the allocated time")
}

func sanitizeGroup(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}
