package replication

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/config"
	"github.com/TemirB/bazar/internal/domain"
	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/pkg/breaker"
	"github.com/TemirB/bazar/internal/pkg/pool"
	"github.com/TemirB/bazar/internal/upstream"
)

// HeaderReplicatedFrom marks an update pushed by another replica. Such updates
// are applied but never pushed again.
const HeaderReplicatedFrom = "X-Replicated-From"

type poster interface {
	Post(ctx context.Context, base, path string, header http.Header) (*upstream.Response, error)
}

// HTTPPusher sends the post-update state of an item to every peer through
// POST /update/{id}. Each push is a detached job on a bounded pool; results are
// logged and counted, never returned.
type HTTPPusher struct {
	origin   string
	peers    []string
	client   poster
	pool     *pool.Pool
	breakers map[string]*breaker.Breaker
	timeout  time.Duration
	logger   *zap.Logger
	metrics  observability.Metrics
}

func NewHTTPPusher(
	origin string,
	peers []string,
	client poster,
	p *pool.Pool,
	brk config.Breaker,
	timeout time.Duration,
	logger *zap.Logger,
	metrics observability.Metrics,
) *HTTPPusher {
	breakers := make(map[string]*breaker.Breaker, len(peers))
	for _, peer := range peers {
		breakers[peer] = breaker.New(brk)
	}
	return &HTTPPusher{
		origin:   origin,
		peers:    append([]string(nil), peers...),
		client:   client,
		pool:     p,
		breakers: breakers,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *HTTPPusher) Replicate(ctx context.Context, u domain.ItemUpdate) {
	detached := context.WithoutCancel(ctx)
	for _, peer := range h.peers {
		peer := peer
		if !h.pool.TrySubmit(func() { h.push(detached, peer, u) }) {
			h.logger.Warn("Replication queue full, update dropped",
				zap.String("peer", peer),
				zap.String("id", u.ID),
			)
			h.metrics.ObserveReplication(peer, false)
		}
	}
}

func (h *HTTPPusher) push(ctx context.Context, peer string, u domain.ItemUpdate) {
	brk := h.breakers[peer]
	if err := brk.Allow(); err != nil {
		h.logger.Debug("Peer breaker open, skipping push",
			zap.String("peer", peer),
			zap.String("id", u.ID),
		)
		h.metrics.ObserveReplication(peer, false)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp, err := h.client.Post(ctx, peer, UpdatePath(u), http.Header{HeaderReplicatedFrom: {h.origin}})
	if err == nil && !resp.OK() {
		err = fmt.Errorf("peer answered %d", resp.Status)
	}
	if err != nil {
		brk.Failure()
		h.logger.Warn("Replication push failed",
			zap.String("peer", peer),
			zap.String("id", u.ID),
			zap.Error(err),
		)
		h.metrics.ObserveReplication(peer, false)
		return
	}

	brk.Success()
	h.metrics.ObserveReplication(peer, true)
}

// UpdatePath renders the full-state update request for u.
func UpdatePath(u domain.ItemUpdate) string {
	q := url.Values{}
	q.Set("price", strconv.FormatFloat(u.Price, 'f', -1, 64))
	q.Set("quantity", strconv.Itoa(u.Quantity))
	return "/update/" + url.PathEscape(u.ID) + "?" + q.Encode()
}
