package frontend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/domain"
	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/selector"
	"github.com/TemirB/bazar/internal/upstream"
)

//go:generate mockgen -source internal/application/frontend/router.go -destination=internal/application/frontend/router_mock_test.go -package=frontend

type Cache interface {
	Get(id string) ([]byte, bool)
	Put(id string, payload []byte)
	Invalidate(id string)
}

type Selector interface {
	Next(role selector.Role) (string, error)
}

type Upstream interface {
	Get(ctx context.Context, base, path string) (*upstream.Response, error)
}

// Router dispatches client requests to catalog and order replicas and keeps
// the info cache. It holds no per-request state.
type Router struct {
	cache    Cache
	selector Selector
	client   Upstream
	logger   *zap.Logger
	metrics  observability.Metrics
}

func NewRouter(cache Cache, sel Selector, client Upstream, logger *zap.Logger, metrics observability.Metrics) *Router {
	return &Router{
		cache:    cache,
		selector: sel,
		client:   client,
		logger:   logger,
		metrics:  metrics,
	}
}

// Search forwards to the next catalog replica. Results are never cached.
func (r *Router) Search(ctx context.Context, topic string) (*upstream.Response, error) {
	return r.forward(ctx, selector.Catalog, "/search/"+url.PathEscape(topic))
}

// Purchase forwards to the next order replica and leaves the info cache alone,
// so a cached quantity may be stale until the id is invalidated.
func (r *Router) Purchase(ctx context.Context, id string) (*upstream.Response, error) {
	resp, err := r.forward(ctx, selector.Order, "/order?id="+url.QueryEscape(id))
	if err != nil {
		return nil, err
	}
	r.logger.Info("Purchase forwarded",
		zap.String("id", id),
		zap.String("replica", resp.Addr),
		zap.Int("status", resp.Status),
	)
	return resp, nil
}

func (r *Router) Invalidate(id string) {
	r.cache.Invalidate(id)
	r.logger.Info("Cache entry invalidated", zap.String("id", id))
}

func (r *Router) Info(ctx context.Context, id string) (*upstream.Response, error) {
	resp, _, err := r.InfoWithStats(ctx, id)
	return resp, err
}

// InfoWithStats serves id from the cache or from the next catalog replica.
// Only a 200 payload is cached; 404 and every other status pass through.
func (r *Router) InfoWithStats(ctx context.Context, id string) (*upstream.Response, LookupStats, error) {
	var st LookupStats

	// Try cache
	tCacheStart := time.Now()
	if payload, ok := r.cache.Get(id); ok {
		st.Source = SourceCache
		st.CacheMs = convertToMs(tCacheStart)
		r.metrics.IncCacheHit()
		r.metrics.ObserveLookup(string(st.Source), st.CacheMs, 0)

		r.logger.Info("Item fetched from cache",
			zap.String("id", id),
			zap.Float64("cache_ms", st.CacheMs),
		)

		return &upstream.Response{
			Status:      http.StatusOK,
			ContentType: "application/json",
			Body:        payload,
		}, st, nil
	}

	// Try catalog
	r.metrics.IncCacheMiss()
	st.CacheMs = convertToMs(tCacheStart)

	tUpStart := time.Now()
	resp, err := r.forward(ctx, selector.Catalog, "/info/"+url.PathEscape(id))
	if err != nil {
		r.logger.Error("Can't fetch item",
			zap.String("id", id),
			zap.Error(err),
			zap.Float64("cache_ms", st.CacheMs),
		)
		return nil, st, err
	}

	st.Source = SourceUpstream
	st.Replica = resp.Addr
	st.UpstreamMs = convertToMs(tUpStart)

	if resp.OK() {
		r.cache.Put(id, resp.Body)
	}

	// metrics
	r.metrics.ObserveLookup(string(st.Source), st.CacheMs, st.UpstreamMs)
	r.logger.Info("Item fetched from catalog",
		zap.String("id", id),
		zap.String("replica", st.Replica),
		zap.Int("status", resp.Status),
		zap.Bool("cached", resp.OK()),
		zap.Float64("cache_ms", st.CacheMs),
		zap.Float64("upstream_ms", st.UpstreamMs),
	)

	return resp, st, nil
}

// Fetch reads one info payload from the catalog without touching the cache.
// It lets cache.Warm preload ids through the same replica rotation.
func (r *Router) Fetch(ctx context.Context, id string) ([]byte, error) {
	resp, err := r.forward(ctx, selector.Catalog, "/info/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.OK():
		return resp.Body, nil
	case resp.Status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	default:
		return nil, fmt.Errorf("%w: %s answered %d", domain.ErrUpstreamUnavailable, resp.Addr, resp.Status)
	}
}

func (r *Router) forward(ctx context.Context, role selector.Role, path string) (*upstream.Response, error) {
	addr, err := r.selector.Next(role)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Get(ctx, addr, path)
	if err != nil {
		r.logger.Warn("Upstream call failed",
			zap.String("role", string(role)),
			zap.String("replica", addr),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	return resp, nil
}
