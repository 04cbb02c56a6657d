package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/application/frontend"
	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/upstream"
)

//go:generate mockgen -source internal/httpapi/frontend.go -destination=internal/httpapi/frontend_mock_test.go -package=httpapi

type FrontRouter interface {
	Search(ctx context.Context, topic string) (*upstream.Response, error)
	InfoWithStats(ctx context.Context, id string) (*upstream.Response, frontend.LookupStats, error)
	Purchase(ctx context.Context, id string) (*upstream.Response, error)
	Invalidate(id string)
}

type CacheStats interface {
	Len() int
	Cap() int
}

// Frontend is the client-facing surface. Upstream replies pass through
// verbatim; a replica that cannot be reached is 502.
type Frontend struct {
	router FrontRouter
	cache  CacheStats
	logger *zap.Logger
	mux    *chi.Mux
}

func NewFrontend(router FrontRouter, cache CacheStats, logger *zap.Logger, metrics observability.Metrics) *Frontend {
	f := &Frontend{
		router: router,
		cache:  cache,
		logger: logger,
		mux:    newRouter(logger, metrics),
	}
	f.routes()
	return f
}

func (f *Frontend) routes() {
	f.mux.Get("/search", missing("Topic missing: /search/{topic}"))
	f.mux.Get("/search/", missing("Topic missing: /search/{topic}"))
	f.mux.Get("/search/{topic}", f.search)

	f.mux.Get("/info", missing("Item id missing: /info/{id}"))
	f.mux.Get("/info/", missing("Item id missing: /info/{id}"))
	f.mux.Get("/info/{id}", f.info)

	f.mux.Get("/purchase", missing("Item id missing: /purchase/{id}"))
	f.mux.Get("/purchase/", missing("Item id missing: /purchase/{id}"))
	f.mux.Get("/purchase/{id}", f.purchase)

	f.mux.Post("/invalidate", missing("Item id missing: /invalidate/{id}"))
	f.mux.Post("/invalidate/", missing("Item id missing: /invalidate/{id}"))
	f.mux.Post("/invalidate/{id}", f.invalidate)

	f.mux.Get("/cache/stats", f.cacheStats)
}

func (f *Frontend) Handler() http.Handler { return f.mux }

func (f *Frontend) search(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(pathParam(r, "topic"))
	if topic == "" {
		writeError(w, http.StatusBadRequest, "Topic missing: /search/{topic}")
		return
	}
	resp, err := f.router.Search(r.Context(), topic)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeUpstream(w, resp)
}

func (f *Frontend) info(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Item id missing: /info/{id}")
		return
	}
	resp, st, err := f.router.InfoWithStats(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	observability.SetLookupHeaders(w, string(st.Source), st.Replica, st.CacheMs, st.UpstreamMs)
	writeUpstream(w, resp)
}

func (f *Frontend) purchase(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Item id missing: /purchase/{id}")
		return
	}
	resp, err := f.router.Purchase(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if resp.Addr != "" {
		w.Header().Set(observability.HeaderReplica, resp.Addr)
	}
	writeUpstream(w, resp)
}

func (f *Frontend) invalidate(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Item id missing: /invalidate/{id}")
		return
	}
	f.router.Invalidate(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated", "id": id})
}

func (f *Frontend) cacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"size": f.cache.Len(), "capacity": f.cache.Cap()})
}
