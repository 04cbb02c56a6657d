package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/domain"
	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/replication"
)

const (
	msgItemNotFound = "Item not found"
	msgOutOfStock   = "Item is OUT OF STOCK"
)

type CatalogStore interface {
	Get(id string) (domain.Item, error)
	Search(topic string) []domain.SearchHit
	Update(id string, patch domain.ItemPatch) (domain.Item, error)
	Decrement(id string) (domain.Decrement, error)
}

// Catalog serves one catalog replica. Client updates are replicated to peers;
// updates that arrive from a peer are applied only.
type Catalog struct {
	store      CatalogStore
	replicator domain.Replicator
	replicaID  string
	logger     *zap.Logger
	metrics    observability.Metrics
	router     *chi.Mux
}

func NewCatalog(store CatalogStore, replicator domain.Replicator, replicaID string, logger *zap.Logger, metrics observability.Metrics) *Catalog {
	if replicator == nil {
		replicator = replication.Nop{}
	}
	c := &Catalog{
		store:      store,
		replicator: replicator,
		replicaID:  replicaID,
		logger:     logger,
		metrics:    metrics,
		router:     newRouter(logger, metrics),
	}
	c.routes()
	return c
}

func (c *Catalog) routes() {
	c.router.Get("/search", missing("Topic missing: /search/{topic}"))
	c.router.Get("/search/", missing("Topic missing: /search/{topic}"))
	c.router.Get("/search/{topic}", c.search)
	c.router.Get("/query/subject/{topic}", c.search)

	c.router.Get("/info", missing("Item id missing: /info/{id}"))
	c.router.Get("/info/", missing("Item id missing: /info/{id}"))
	c.router.Get("/info/{id}", c.info)
	c.router.Get("/query/{id}", c.info)

	c.router.Post("/update", missing("Item id missing: /update/{id}"))
	c.router.Post("/update/", missing("Item id missing: /update/{id}"))
	c.router.Post("/update/{id}", c.update)

	c.router.Post("/decrement/{id}", c.decrement)
}

func (c *Catalog) Handler() http.Handler { return c.router }

func (c *Catalog) search(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(pathParam(r, "topic"))
	if topic == "" {
		writeError(w, http.StatusBadRequest, "Topic missing: /search/{topic}")
		return
	}
	writeJSON(w, http.StatusOK, domain.SearchResult{Items: c.store.Search(topic)})
}

func (c *Catalog) info(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Item id missing: /info/{id}")
		return
	}
	item, err := c.store.Get(id)
	if err != nil {
		writeError(w, statusFor(err), msgItemNotFound)
		return
	}
	w.Header().Set(observability.HeaderReplica, c.replicaID)
	writeJSON(w, http.StatusOK, item)
}

func (c *Catalog) update(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Item id missing: /update/{id}")
		return
	}

	patch, err := parsePatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := c.store.Update(id, patch)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, msgItemNotFound)
		default:
			c.logger.Error("Update not persisted", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to save catalog")
		}
		return
	}

	from := r.Header.Get(replication.HeaderReplicatedFrom)
	c.logger.Info("Item updated",
		zap.String("id", id),
		zap.Int("quantity", item.Quantity),
		zap.Float64("price", item.Price),
		zap.String("replicated_from", from),
	)
	if from == "" && !patch.Empty() {
		c.replicate(r, item)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (c *Catalog) decrement(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	d, err := c.store.Decrement(id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, msgItemNotFound)
		case errors.Is(err, domain.ErrOutOfStock):
			writeError(w, http.StatusBadRequest, msgOutOfStock)
		default:
			c.logger.Error("Decrement not persisted", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to save catalog")
		}
		return
	}

	c.replicate(r, domain.Item{ID: d.ID, Price: d.Price, Quantity: d.After})
	writeJSON(w, http.StatusOK, d)
}

func (c *Catalog) replicate(r *http.Request, item domain.Item) {
	c.replicator.Replicate(r.Context(), domain.ItemUpdate{
		ID:       item.ID,
		Price:    item.Price,
		Quantity: item.Quantity,
		Origin:   c.replicaID,
		At:       time.Now().UTC(),
	})
}

// parsePatch reads the optional price and quantity query parameters. An empty
// value counts as absent.
func parsePatch(r *http.Request) (domain.ItemPatch, error) {
	var patch domain.ItemPatch
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("price")); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
			return patch, errors.New("invalid price: " + v)
		}
		if p < 0 {
			return patch, errors.New("price must not be negative")
		}
		patch.Price = &p
	}
	if v := strings.TrimSpace(q.Get("quantity")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return patch, errors.New("invalid quantity: " + v)
		}
		if n < 0 {
			return patch, errors.New("quantity must not be negative")
		}
		patch.Quantity = &n
	}
	return patch, nil
}
