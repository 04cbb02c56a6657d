package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/database"
	"github.com/TemirB/bazar/internal/domain"
	"github.com/TemirB/bazar/internal/observability"
)

type Coordinator interface {
	Place(ctx context.Context, id string) (domain.OrderResult, error)
	Recent(ctx context.Context, limit int) ([]domain.OrderResult, error)
}

type Order struct {
	coordinator Coordinator
	logger      *zap.Logger
	router      *chi.Mux
}

func NewOrder(coordinator Coordinator, logger *zap.Logger, metrics observability.Metrics) *Order {
	o := &Order{
		coordinator: coordinator,
		logger:      logger,
		router:      newRouter(logger, metrics),
	}
	o.router.Get("/order", o.order)
	o.router.Get("/orders/recent", o.recent)
	return o
}

func (o *Order) Handler() http.Handler { return o.router }

// order answers with the order result. Terminal failures carry their status
// and an "error" field; an unreachable catalog is 502.
func (o *Order) order(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing product ID: /order?id=1")
		return
	}

	res, err := o.coordinator.Place(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		if res.Status == "" {
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, status, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (o *Order) recent(w http.ResponseWriter, r *http.Request) {
	limit := database.DefaultRecent
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = database.ClampLimit(n)
	}

	rows, err := o.coordinator.Recent(r.Context(), limit)
	if err != nil {
		o.logger.Error("Order ledger read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ledger unavailable")
		return
	}
	if rows == nil {
		rows = []domain.OrderResult{}
	}
	writeJSON(w, http.StatusOK, rows)
}
