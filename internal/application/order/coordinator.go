package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TemirB/bazar/internal/domain"
	"github.com/TemirB/bazar/internal/observability"
	"github.com/TemirB/bazar/internal/selector"
	"github.com/TemirB/bazar/internal/upstream"
)

//go:generate mockgen -source internal/application/order/coordinator.go -destination=internal/application/order/coordinator_mock_test.go -package=order

const (
	msgSuccess      = "Book purchased successfully"
	msgNotFound     = "Item not found in catalog!"
	msgOutOfStock   = "Item is OUT OF STOCK"
	msgUpdateFailed = "Failed to update stock!"
)

type Selector interface {
	Next(role selector.Role) (string, error)
}

type Upstream interface {
	Get(ctx context.Context, base, path string) (*upstream.Response, error)
	Post(ctx context.Context, base, path string, header http.Header) (*upstream.Response, error)
}

// Coordinator runs the purchase workflow: fetch, check, decrement, confirm.
// The read and the write go to the same catalog replica. Unless atomic is
// set, two concurrent orders may both pass the check on the last unit.
type Coordinator struct {
	selector Selector
	client   Upstream
	ledger   domain.OrderLedger
	atomic   bool
	logger   *zap.Logger
	metrics  observability.Metrics

	newID func() string
	now   func() time.Time
}

func NewCoordinator(sel Selector, client Upstream, ledger domain.OrderLedger, atomic bool, logger *zap.Logger, metrics observability.Metrics) *Coordinator {
	return &Coordinator{
		selector: sel,
		client:   client,
		ledger:   ledger,
		atomic:   atomic,
		logger:   logger,
		metrics:  metrics,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Place runs one order to a terminal state. The returned error is nil on
// success and otherwise wraps domain.ErrNotFound, domain.ErrOutOfStock,
// domain.ErrUpdateFailed or domain.ErrUpstreamUnavailable.
func (c *Coordinator) Place(ctx context.Context, id string) (domain.OrderResult, error) {
	start := time.Now()
	res := domain.OrderResult{
		OrderID: c.newID(),
		ItemID:  id,
		At:      c.now().UTC(),
	}

	var err error
	if c.atomic {
		err = c.placeAtomic(ctx, &res)
	} else {
		err = c.placeCheckThenWrite(ctx, &res)
	}

	outcome := string(res.Status)
	if outcome == "" {
		outcome = "upstream_unavailable"
	}
	c.metrics.ObserveOrder(outcome, float64(time.Since(start).Microseconds())/1000.0)

	if res.Status != "" {
		c.record(ctx, res)
	}

	if err != nil {
		c.logger.Warn("Order rejected",
			zap.String("order_id", res.OrderID),
			zap.String("id", id),
			zap.String("status", outcome),
			zap.String("replica", res.Replica),
			zap.Error(err),
		)
		return res, err
	}

	c.logger.Info("Order placed",
		zap.String("order_id", res.OrderID),
		zap.String("id", id),
		zap.String("replica", res.Replica),
		zap.Int("quantity_before", res.Quantity),
	)
	return res, nil
}

func (c *Coordinator) placeCheckThenWrite(ctx context.Context, res *domain.OrderResult) error {
	addr, err := c.selector.Next(selector.Catalog)
	if err != nil {
		res.Error = err.Error()
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	res.Replica = addr

	// 1. Fetch
	item, err := c.fetch(ctx, addr, res.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			res.Status = domain.OrderNotFound
			res.Error = msgNotFound
		} else {
			res.Error = err.Error()
		}
		return err
	}
	res.Title = item.Title
	res.Price = item.Price
	res.Quantity = item.Quantity

	// 2. Check
	if item.Quantity <= 0 {
		res.Status = domain.OrderOutOfStock
		res.Error = msgOutOfStock
		return fmt.Errorf("%w: %s", domain.ErrOutOfStock, res.ItemID)
	}

	// 3. Decrement on the replica that served the read
	path := "/update/" + url.PathEscape(res.ItemID) + "?quantity=" + strconv.Itoa(item.Quantity-1)
	resp, err := c.client.Post(ctx, addr, path, nil)
	if err != nil || !resp.OK() {
		res.Status = domain.OrderUpdateFailed
		res.Error = msgUpdateFailed
		if err == nil {
			err = fmt.Errorf("%s answered %d", addr, resp.Status)
		}
		return fmt.Errorf("%w: %v", domain.ErrUpdateFailed, err)
	}

	// 4. Confirm
	res.Status = domain.OrderSuccess
	res.Message = msgSuccess
	return nil
}

// placeAtomic lets the catalog check and decrement under its own lock.
func (c *Coordinator) placeAtomic(ctx context.Context, res *domain.OrderResult) error {
	addr, err := c.selector.Next(selector.Catalog)
	if err != nil {
		res.Error = err.Error()
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	res.Replica = addr

	resp, err := c.client.Post(ctx, addr, "/decrement/"+url.PathEscape(res.ItemID), nil)
	if err != nil {
		res.Error = err.Error()
		return err
	}

	switch resp.Status {
	case http.StatusOK:
		var d domain.Decrement
		if err := json.Unmarshal(resp.Body, &d); err != nil {
			res.Status = domain.OrderUpdateFailed
			res.Error = msgUpdateFailed
			return fmt.Errorf("%w: decode decrement: %v", domain.ErrUpdateFailed, err)
		}
		res.Title = d.Title
		res.Price = d.Price
		res.Quantity = d.Before
		res.Status = domain.OrderSuccess
		res.Message = msgSuccess
		return nil
	case http.StatusNotFound:
		res.Status = domain.OrderNotFound
		res.Error = msgNotFound
		return fmt.Errorf("%w: %s", domain.ErrNotFound, res.ItemID)
	case http.StatusBadRequest:
		res.Status = domain.OrderOutOfStock
		res.Error = msgOutOfStock
		return fmt.Errorf("%w: %s", domain.ErrOutOfStock, res.ItemID)
	default:
		res.Status = domain.OrderUpdateFailed
		res.Error = msgUpdateFailed
		return fmt.Errorf("%w: %s answered %d", domain.ErrUpdateFailed, addr, resp.Status)
	}
}

func (c *Coordinator) fetch(ctx context.Context, addr, id string) (domain.Item, error) {
	var item domain.Item

	resp, err := c.client.Get(ctx, addr, "/info/"+url.PathEscape(id))
	if err != nil {
		return item, err
	}
	switch resp.Status {
	case http.StatusOK:
	case http.StatusNotFound:
		return item, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	default:
		return item, fmt.Errorf("%w: %s answered %d", domain.ErrUpstreamUnavailable, addr, resp.Status)
	}

	if err := json.Unmarshal(resp.Body, &item); err != nil {
		return item, fmt.Errorf("%w: decode item %s: %v", domain.ErrUpstreamUnavailable, id, err)
	}
	return item, nil
}

func (c *Coordinator) record(ctx context.Context, res domain.OrderResult) {
	if c.ledger == nil {
		return
	}
	if err := c.ledger.Record(context.WithoutCancel(ctx), res); err != nil {
		c.logger.Error("Order ledger write failed",
			zap.String("order_id", res.OrderID),
			zap.String("status", string(res.Status)),
			zap.Error(err),
		)
	}
}

// Recent lists the last ledger entries, newest first. Without a ledger the
// list is empty.
func (c *Coordinator) Recent(ctx context.Context, limit int) ([]domain.OrderResult, error) {
	if c.ledger == nil {
		return []domain.OrderResult{}, nil
	}
	return c.ledger.Recent(ctx, limit)
}
