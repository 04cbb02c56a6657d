package domain

import "time"

type OrderStatus string

const (
	OrderSuccess      OrderStatus = "success"
	OrderOutOfStock   OrderStatus = "out_of_stock"
	OrderNotFound     OrderStatus = "not_found"
	OrderUpdateFailed OrderStatus = "update_failed"
)

// OrderResult is the terminal state of one purchase. Title, Price and Quantity
// are the snapshot read before the decrement.
type OrderResult struct {
	OrderID  string      `json:"order_id"`
	ItemID   string      `json:"id"`
	Status   OrderStatus `json:"status"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
	Title    string      `json:"title,omitempty"`
	Price    float64     `json:"price,omitempty"`
	Quantity int         `json:"quantity"`
	Replica  string      `json:"replica,omitempty"`
	At       time.Time   `json:"at"`
}
