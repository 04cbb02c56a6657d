package domain

import (
	"strings"
	"time"
)

// Item is one catalog record. A replica owns its own copy; two replicas may
// disagree on Quantity for the same ID.
type Item struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Topic    string  `json:"topic"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// MatchesTopic reports a case-insensitive exact topic match.
func (i Item) MatchesTopic(topic string) bool {
	return strings.EqualFold(i.Topic, topic)
}

type SearchHit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SearchResult struct {
	Items []SearchHit `json:"items"`
}

// ItemPatch carries the optional fields of an update request. Nil means "leave as is".
type ItemPatch struct {
	Price    *float64
	Quantity *int
}

func (p ItemPatch) Empty() bool {
	return p.Price == nil && p.Quantity == nil
}

// ItemUpdate is the replication payload: the full mutable state of an item
// after an update on its origin replica.
type ItemUpdate struct {
	ID       string    `json:"id"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	Origin   string    `json:"origin"`
	At       time.Time `json:"at"`
}

func (u ItemUpdate) Patch() ItemPatch {
	price, qty := u.Price, u.Quantity
	return ItemPatch{Price: &price, Quantity: &qty}
}

// Decrement is the outcome of an atomic conditional decrement.
type Decrement struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Before int     `json:"before"`
	After  int     `json:"after"`
}
