// Package events publishes order lifecycle events to the broker. Publishing is
// best effort: callers log failures and carry on.
package events

import (
	"context"
	"sync"
	"time"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// Event is the JSON payload written to the orders topic, keyed by OrderID.
type Event struct {
	Type         string    `json:"type"`
	OrderID      string    `json:"orderId"`
	UserID       string    `json:"userId,omitempty"`
	Status       string    `json:"status"`
	StockUpdated bool      `json:"stockUpdated,omitempty"`
	Total        float64   `json:"total,omitempty"`
	At           time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// Nop drops every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close()                               {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() {}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
