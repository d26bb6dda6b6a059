package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-bookstore-ws/internal/ws"
)

const (
	TypeInvoice = "invoice_update"
	TypeStock   = "stock_update"
	TypeLedger  = "ledger_update"
	TypeUser    = "user_status_update"
)

// Actor is who caused the change, shown in the live feed.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event is one committed change pushed to clients and downstream consumers.
type Event struct {
	Type    string    `json:"type"`
	Action  string    `json:"action"`
	Data    any       `json:"data"`
	User    *Actor    `json:"user,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Publisher is called only after the write committed.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func encode(ev Event) ([]byte, error) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	return json.Marshal(ev)
}

// HubPublisher pushes events straight to the websocket clients of this instance.
type HubPublisher struct {
	hub *ws.Hub
}

func NewHubPublisher(hub *ws.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(ctx context.Context, ev Event) error {
	msg, err := encode(ev)
	if err != nil {
		return err
	}
	select {
	case p.hub.Broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Multi fans one event out to several publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
