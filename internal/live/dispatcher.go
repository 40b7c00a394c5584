package live

import (
	"log/slog"

	"github.com/doorstaff/gatecount/internal/counter"
)

// Dispatcher fans a committed counter state out to every channel registered
// for the counter's scope and for its parent edition-wide scope.
//
// Broadcast must only be called with a row returned by a successful store
// commit; it is invoked synchronously after each commit so that per-counter
// delivery order matches commit order. Per-channel pushes are non-blocking,
// so fan-out never gates the mutator's response.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Broadcast delivers the post-mutation state of c. A push failure means the
// transport is already gone; it is handled as an implicit unregister and
// never surfaces to the caller.
func (d *Dispatcher) Broadcast(c counter.Counter) {
	evt := UpdatedEvent(c)
	d.deliver(CounterScope(c.EditionID, c.ID), evt)
	d.deliver(EditionScope(c.EditionID), evt)
}

func (d *Dispatcher) deliver(scope Scope, evt Event) {
	for _, sp := range d.registry.ChannelsFor(scope) {
		if err := sp.Pusher.Push(evt); err != nil {
			d.registry.Unregister(scope, sp.SessionID)
			slog.Debug("live: push to dead channel, unregistered",
				"edition_id", scope.EditionID, "counter_id", scope.CounterID,
				"session_id", sp.SessionID)
		}
	}
}

// UpdatedEvent builds the broadcast payload from a committed counter row.
func UpdatedEvent(c counter.Counter) Event {
	v := c.Value
	return Event{
		Type:      "updated",
		EditionID: c.EditionID,
		CounterID: c.ID,
		Value:     &v,
		UpdatedAt: c.UpdatedAt,
	}
}

// ConnectedEvent is sent once when a channel opens, carrying the resolved
// session id so the client can later request a disconnect by id.
func ConnectedEvent(scope Scope, sessionID string) Event {
	return Event{
		Type:      "connected",
		EditionID: scope.EditionID,
		CounterID: scope.CounterID,
		SessionID: sessionID,
	}
}
