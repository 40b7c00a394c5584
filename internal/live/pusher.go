package live

import (
	"errors"
	"sync"
	"time"
)

const pusherBufSize = 256

// ErrPusherClosed is returned by Push once the channel's transport is gone.
var ErrPusherClosed = errors.New("live: pusher closed")

// Event is a single payload delivered to a live channel. Type is the
// discriminator: "connected" once on open, "updated" on every counter
// mutation broadcast to the channel's scope.
type Event struct {
	Type      string    `json:"type"`
	EditionID int64     `json:"editionId,omitempty"`
	CounterID int64     `json:"counterId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	Value     *int64    `json:"value,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Pusher is the capability handle the registry stores for each channel.
// It decouples the registry from the transport: SSE and WebSocket channels
// implement it identically, and tests can substitute an in-memory one.
type Pusher interface {
	// Push queues an event for delivery. It never blocks; it returns an
	// error only when the pusher has been closed.
	Push(Event) error
	// Close marks the channel dead. Safe to call more than once.
	Close()
}

// StreamPusher is the channel-backed Pusher used by both HTTP transports.
// Events are buffered; a consumer that falls more than pusherBufSize events
// behind has events dropped (delivery is best-effort, clients re-sync from
// the stored value on reconnect).
type StreamPusher struct {
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewStreamPusher() *StreamPusher {
	return &StreamPusher{
		events: make(chan Event, pusherBufSize),
		done:   make(chan struct{}),
	}
}

func (p *StreamPusher) Push(evt Event) error {
	select {
	case <-p.done:
		return ErrPusherClosed
	default:
	}
	select {
	case p.events <- evt:
	default:
		// Slow consumer: drop rather than block the dispatcher.
	}
	return nil
}

func (p *StreamPusher) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Events is drained by the transport write loop.
func (p *StreamPusher) Events() <-chan Event { return p.events }

// Done is closed when the pusher is closed, either by transport teardown or
// by a remote disconnect. The transport write loop must exit on it.
func (p *StreamPusher) Done() <-chan struct{} { return p.done }
