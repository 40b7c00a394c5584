package live

import (
	"log/slog"

	"github.com/google/uuid"
)

// Sessions manages channel lifecycle: one OPEN→CLOSED transition per
// channel, triggered either by transport close or by an explicit
// operator-driven disconnect.
type Sessions struct {
	registry *Registry
}

func NewSessions(registry *Registry) *Sessions {
	return &Sessions{registry: registry}
}

// Open binds a push handle to scope under sessionID, generating an id when
// the caller supplies none, and sends the initial "connected" event. The
// resolved id is returned so the transport can hand it to the client.
func (s *Sessions) Open(scope Scope, sessionID string, p Pusher) string {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.registry.Register(scope, sessionID, p)
	if err := p.Push(ConnectedEvent(scope, sessionID)); err != nil {
		// Transport died between open and first push; clean up immediately.
		s.registry.Unregister(scope, sessionID)
	}
	return sessionID
}

// Closed is the transport-close callback: the socket is gone, release the
// registry bookkeeping. Late or duplicate calls are no-ops.
func (s *Sessions) Closed(scope Scope, sessionID string) {
	if !s.registry.Unregister(scope, sessionID) {
		slog.Debug("live: late unregister", "edition_id", scope.EditionID,
			"counter_id", scope.CounterID, "session_id", sessionID)
	}
}

// Disconnect force-closes a specific channel from the server side. Returns
// whether a live channel was found; closing the pusher unblocks the
// transport write loop, which tears the connection down.
func (s *Sessions) Disconnect(scope Scope, sessionID string) bool {
	found := s.registry.Unregister(scope, sessionID)
	if found {
		slog.Info("live: session disconnected by operator",
			"edition_id", scope.EditionID, "counter_id", scope.CounterID,
			"session_id", sessionID)
	}
	return found
}
