package live

import (
	"log/slog"
	"sync"
)

// Scope addresses a set of live channels: a whole edition, or one counter
// within it. CounterID 0 means edition-wide.
type Scope struct {
	EditionID int64
	CounterID int64
}

func EditionScope(editionID int64) Scope {
	return Scope{EditionID: editionID}
}

func CounterScope(editionID, counterID int64) Scope {
	return Scope{EditionID: editionID, CounterID: counterID}
}

// SessionPusher pairs a registered session id with its push handle, as
// returned by ChannelsFor snapshots.
type SessionPusher struct {
	SessionID string
	Pusher    Pusher
}

// Registry owns the scope→session→pusher index. It is the only shared
// mutable structure of the live engine; all mutation goes through
// Register/Unregister/UnregisterAll, which are safe to call concurrently
// from independent request-handling goroutines.
//
// Absent keys are tolerated everywhere: unregistration races with transport
// close are expected, not exceptional.
type Registry struct {
	mu     sync.RWMutex
	scopes map[Scope]map[string]Pusher
}

func NewRegistry() *Registry {
	return &Registry{scopes: make(map[Scope]map[string]Pusher)}
}

// Register adds a channel under scope. A second registration with the same
// session id is treated as a reconnect: the previous handle is closed and
// replaced (last-writer-wins).
func (r *Registry) Register(scope Scope, sessionID string, p Pusher) {
	r.mu.Lock()
	sessions := r.scopes[scope]
	if sessions == nil {
		sessions = make(map[string]Pusher)
		r.scopes[scope] = sessions
	}
	if old, ok := sessions[sessionID]; ok {
		old.Close()
		slog.Debug("live: duplicate session registration, replacing",
			"edition_id", scope.EditionID, "counter_id", scope.CounterID, "session_id", sessionID)
	}
	sessions[sessionID] = p
	r.mu.Unlock()
}

// Unregister removes and closes one channel. Returns false when the session
// was not registered; duplicate and late unregisters are silent no-ops.
func (r *Registry) Unregister(scope Scope, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions, ok := r.scopes[scope]
	if !ok {
		return false
	}
	p, ok := sessions[sessionID]
	if !ok {
		return false
	}
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(r.scopes, scope)
	}
	p.Close()
	return true
}

// UnregisterAll closes and removes every channel under scope. Used when the
// owning counter is deleted.
func (r *Registry) UnregisterAll(scope Scope) {
	r.mu.Lock()
	sessions := r.scopes[scope]
	delete(r.scopes, scope)
	r.mu.Unlock()
	for _, p := range sessions {
		p.Close()
	}
}

// ChannelsFor returns a snapshot of the channels registered for scope.
// The copy keeps dispatch iteration safe against concurrent
// register/unregister.
func (r *Registry) ChannelsFor(scope Scope) []SessionPusher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := r.scopes[scope]
	if len(sessions) == 0 {
		return nil
	}
	out := make([]SessionPusher, 0, len(sessions))
	for id, p := range sessions {
		out = append(out, SessionPusher{SessionID: id, Pusher: p})
	}
	return out
}

// SessionCount returns the number of live channels under scope.
func (r *Registry) SessionCount(scope Scope) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scopes[scope])
}
