package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/doorstaff/gatecount/internal/auth"
	"github.com/doorstaff/gatecount/internal/live"
)

// registerLiveHandlers adds the remote-disconnect operation. The streaming
// endpoints themselves are raw chi routes (see server.go).
func (s *Server) registerLiveHandlers(api huma.API) {
	type disconnectInput struct {
		EditionID int64  `path:"edition_id"`
		SessionID string `path:"session_id"`
		CounterID int64  `query:"counter_id" doc:"Counter scope of the session (omit for edition-wide sessions)"`
		StaffKey  string `header:"X-Staff-Key"`
	}
	type disconnectOutput struct {
		Body struct {
			SessionID    string `json:"sessionId"`
			Disconnected bool   `json:"disconnected"`
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "disconnect-live-session",
		Method:      http.MethodDelete,
		Path:        "/api/v1/editions/{edition_id}/live/{session_id}",
		Summary:     "Force-close a device's live channel",
		Tags:        []string{"Live"},
	}, func(ctx context.Context, input *disconnectInput) (*disconnectOutput, error) {
		if err := s.authorizeStaff(input.EditionID, input.StaffKey); err != nil {
			return nil, err
		}
		scope := live.EditionScope(input.EditionID)
		if input.CounterID != 0 {
			scope = live.CounterScope(input.EditionID, input.CounterID)
		}
		if !s.sessions.Disconnect(scope, input.SessionID) {
			return nil, huma.Error404NotFound("no live channel for that session")
		}
		out := &disconnectOutput{}
		out.Body.SessionID = input.SessionID
		out.Body.Disconnected = true
		return out, nil
	})
}

// resolveEditionScope authenticates a staff live request and resolves its
// scope: edition-wide by default, one counter when counter_id is given.
// EventSource cannot set headers, so the staff key may also arrive as a
// query parameter.
func (s *Server) resolveEditionScope(w http.ResponseWriter, r *http.Request) (live.Scope, bool) {
	editionID, err := strconv.ParseInt(chi.URLParam(r, "edition_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid edition id", http.StatusBadRequest)
		return live.Scope{}, false
	}
	key := r.Header.Get("X-Staff-Key")
	if key == "" {
		key = r.URL.Query().Get("staff_key")
	}
	if key == "" {
		http.Error(w, "staff key required", http.StatusUnauthorized)
		return live.Scope{}, false
	}
	if err := auth.ValidateStaffKey(editionID, key, s.staffSalt); err != nil {
		http.Error(w, "staff key not valid for this edition", http.StatusForbidden)
		return live.Scope{}, false
	}

	scope := live.EditionScope(editionID)
	if q := r.URL.Query().Get("counter_id"); q != "" {
		counterID, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			http.Error(w, "invalid counter id", http.StatusBadRequest)
			return live.Scope{}, false
		}
		if _, err := s.store.Get(r.Context(), editionID, counterID); err != nil {
			http.Error(w, "counter not found", http.StatusNotFound)
			return live.Scope{}, false
		}
		scope = live.CounterScope(editionID, counterID)
	}
	return scope, true
}

func (s *Server) handleEditionLive(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.resolveEditionScope(w, r)
	if !ok {
		return
	}
	s.serveSSE(w, r, scope)
}

// handleTokenLive opens a live channel via the shared-link token; the scope
// is always the token's counter.
func (s *Server) handleTokenLive(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		http.Error(w, "unknown token", http.StatusNotFound)
		return
	}
	s.serveSSE(w, r, live.CounterScope(c.EditionID, c.ID))
}

// serveSSE streams live events until the client goes away or an operator
// disconnects the session. Receive-only: the client never writes.
func (s *Server) serveSSE(w http.ResponseWriter, r *http.Request, scope live.Scope) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	pusher := live.NewStreamPusher()
	sessionID := s.sessions.Open(scope, r.URL.Query().Get("session_id"), pusher)
	defer s.sessions.Closed(scope, sessionID)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-pusher.Done():
			return
		case evt := <-pusher.Events():
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// handleEditionLiveWS serves the same protocol over a WebSocket. The
// registry only ever sees the Pusher capability, so the transport swap is
// invisible to it.
func (s *Server) handleEditionLiveWS(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.resolveEditionScope(w, r)
	if !ok {
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Debug("live: websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	pusher := live.NewStreamPusher()
	sessionID := s.sessions.Open(scope, r.URL.Query().Get("session_id"), pusher)

	// Drain client frames so control frames are handled; any read error
	// means the transport is gone.
	go func() {
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				s.sessions.Closed(scope, sessionID)
				conn.Close()
				return
			}
		}
	}()

	for {
		select {
		case <-pusher.Done():
			conn.Close()
			return
		case evt := <-pusher.Events():
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if err := wsutil.WriteServerMessage(conn, ws.OpText, payload); err != nil {
				s.sessions.Closed(scope, sessionID)
				conn.Close()
				return
			}
		}
	}
}
