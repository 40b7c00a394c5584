package live

import "testing"

func TestOpenGeneratesSessionID(t *testing.T) {
	r := NewRegistry()
	s := NewSessions(r)
	scope := CounterScope(1, 1)
	p := &recordPusher{}

	sessionID := s.Open(scope, "", p)
	if sessionID == "" {
		t.Fatalf("Open() returned empty session id")
	}
	if got := r.SessionCount(scope); got != 1 {
		t.Fatalf("SessionCount() = %d, want 1", got)
	}

	events := p.recorded()
	if len(events) != 1 || events[0].Type != "connected" {
		t.Fatalf("first event = %+v, want connected", events)
	}
	if events[0].SessionID != sessionID {
		t.Fatalf("connected event session id = %q, want %q", events[0].SessionID, sessionID)
	}
	if events[0].EditionID != 1 || events[0].CounterID != 1 {
		t.Fatalf("connected event scope = %+v", events[0])
	}
}

func TestOpenKeepsCallerSuppliedSessionID(t *testing.T) {
	r := NewRegistry()
	s := NewSessions(r)
	scope := EditionScope(2)

	sessionID := s.Open(scope, "door-station-3", &recordPusher{})
	if sessionID != "door-station-3" {
		t.Fatalf("Open() = %q, want caller-supplied id", sessionID)
	}
}

func TestOpenWithSameIDIsReconnect(t *testing.T) {
	r := NewRegistry()
	s := NewSessions(r)
	scope := CounterScope(1, 1)
	first := &recordPusher{}
	second := &recordPusher{}

	s.Open(scope, "door-1", first)
	s.Open(scope, "door-1", second)

	if !first.isClosed() {
		t.Fatalf("first channel not closed on reconnect")
	}
	if got := r.SessionCount(scope); got != 1 {
		t.Fatalf("SessionCount() = %d, want 1", got)
	}
}

func TestOpenCleansUpWhenTransportDiesImmediately(t *testing.T) {
	r := NewRegistry()
	s := NewSessions(r)
	scope := CounterScope(1, 1)

	s.Open(scope, "flaky", &recordPusher{dead: true})
	if got := r.SessionCount(scope); got != 0 {
		t.Fatalf("SessionCount() = %d, want 0 after failed connected push", got)
	}
}

func TestDisconnect(t *testing.T) {
	r := NewRegistry()
	s := NewSessions(r)
	scope := CounterScope(7, 3)
	p := &recordPusher{}

	sessionID := s.Open(scope, "", p)
	if !s.Disconnect(scope, sessionID) {
		t.Fatalf("Disconnect() = false for a live session")
	}
	if !p.isClosed() {
		t.Fatalf("Disconnect() did not close the channel")
	}
	if s.Disconnect(scope, sessionID) {
		t.Fatalf("second Disconnect() = true, want false")
	}
}

func TestDisconnectUnknownSession(t *testing.T) {
	s := NewSessions(NewRegistry())
	if s.Disconnect(EditionScope(1), "no-such-session") {
		t.Fatalf("Disconnect() on unknown session = true, want false")
	}
}

func TestClosedIsTolerantOfLateCalls(t *testing.T) {
	r := NewRegistry()
	s := NewSessions(r)
	scope := EditionScope(4)

	sessionID := s.Open(scope, "", &recordPusher{})
	s.Closed(scope, sessionID)
	// Transport close racing an operator disconnect: second call is a no-op.
	s.Closed(scope, sessionID)
}
