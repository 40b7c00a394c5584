package live

import (
	"testing"
	"time"

	"github.com/doorstaff/gatecount/internal/counter"
)

func committed(editionID, id, value int64) counter.Counter {
	return counter.Counter{
		ID:        id,
		EditionID: editionID,
		Name:      "door",
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
}

func TestBroadcastReachesOnlyMatchingCounterScope(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	a := &recordPusher{}
	b := &recordPusher{}
	r.Register(CounterScope(1, 1), "dev-a", a)
	r.Register(CounterScope(1, 2), "dev-b", b)

	d.Broadcast(committed(1, 1, 3))

	got := a.recorded()
	if len(got) != 1 {
		t.Fatalf("channel A events = %d, want 1", len(got))
	}
	if got[0].Type != "updated" || got[0].CounterID != 1 {
		t.Fatalf("channel A event = %+v, want updated for counter 1", got[0])
	}
	if got[0].Value == nil || *got[0].Value != 3 {
		t.Fatalf("channel A value = %v, want 3", got[0].Value)
	}
	if evts := b.recorded(); len(evts) != 0 {
		t.Fatalf("channel B received %d events for an unrelated counter", len(evts))
	}
}

func TestEditionWideChannelSeesAllCounters(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	wide := &recordPusher{}
	other := &recordPusher{}
	r.Register(EditionScope(5), "dash", wide)
	r.Register(EditionScope(6), "other", other)

	d.Broadcast(committed(5, 10, 1))
	d.Broadcast(committed(5, 11, 7))

	got := wide.recorded()
	if len(got) != 2 {
		t.Fatalf("edition-wide events = %d, want 2", len(got))
	}
	if got[0].CounterID != 10 || got[1].CounterID != 11 {
		t.Fatalf("edition-wide events out of order or mis-scoped: %+v", got)
	}
	if evts := other.recorded(); len(evts) != 0 {
		t.Fatalf("other edition received %d events", len(evts))
	}
}

func TestBroadcastOrderMatchesCommitOrder(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	p := &recordPusher{}
	r.Register(CounterScope(1, 1), "dev", p)

	for v := int64(1); v <= 5; v++ {
		d.Broadcast(committed(1, 1, v))
	}

	got := p.recorded()
	if len(got) != 5 {
		t.Fatalf("events = %d, want 5", len(got))
	}
	for i, evt := range got {
		if *evt.Value != int64(i+1) {
			t.Fatalf("event %d value = %d, want %d", i, *evt.Value, i+1)
		}
	}
}

func TestDeadChannelIsImplicitlyUnregistered(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	scope := CounterScope(1, 1)
	dead := &recordPusher{dead: true}
	alive := &recordPusher{}
	r.Register(scope, "dead", dead)
	r.Register(scope, "alive", alive)

	d.Broadcast(committed(1, 1, 2))

	if got := r.SessionCount(scope); got != 1 {
		t.Fatalf("SessionCount() after dead push = %d, want 1", got)
	}
	if len(alive.recorded()) != 1 {
		t.Fatalf("healthy channel starved by dead sibling")
	}

	// Later broadcasts must not see the dead channel again.
	d.Broadcast(committed(1, 1, 3))
	if len(alive.recorded()) != 2 {
		t.Fatalf("healthy channel missed a broadcast")
	}
}

func TestBroadcastToEmptyScopeIsNoOp(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	scope := CounterScope(4, 4)
	r.Register(scope, "a", &recordPusher{})
	r.UnregisterAll(scope)

	// Must not panic and must not resurrect bookkeeping.
	d.Broadcast(committed(4, 4, 1))
	if got := r.SessionCount(scope); got != 0 {
		t.Fatalf("SessionCount() = %d, want 0", got)
	}
}

func TestUpdatedEventCarriesCommittedState(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c := counter.Counter{ID: 10, EditionID: 5, Value: 0, UpdatedAt: now}

	evt := UpdatedEvent(c)
	if evt.Type != "updated" || evt.CounterID != 10 || evt.EditionID != 5 {
		t.Fatalf("UpdatedEvent() = %+v", evt)
	}
	if evt.Value == nil || *evt.Value != 0 {
		t.Fatalf("zero value must still be carried explicitly, got %v", evt.Value)
	}
	if !evt.UpdatedAt.Equal(now) {
		t.Fatalf("UpdatedAt = %v, want %v", evt.UpdatedAt, now)
	}
}
