package session

import (
	"reflect"
	"testing"
	"time"
)

func TestToggleGroupIsIdempotent(t *testing.T) {
	t.Parallel()

	sess := &Session{ChatID: 1, State: StateJoinFlow}
	sess.ToggleGroup(10)
	sess.ToggleGroup(20)

	before := sess.GroupIDs()

	sess.ToggleGroup(30)
	sess.ToggleGroup(30)

	if got := sess.GroupIDs(); !reflect.DeepEqual(got, before) {
		t.Fatalf("double toggle changed the set: got %v want %v", got, before)
	}
	if !sess.HasGroupSelected(10) || !sess.HasGroupSelected(20) || sess.HasGroupSelected(30) {
		t.Fatalf("unexpected selection state: %v", sess.GroupIDs())
	}
}

func TestGroupIDsAreSorted(t *testing.T) {
	t.Parallel()

	sess := &Session{}
	for _, id := range []int64{42, 7, 19} {
		sess.ToggleGroup(id)
	}
	if got := sess.GroupIDs(); !reflect.DeepEqual(got, []int64{7, 19, 42}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestManagerBeginActiveClear(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Minute)

	if _, ok := m.Active(1); ok {
		t.Fatalf("expected no session before begin")
	}

	sess := m.Begin(1, 100)
	if sess.State != StateDefault {
		t.Fatalf("expected default state, got %s", sess.State)
	}

	got, ok := m.Active(1)
	if !ok || got.UserID != 100 {
		t.Fatalf("unexpected active session: %#v ok=%v", got, ok)
	}

	m.Clear(1)
	if _, ok := m.Active(1); ok {
		t.Fatalf("expected session cleared")
	}
}

func TestManagerEvictsIdleSessionOnRead(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Minute)
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }

	m.Begin(1, 100)
	now = now.Add(2 * time.Minute)

	if _, ok := m.Active(1); ok {
		t.Fatalf("expected idle session to be evicted on read")
	}
	if m.Len() != 0 {
		t.Fatalf("expected repository to be empty, got %d", m.Len())
	}
}

func TestManagerSweepDropsOnlyIdleSessions(t *testing.T) {
	t.Parallel()

	m := NewManager(time.Minute)
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }

	m.Begin(1, 100)
	now = now.Add(90 * time.Second)
	m.Begin(2, 200)

	m.sweep()

	if _, ok := m.Active(2); !ok {
		t.Fatalf("expected fresh session to survive sweep")
	}
	if m.Len() != 1 {
		t.Fatalf("expected single surviving session, got %d", m.Len())
	}
}
