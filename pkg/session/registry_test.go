package session

import (
	"testing"
	"time"
)

func newTestRegistry(onEvict func(string)) *Registry {
	return NewRegistry(Config{
		PingPeriod: 100 * time.Millisecond,
		CheckWait:  50 * time.Millisecond,
	}, onEvict, nil)
}

func TestNewIDFormat(t *testing.T) {
	id := NewID()
	if len(id) != 8 {
		t.Errorf("NewID() length = %d, want 8", len(id))
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Errorf("NewID() = %q, contains non-hex rune %q", id, r)
		}
	}
}

func TestRegisterAndPing(t *testing.T) {
	r := newTestRegistry(nil)
	r.Register("abcd1234")

	if !r.Active("abcd1234") {
		t.Error("Active() = false after Register")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	r.Ping("abcd1234")
	if !r.Active("abcd1234") {
		t.Error("Active() = false after Ping")
	}
}

func TestPingUnknownSessionDoesNotRegister(t *testing.T) {
	r := newTestRegistry(nil)
	r.Ping("deadbeef")

	if r.Active("deadbeef") {
		t.Error("Ping registered an unknown session")
	}
}

func TestDeregisterNotifiesObserver(t *testing.T) {
	var evicted []string
	r := newTestRegistry(func(id string) { evicted = append(evicted, id) })
	r.Register("a1b2c3d4")
	r.Deregister("a1b2c3d4")

	if len(evicted) != 1 || evicted[0] != "a1b2c3d4" {
		t.Errorf("evicted = %v, want [a1b2c3d4]", evicted)
	}
	if r.Active("a1b2c3d4") {
		t.Error("session still active after Deregister")
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	var evicted []string
	r := newTestRegistry(func(id string) { evicted = append(evicted, id) })
	r.Register("idle0001")
	r.Register("live0001")

	// Backdate the idle session beyond ping period + grace window.
	r.mu.Lock()
	r.sessions["idle0001"] = time.Now().Add(-time.Second)
	r.mu.Unlock()

	r.sweep(time.Now())

	if r.Active("idle0001") {
		t.Error("idle session survived sweep")
	}
	if !r.Active("live0001") {
		t.Error("live session was evicted")
	}
	if len(evicted) != 1 || evicted[0] != "idle0001" {
		t.Errorf("evicted = %v, want [idle0001]", evicted)
	}
}

func TestSweepKeepsSessionWithinGrace(t *testing.T) {
	r := newTestRegistry(nil)
	r.Register("grace001")

	// Idle for ping period + 2*check wait: inside the k=3 grace window.
	r.mu.Lock()
	r.sessions["grace001"] = time.Now().Add(-200 * time.Millisecond)
	r.mu.Unlock()

	r.sweep(time.Now())

	if !r.Active("grace001") {
		t.Error("session inside grace window was evicted")
	}
}
