package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRegisterAndLookup(t *testing.T) {
	d := New()
	d.Register("tok1", "ROOM1", "p1")

	s, ok := d.Lookup("tok1")
	if !ok {
		t.Fatal("expected lookup to find session")
	}
	if s.RoomCode != "ROOM1" || s.PlayerID != "p1" {
		t.Errorf("unexpected session: %+v", s)
	}

	if _, ok := d.Lookup("missing"); ok {
		t.Error("expected lookup for unknown token to fail")
	}
}

func TestRemove(t *testing.T) {
	d := New()
	d.Register("tok1", "ROOM1", "p1")
	d.Remove("tok1")
	if _, ok := d.Lookup("tok1"); ok {
		t.Error("expected token to be removed")
	}
}

func TestRemoveAllForPlayer(t *testing.T) {
	d := New()
	d.Register("tok1", "ROOM1", "p1")
	d.Register("tok2", "ROOM1", "p1")
	d.Register("tok3", "ROOM1", "p2")

	d.RemoveAllForPlayer("p1")

	if _, ok := d.Lookup("tok1"); ok {
		t.Error("expected tok1 removed")
	}
	if _, ok := d.Lookup("tok2"); ok {
		t.Error("expected tok2 removed")
	}
	if _, ok := d.Lookup("tok3"); !ok {
		t.Error("expected tok3 (different player) to remain")
	}
}

func TestReconnectTimerExpiry(t *testing.T) {
	d := New()
	var expired int32
	d.ArmReconnectTimer("p1", 20*time.Millisecond, func() {
		atomic.StoreInt32(&expired, 1)
	})

	if !d.HasPendingReconnect("p1") {
		t.Fatal("expected pending reconnect to be armed")
	}

	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&expired) != 1 {
		t.Error("expected reconnect timer to expire and fire callback")
	}
	if d.HasPendingReconnect("p1") {
		t.Error("expected pending reconnect to be cleared after expiry")
	}
}

func TestCancelReconnectTimer(t *testing.T) {
	d := New()
	var expired int32
	d.ArmReconnectTimer("p1", 20*time.Millisecond, func() {
		atomic.StoreInt32(&expired, 1)
	})
	d.CancelReconnectTimer("p1")

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&expired) != 0 {
		t.Error("expected cancelled timer to not fire")
	}
}

func TestReArmCancelsPrevious(t *testing.T) {
	d := New()
	var firstFired, secondFired int32
	d.ArmReconnectTimer("p1", 15*time.Millisecond, func() {
		atomic.StoreInt32(&firstFired, 1)
	})
	d.ArmReconnectTimer("p1", 30*time.Millisecond, func() {
		atomic.StoreInt32(&secondFired, 1)
	})

	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&firstFired) != 0 {
		t.Error("expected first reconnect timer to be superseded")
	}
	if atomic.LoadInt32(&secondFired) != 1 {
		t.Error("expected second reconnect timer to fire")
	}
}
