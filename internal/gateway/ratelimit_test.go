package gateway

import (
	"testing"
	"time"
)

func TestTokenBucketBasicAllow(t *testing.T) {
	tb := newTokenBucket(10, 3)
	for i := 0; i < 3; i++ {
		if !tb.allow() {
			t.Fatalf("expected allow on request %d", i)
		}
	}
	if tb.allow() {
		t.Fatal("expected deny after burst exhausted")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := newTokenBucket(10, 3)
	for i := 0; i < 3; i++ {
		tb.allow()
	}
	time.Sleep(150 * time.Millisecond)
	if !tb.allow() {
		t.Fatal("expected allow after refill")
	}
}

func TestConnRateLimiterPerEventLimit(t *testing.T) {
	rl := newConnRateLimiter()
	for i := 0; i < 3; i++ {
		allowed, _ := rl.allow("answers:submit")
		if !allowed {
			t.Fatalf("expected allow on answers:submit %d", i)
		}
	}
	allowed, _ := rl.allow("answers:submit")
	if allowed {
		t.Fatal("expected deny on answers:submit after burst")
	}
}

func TestConnRateLimiterGlobalLimit(t *testing.T) {
	rl := newConnRateLimiter()
	denied := false
	// A distinct event type per call, so no per-event bucket runs dry and
	// only the global bucket (burst 20) can deny.
	for i := 0; i < 30; i++ {
		allowed, _ := rl.allow("custom:" + string(rune('a'+i)))
		if !allowed {
			denied = true
			break
		}
	}
	if !denied {
		t.Fatal("expected global rate limit to kick in")
	}
}

func TestConnRateLimiterDisconnectOnExcessiveViolations(t *testing.T) {
	rl := newConnRateLimiter()
	for i := 0; i < 3; i++ {
		rl.allow("answers:submit")
	}
	disconnected := false
	for i := 0; i < 100; i++ {
		_, shouldDisconnect := rl.allow("answers:submit")
		if shouldDisconnect {
			disconnected = true
			break
		}
	}
	if !disconnected {
		t.Fatal("expected disconnect after excessive violations")
	}
}

func TestConnRateLimiterUnknownType(t *testing.T) {
	rl := newConnRateLimiter()
	allowed1, _ := rl.allow("unknown:event")
	allowed2, _ := rl.allow("unknown:event")
	allowed3, _ := rl.allow("unknown:event")
	if !allowed1 || !allowed2 {
		t.Fatal("expected first 2 unknown-event messages to be allowed")
	}
	if allowed3 {
		t.Fatal("expected 3rd unknown-event message to be denied")
	}
}
