package gateway

import (
	"sync"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/giorgishonia/kalakobana/internal/roomstate"
)

// chatBurst and chatRefillPerSecond size the per-sender chat limiter,
// distinct from the gateway's game-event token bucket (ratelimit.go) since
// chat traffic has a different shape.
const (
	chatBurst           = 5
	chatRefillPerSecond = 1
)

// ChatRelay fans a sender's chat message out to their room: a stateless,
// length-capped broadcast with no retained history.
type ChatRelay struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter // keyed by playerID
}

// NewChatRelay constructs an empty ChatRelay.
func NewChatRelay() *ChatRelay {
	return &ChatRelay{limiters: make(map[string]*rate.Limiter)}
}

// Relay truncates message to roomstate.ChatMessageCap runes, applies the
// sender's rate limit, and broadcasts chat:message to the room. Messages
// are never queued or retried: a rate-limited message is simply dropped,
// matching the relay's stateless framing.
func (cr *ChatRelay) Relay(room *roomstate.Room, senderID, message string) {
	if !cr.limiterFor(senderID).Allow() {
		return
	}
	message = truncateRunes(message, roomstate.ChatMessageCap)
	if message == "" {
		return
	}
	room.Broadcast(map[string]any{
		"type":     "chat:message",
		"playerId": senderID,
		"message":  message,
	})
}

func (cr *ChatRelay) limiterFor(playerID string) *rate.Limiter {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	l, ok := cr.limiters[playerID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(chatRefillPerSecond), chatBurst)
		cr.limiters[playerID] = l
	}
	return l
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
