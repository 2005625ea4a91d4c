// Package session holds the process-global map from opaque session tokens
// to (room code, player id), plus the pending-reconnect timers for players
// whose transport has dropped but who have not yet been removed from their
// room.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/giorgishonia/kalakobana/internal/timerutil"
)

// Session records which room and player a token currently resolves to.
type Session struct {
	Token    string
	RoomCode string
	PlayerID string
}

// Directory maps session tokens to (room, player) and tracks one
// cancellable reconnect-grace timer per pending-disconnected player.
type Directory struct {
	mu      sync.Mutex
	byToken map[string]Session
	pending map[string]*timerutil.Timer // playerID -> reconnect timer
}

// New creates an empty SessionDirectory.
func New() *Directory {
	return &Directory{
		byToken: make(map[string]Session),
		pending: make(map[string]*timerutil.Timer),
	}
}

// NewToken generates an opaque session token for a newly joined player.
func NewToken() string {
	return uuid.NewString()
}

// NewPlayerID generates an opaque, stable player identifier.
func NewPlayerID() string {
	return uuid.NewString()
}

// Register records that token resolves to (roomCode, playerID). A token
// must be the sole key mapping to its player; callers are expected to have
// already evicted any stale prior token for the player.
func (d *Directory) Register(token, roomCode, playerID string) {
	if token == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byToken[token] = Session{Token: token, RoomCode: roomCode, PlayerID: playerID}
}

// Lookup resolves a token to its session, if any.
func (d *Directory) Lookup(token string) (Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.byToken[token]
	return s, ok
}

// Remove evicts a token's mapping, e.g. on room:leave or player:kick.
func (d *Directory) Remove(token string) {
	if token == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byToken, token)
}

// RemoveAllForPlayer evicts every token mapping to playerID. If two tokens
// ever raced to map the same player, this restores the one-token-per-player
// property.
func (d *Directory) RemoveAllForPlayer(playerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for tok, s := range d.byToken {
		if s.PlayerID == playerID {
			delete(d.byToken, tok)
		}
	}
}

// ArmReconnectTimer starts (or replaces) the reconnect-grace timer for a
// disconnected player. Replacing a timer cancels the prior one, so rapid
// disconnect/reconnect cycles hold at most one pending removal.
func (d *Directory) ArmReconnectTimer(playerID string, grace time.Duration, onExpire func()) {
	d.mu.Lock()
	t, ok := d.pending[playerID]
	if !ok {
		t = &timerutil.Timer{}
		d.pending[playerID] = t
	}
	d.mu.Unlock()

	t.Schedule(grace, func() {
		d.mu.Lock()
		delete(d.pending, playerID)
		d.mu.Unlock()
		onExpire()
	})
}

// CancelReconnectTimer cancels playerID's pending-reconnect timer, if any,
// and reports whether one was pending. Called on session:restore,
// room:leave, and player:kick.
func (d *Directory) CancelReconnectTimer(playerID string) bool {
	d.mu.Lock()
	t, ok := d.pending[playerID]
	if ok {
		delete(d.pending, playerID)
	}
	d.mu.Unlock()
	if ok {
		t.Stop()
	}
	return ok
}

// HasPendingReconnect reports whether playerID currently has an armed
// reconnect-grace timer.
func (d *Directory) HasPendingReconnect(playerID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.pending[playerID]
	return ok && t.Armed()
}
