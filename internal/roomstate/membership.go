package roomstate

import "fmt"

// SettingsPatch carries the subset of RoomSettings a settings:update event
// may change; a nil field means "leave as is".
type SettingsPatch struct {
	Name       *string
	MinTime    *int
	MaxRounds  *int
	UseBonus   *bool
	Categories []string
	Private    *bool
}

// SetReady toggles a player's ready flag and reports room:update to the
// room. Valid from any connected member, any phase (the lobby gate on
// game:start is what actually enforces readiness).
func (r *Room) SetReady(playerID string, ready bool) error {
	r.mu.Lock()
	p, ok := r.Players[playerID]
	if !ok {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	p.IsReady = ready
	r.mu.Unlock()

	r.BroadcastRoomUpdate()
	return nil
}

// UpdateSettings merges a partial settings patch, host-only and
// lobby-only: the draw/category/time knobs are meaningless once a round has
// started.
func (r *Room) UpdateSettings(playerID string, patch SettingsPatch) error {
	r.mu.Lock()
	if playerID != r.HostPlayerID {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if r.Phase != PhaseLobby {
		r.mu.Unlock()
		return fmt.Errorf("%s", ErrMsgGameInProgress)
	}

	if patch.Name != nil {
		r.Settings.Name = *patch.Name
	}
	if patch.MinTime != nil {
		r.Settings.MinTime = *patch.MinTime
	}
	if patch.MaxRounds != nil {
		r.Settings.MaxRounds = *patch.MaxRounds
	}
	if patch.UseBonus != nil {
		r.Settings.UseBonus = *patch.UseBonus
	}
	if patch.Categories != nil {
		r.Settings.Categories = patch.Categories
	}
	if patch.Private != nil {
		r.Settings.Private = *patch.Private
	}
	r.mu.Unlock()

	r.BroadcastRoomUpdate()
	return nil
}

// Leave removes a player at their own request (room:leave), performing host
// succession the same way RemovePlayer does, and sends the resulting
// broadcasts itself: host:changed (if succession occurred) followed by
// room:update, then notifies OnEmpty if the room emptied. Returns the new
// host's id (empty if none) and whether the room is now empty.
func (r *Room) Leave(playerID string) (newHost string, empty bool) {
	remaining, newHost := r.RemovePlayer(playerID)
	if newHost != "" {
		r.Broadcast(map[string]any{"type": "host:changed", "hostId": newHost})
	}
	r.BroadcastRoomUpdate()
	r.checkEmptyAndNotify()
	return newHost, remaining == 0
}

// Kick removes targetID at hostID's request (player:kick). The target
// receives a player:kicked notice before removal; the client closes its
// own connection on receipt, and a client that doesn't ages out via the
// liveness timeout. Every other member sees the usual room:update.
func (r *Room) Kick(hostID, targetID string) (newHost string, err error) {
	r.mu.Lock()
	if hostID != r.HostPlayerID {
		r.mu.Unlock()
		return "", ErrUnauthorized
	}
	if hostID == targetID {
		r.mu.Unlock()
		return "", ErrUnauthorized
	}
	if _, ok := r.Players[targetID]; !ok {
		r.mu.Unlock()
		return "", ErrStaleEvent
	}
	r.mu.Unlock()

	r.SendTo(targetID, map[string]any{"type": "player:kicked"})
	_, newHost = r.RemovePlayer(targetID)
	if newHost != "" {
		r.Broadcast(map[string]any{"type": "host:changed", "hostId": newHost})
	}
	r.BroadcastRoomUpdate()
	return newHost, nil
}

// BroadcastExcept marshals v and sends it to every connected player except
// exceptPlayerID — used for player:typing, which fans out to others only,
// never echoed back to the sender.
func (r *Room) BroadcastExcept(exceptPlayerID string, v any) {
	frame := mustMarshal(v)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.Players {
		if id == exceptPlayerID {
			continue
		}
		if p.Conn != nil {
			p.Conn.Send(frame)
		}
	}
}
