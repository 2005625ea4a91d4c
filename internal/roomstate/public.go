package roomstate

// PublicRoomEntry is one row of the public lobby-browser listing served by
// GET /api/rooms.
type PublicRoomEntry struct {
	Code        string `json:"code"`
	HostNick    string `json:"hostNick"`
	HostAvatar  string `json:"hostAvatar"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	MaxRounds   int    `json:"maxRounds"`
	HasBonus    bool   `json:"hasBonus"`
}

// PublicRoomIndex lists every joinable room. It is a read projection over
// a RoomRegistry, kept as its own type (rather than a RoomRegistry method)
// so the HTTP listing can depend on it without the rest of the room
// runtime's surface.
type PublicRoomIndex struct {
	registry *RoomRegistry
}

// NewPublicRoomIndex builds a PublicRoomIndex over the given registry.
func NewPublicRoomIndex(registry *RoomRegistry) *PublicRoomIndex {
	return &PublicRoomIndex{registry: registry}
}

// List returns every non-private, lobby-phase room that is not full as a
// PublicRoomEntry. The host's nick/avatar are read from whichever player
// currently holds HostPlayerID; a disconnected host keeps its seat and is
// listed under its own nick. Only when HostPlayerID names no current member
// does the entry fall back to "Guest" with an empty avatar. Succession
// stays out of a read projection.
func (idx *PublicRoomIndex) List() []PublicRoomEntry {
	rooms := idx.registry.ListLobbyRooms()
	out := make([]PublicRoomEntry, 0, len(rooms))
	for _, r := range rooms {
		entry, ok := r.publicEntry()
		if ok {
			out = append(out, entry)
		}
	}
	return out
}

// publicEntry builds this room's listing row, or reports false if the
// room is private, not currently in the lobby, or already full.
func (r *Room) publicEntry() (PublicRoomEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Settings.Private || r.Phase != PhaseLobby || len(r.Players) >= MaxPlayers {
		return PublicRoomEntry{}, false
	}

	hostNick := "Guest"
	hostAvatar := ""
	if host, ok := r.Players[r.HostPlayerID]; ok {
		hostNick = host.Nick
		hostAvatar = host.AvatarSeed
	}

	return PublicRoomEntry{
		Code:        r.Code,
		HostNick:    hostNick,
		HostAvatar:  hostAvatar,
		PlayerCount: len(r.Players),
		MaxPlayers:  MaxPlayers,
		MaxRounds:   r.Settings.MaxRounds,
		HasBonus:    r.Settings.UseBonus,
	}, true
}
