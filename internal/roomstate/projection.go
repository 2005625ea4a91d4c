package roomstate

// PlayerView is the externally visible projection of a Player — never
// includes answers, scores-in-progress, or the session token.
type PlayerView struct {
	ID          string `json:"id"`
	Nick        string `json:"nick"`
	AvatarSeed  string `json:"avatarSeed"`
	IsHost      bool   `json:"isHost"`
	IsReady     bool   `json:"isReady"`
	IsConnected bool   `json:"isConnected"`
}

func (p *Player) view() PlayerView {
	return PlayerView{
		ID:          p.ID,
		Nick:        p.Nick,
		AvatarSeed:  p.AvatarSeed,
		IsHost:      p.IsHost,
		IsReady:     p.IsReady,
		IsConnected: p.IsConnected,
	}
}

// PublicState is the phase-level slice of room state every member sees,
// excluding per-player answers and UsedLetters.
type PublicState struct {
	Phase            Phase             `json:"phase"`
	CurrentLetter    string            `json:"currentLetter,omitempty"`
	ActiveCategories map[string]string `json:"activeCategories,omitempty"`
	CategoryOrder    []string          `json:"categoryOrder,omitempty"`
	CurrentRound     int               `json:"currentRound"`
	MaxRounds        int               `json:"maxRounds"`
	StoppedBy        string            `json:"stoppedBy,omitempty"`
	StopTimerArmed   bool              `json:"stopTimerArmed"`
	AllSubmitted     bool              `json:"allSubmitted"`
}

func (r *Room) publicStateLocked() PublicState {
	ps := PublicState{
		Phase:            r.Phase,
		ActiveCategories: r.ActiveCategories,
		CategoryOrder:    r.CategoryOrder,
		CurrentRound:     r.CurrentRound,
		MaxRounds:        r.Settings.MaxRounds,
		StoppedBy:        r.StoppedBy,
		StopTimerArmed:   r.StopTimerArmed,
		AllSubmitted:     r.AllSubmitted,
	}
	if r.CurrentLetter != 0 {
		ps.CurrentLetter = string(r.CurrentLetter)
	}
	return ps
}

// RoomUpdate is the room:update broadcast payload: every mutation that
// changes externally visible room state ends with one of these.
type RoomUpdate struct {
	Type        string       `json:"type"`
	Code        string       `json:"code"`
	HostID      string       `json:"hostId"`
	Players     []PlayerView `json:"players"`
	Settings    RoomSettings `json:"settings"`
	PublicState PublicState  `json:"publicState"`
}

func (r *Room) roomUpdateLocked() RoomUpdate {
	players := make([]PlayerView, 0, len(r.Seats))
	for _, id := range r.Seats {
		if p, ok := r.Players[id]; ok {
			players = append(players, p.view())
		}
	}
	return RoomUpdate{
		Type:        "room:update",
		Code:        r.Code,
		HostID:      r.HostPlayerID,
		Players:     players,
		Settings:    r.Settings,
		PublicState: r.publicStateLocked(),
	}
}

// broadcastRoomUpdateLocked builds and enqueues a room:update broadcast.
// Caller must hold r.mu; the frame is sent without releasing the lock since
// Broadcaster.Send only enqueues onto a per-connection channel and must
// never block.
func (r *Room) broadcastRoomUpdateLocked() {
	r.broadcastLocked(mustMarshal(r.roomUpdateLocked()))
}

// PlayerRoundData is the private, per-player slice of round state — sent
// only to that player, e.g. in a session:restore reply.
type PlayerRoundData struct {
	Answers        map[string]string         `json:"answers"`
	HasSubmitted   bool                      `json:"hasSubmitted"`
	CategoryScores map[string]*CategoryScore `json:"categoryScores,omitempty"`
	RoundScore     int                       `json:"roundScore"`
	TotalScore     int                       `json:"totalScore"`
}

func (p *Player) roundDataLocked() PlayerRoundData {
	var scores map[string]*CategoryScore
	if len(p.CategoryScores) > 0 {
		scores = p.CategoryScores
	}
	return PlayerRoundData{
		Answers:        p.Answers,
		HasSubmitted:   p.HasSubmitted,
		CategoryScores: scores,
		RoundScore:     p.RoundScore,
		TotalScore:     p.TotalScore,
	}
}

// RestoreData is the roomData/playerData pair returned to a restoring
// connection: restoration is allowed in any phase and must carry enough
// phase-appropriate state for the client to resume, including this
// player's own in-progress answers and submission flag.
type RestoreData struct {
	RoomData   RoomUpdate      `json:"roomData"`
	PlayerData PlayerRoundData `json:"playerData"`
}

func (r *Room) restoreDataLocked(playerID string) RestoreData {
	data := RestoreData{RoomData: r.roomUpdateLocked()}
	if p, ok := r.Players[playerID]; ok {
		data.PlayerData = p.roundDataLocked()
	}
	return data
}

// BroadcastRoomUpdate sends a room:update to every connected player. It is
// the unlocked entry point the gateway uses after join/leave, where the
// room mutation itself (AddPlayer, RemovePlayer) already released the lock.
func (r *Room) BroadcastRoomUpdate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastRoomUpdateLocked()
}
