// Package roomstate implements the room/session runtime: rooms, players,
// the round engine, and the phase state machine that advances a room
// through the lobby/draw/play/stop/results/end lifecycle.
package roomstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/giorgishonia/kalakobana/internal/timerutil"
)

// Phase is one of the six states a Room's finite state machine can be in.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhaseSticks  Phase = "sticks"
	PhasePlaying Phase = "playing"
	PhaseStopped Phase = "stopped"
	PhaseResults Phase = "results"
	PhaseEnded   Phase = "ended"
)

const (
	// roomCodeAlphabet excludes visually ambiguous glyphs.
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 5

	// MaxPlayers is the per-room capacity.
	MaxPlayers = 8

	// ReconnectGrace is how long a disconnected player's seat is held.
	ReconnectGrace = 120 * time.Second

	// DrawAnimationDuration is the sticks:drawing hold before sticks:result.
	DrawAnimationDuration = 2 * time.Second
	// LetterRevealHold is the sticks:result hold before entering playing.
	LetterRevealHold = 1500 * time.Millisecond
	// StopCountdown is the delay between round:stopped and scoring.
	StopCountdown = 5 * time.Second
	// EndGameCooldown is the delay between game:ended and the lobby reset.
	EndGameCooldown = 10 * time.Second

	// ChatMessageCap is the chat relay's length cap.
	ChatMessageCap = 200
)

// RoomSettings configures a room's ruleset.
type RoomSettings struct {
	Name       string   `json:"name,omitempty"`
	MinTime    int      `json:"minTime"`
	MaxRounds  int      `json:"maxRounds"`
	UseBonus   bool     `json:"useBonus"`
	Categories []string `json:"categories"`
	Private    bool     `json:"private,omitempty"`
}

// CategoryScore is a single (player, category) scoring outcome.
type CategoryScore struct {
	Points        int    `json:"points"`
	IsValid       bool   `json:"isValid"`
	Answer        string `json:"answer"`
	InvalidatedBy string `json:"invalidatedBy,omitempty"`
}

// Broadcaster is the minimal send capability a Room needs for one
// connected player. The gateway package's connection wrapper implements it;
// roomstate never imports the transport.
type Broadcaster interface {
	Send(frame []byte)
}

// Player is a member of a Room.
type Player struct {
	ID           string
	Nick         string
	AvatarSeed   string
	IsHost       bool
	IsReady      bool
	IsConnected  bool
	Conn         Broadcaster
	SessionToken string
	JoinedAt     time.Time

	Answers        map[string]string
	HasSubmitted   bool
	CategoryScores map[string]*CategoryScore
	RoundScore     int
	TotalScore     int
}

func newPlayer(id, nick, avatarSeed, token string) *Player {
	return &Player{
		ID:             id,
		Nick:           nick,
		AvatarSeed:     avatarSeed,
		SessionToken:   token,
		JoinedAt:       time.Now(),
		Answers:        make(map[string]string),
		CategoryScores: make(map[string]*CategoryScore),
	}
}

func (p *Player) resetRoundState() {
	p.Answers = make(map[string]string)
	p.HasSubmitted = false
	p.CategoryScores = make(map[string]*CategoryScore)
	p.RoundScore = 0
}

func (p *Player) resetGameState() {
	p.resetRoundState()
	p.TotalScore = 0
}

// Room holds all state for one game lobby and serializes every mutation
// through its mutex, including timer callbacks.
type Room struct {
	mu sync.Mutex

	Code         string
	HostPlayerID string
	Settings     RoomSettings
	Players      map[string]*Player
	// Seats is insertion order: the canonical seat order used for host
	// succession and standings tie-breaks.
	Seats []string

	Phase            Phase
	UsedLetters      map[rune]bool
	CurrentLetter    rune
	ActiveCategories map[string]string // category key -> display name
	CategoryOrder    []string          // stable iteration order of the keys above
	CurrentRound     int
	StoppedBy        string
	StopTimerArmed   bool
	AllSubmitted     bool

	phaseTimer timerutil.Timer

	// OnEmpty is invoked (without the room lock held) when the last player
	// leaves, so the owning RoomRegistry can delete the room.
	OnEmpty func(code string)

	EmptySince *time.Time
}

func newRoom(code string, settings RoomSettings) *Room {
	return &Room{
		Code:        code,
		Settings:    settings,
		Players:     make(map[string]*Player),
		Phase:       PhaseLobby,
		UsedLetters: make(map[rune]bool),
	}
}

// Lock/Unlock expose the room's serialization primitive to the gateway for
// the rare read that must be atomic with a write (e.g. resolving a
// connection before dispatching). Prefer the higher-level methods below.
func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// AddPlayer inserts a new player into the room. Caller must already have
// validated capacity and phase (no entry once a game is underway).
func (r *Room) AddPlayer(nick, avatarSeed, token string, playerID string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addPlayerLocked(nick, avatarSeed, token, playerID)
}

func (r *Room) addPlayerLocked(nick, avatarSeed, token, playerID string) *Player {
	p := newPlayer(playerID, nick, avatarSeed, token)
	p.IsConnected = true
	if len(r.Players) == 0 {
		p.IsHost = true
		r.HostPlayerID = p.ID
	}
	r.Players[p.ID] = p
	r.Seats = append(r.Seats, p.ID)
	r.EmptySince = nil
	return p
}

// Join validates capacity and phase (no new entry once a game has left the
// lobby) and, if allowed, seats the player with conn already attached. The
// check and the insert happen under one lock acquisition so two racing
// joins cannot both pass the capacity check. This is the gateway-facing
// entry point; AddPlayer stays unchecked for tests.
func (r *Room) Join(nick, avatarSeed, token, playerID string, conn Broadcaster) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Phase != PhaseLobby {
		return nil, fmt.Errorf("%s", ErrMsgGameInProgress)
	}
	if len(r.Players) >= MaxPlayers {
		return nil, fmt.Errorf("%s", ErrMsgRoomFull)
	}
	p := r.addPlayerLocked(nick, avatarSeed, token, playerID)
	p.Conn = conn
	return p, nil
}

// Reconnect reattaches a Broadcaster to an existing seat, marking the
// player connected again and returning the restore payload. It succeeds
// regardless of phase: reconnection is allowed mid-round.
func (r *Room) Reconnect(playerID string, conn Broadcaster) (RestoreData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.Players[playerID]
	if !ok {
		return RestoreData{}, ErrStaleEvent
	}
	p.Conn = conn
	p.IsConnected = true
	return r.restoreDataLocked(playerID), nil
}

// hasPlayerToken reports whether playerID is currently seated in this room
// with the given session token.
func (r *Room) hasPlayerToken(playerID, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[playerID]
	return ok && p.SessionToken == token
}

// Disconnect marks a player as no longer connected without removing their
// seat, so a reconnect within the grace window can resume the same player.
// conn must be the Broadcaster the caller observed failing; if the player's
// current Conn no longer matches it (a session:restore already swapped in a
// new connection), this is a no-op — the stale transport's own disconnect
// notice must not clobber a connection that has already replaced it.
// The caller (gateway/session layer) is responsible for arming the
// reconnect-grace timer and calling RemovePlayer if it expires.
// It reports whether it actually disconnected the player, so the caller can
// skip broadcasting a spurious room:update and arming a reconnect-grace
// timer for a seat that was never actually vacated.
func (r *Room) Disconnect(playerID string, conn Broadcaster) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[playerID]
	if !ok || p.Conn != conn {
		return false
	}
	p.IsConnected = false
	p.Conn = nil
	return true
}

// RemovePlayer deletes a player from the room, performing host succession
// if the removed player was host. Returns the remaining player count and,
// if succession occurred, the new host's id.
func (r *Room) RemovePlayer(playerID string) (remaining int, newHost string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removePlayerLocked(playerID)
}

func (r *Room) removePlayerLocked(playerID string) (remaining int, newHost string) {
	if _, ok := r.Players[playerID]; !ok {
		return len(r.Players), ""
	}
	delete(r.Players, playerID)
	for i, id := range r.Seats {
		if id == playerID {
			r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
			break
		}
	}

	if playerID == r.HostPlayerID {
		if len(r.Seats) > 0 {
			newHost = r.Seats[0]
			r.HostPlayerID = newHost
			if p, ok := r.Players[newHost]; ok {
				p.IsHost = true
			}
		} else {
			r.HostPlayerID = ""
		}
	}

	remaining = len(r.Players)
	if remaining == 0 {
		now := time.Now()
		r.EmptySince = &now
	}
	return remaining, newHost
}

// Broadcast marshals v and sends it to every connected player. Caller must
// NOT hold r.mu.
func (r *Room) Broadcast(v any) {
	frame := mustMarshal(v)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(frame)
}

func (r *Room) broadcastLocked(frame []byte) {
	for _, p := range r.Players {
		if p.Conn != nil {
			p.Conn.Send(frame)
		}
	}
}

// SendTo marshals v and sends it to a single player, if connected. Caller
// must NOT hold r.mu.
func (r *Room) SendTo(playerID string, v any) {
	frame := mustMarshal(v)
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.Players[playerID]; ok && p.Conn != nil {
		p.Conn.Send(frame)
	}
}

// PlayerCount returns the number of current members.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Players)
}

// IsEmpty reports whether the room currently has no members.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Players) == 0
}

// checkEmptyAndNotify calls OnEmpty if the room just became empty. Caller
// must NOT hold r.mu.
func (r *Room) checkEmptyAndNotify() {
	r.mu.Lock()
	empty := len(r.Players) == 0
	r.mu.Unlock()
	if empty && r.OnEmpty != nil {
		r.OnEmpty(r.Code)
	}
}
