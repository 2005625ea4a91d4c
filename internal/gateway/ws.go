// Package gateway is the connection layer: websocket upgrade,
// per-connection dispatch of the inbound event vocabulary, rate limiting,
// and the chat relay. It owns connections; rooms and sessions are owned by
// internal/roomstate and internal/session.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/giorgishonia/kalakobana/internal/roomstate"
	"github.com/giorgishonia/kalakobana/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// settingsPatchWire is the wire shape of a settings:update event's partial
// settings object.
type settingsPatchWire struct {
	Name       *string  `json:"name"`
	MinTime    *int     `json:"minTime"`
	MaxRounds  *int     `json:"maxRounds"`
	UseBonus   *bool    `json:"useBonus"`
	Categories []string `json:"categories"`
	Private    *bool    `json:"private"`
}

// inboundEvent is the envelope for every client-originated event; not
// every field is populated for every type.
type inboundEvent struct {
	Type string `json:"type"`

	Token      string `json:"token"`
	PlayerID   string `json:"playerId"`
	Nick       string `json:"nick"`
	AvatarSeed string `json:"avatarSeed"`
	Code       string `json:"code"`

	Ready    *bool              `json:"ready"`
	Settings *settingsPatchWire `json:"settings"`
	Category string             `json:"category"`

	Answers map[string]string `json:"answers"`

	TargetPlayerID string `json:"targetPlayerId"`

	Message string `json:"message"`
}

// Gateway wires the websocket transport to a RoomRegistry and
// SessionDirectory. One Gateway typically backs the whole process.
type Gateway struct {
	Registry *roomstate.RoomRegistry
	Sessions *session.Directory
	Chat     *ChatRelay

	// ReconnectGrace is how long a disconnected player's seat is held
	// before the session/room layer gives it up, configurable via the
	// server's --reconnect-grace flag.
	ReconnectGrace time.Duration
}

// New constructs a Gateway over the given registry, session directory, and
// chat relay. reconnectGrace of 0 falls back to roomstate.ReconnectGrace.
func New(registry *roomstate.RoomRegistry, sessions *session.Directory, chat *ChatRelay, reconnectGrace time.Duration) *Gateway {
	if reconnectGrace <= 0 {
		reconnectGrace = roomstate.ReconnectGrace
	}
	return &Gateway{Registry: registry, Sessions: sessions, Chat: chat, ReconnectGrace: reconnectGrace}
}

// handler holds per-connection state: which player/room this socket is
// currently bound to.
type handler struct {
	gw          *Gateway
	conn        *conn
	rateLimiter *connRateLimiter

	room     *roomstate.Room
	playerID string
	token    string
}

// HandleWS upgrades the request and runs the connection's read loop until
// it closes.
func (gw *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade", "error", err)
		return
	}

	c := newConn(ws)
	c.armReadDeadline()
	go c.writePump()

	h := &handler{gw: gw, conn: c, rateLimiter: newConnRateLimiter()}
	h.readLoop()
}

func (h *handler) readLoop() {
	defer h.onDisconnect()

	for {
		var evt inboundEvent
		_, raw, err := h.conn.ws.ReadMessage()
		if err != nil {
			logUnexpectedClose(err)
			return
		}
		if err := json.Unmarshal(raw, &evt); err != nil {
			h.sendGameError("malformed event")
			continue
		}

		allowed, disconnect := h.rateLimiter.allow(evt.Type)
		if !allowed {
			if disconnect {
				slog.Warn("rate limit exceeded, disconnecting", "playerId", h.playerID, "type", evt.Type)
				return
			}
			h.sendGameError("too many requests, slow down")
			continue
		}

		h.dispatch(evt)
	}
}

func (h *handler) dispatch(evt inboundEvent) {
	switch evt.Type {
	case "session:restore":
		h.handleSessionRestore(evt)
	case "room:create":
		h.handleRoomCreate(evt)
	case "room:join":
		h.handleRoomJoin(evt)
	case "player:ready":
		h.handlePlayerReady(evt)
	case "settings:update":
		h.handleSettingsUpdate(evt)
	case "game:start":
		if h.room != nil {
			h.reportGameError(h.room.HandleGameStart(h.playerID))
		}
	case "sticks:draw":
		if h.room != nil {
			h.reportGameError(h.room.HandleSticksDraw(h.playerID))
		}
	case "player:typing":
		h.handlePlayerTyping(evt)
	case "answers:submit":
		if h.room != nil {
			h.reportGameError(h.room.HandleAnswersSubmit(h.playerID, evt.Answers))
		}
	case "round:stop":
		if h.room != nil {
			h.reportGameError(h.room.HandleRoundStop(h.playerID))
		}
	case "answer:invalidate":
		h.handleAnswerInvalidate(evt)
	case "game:nextRound":
		if h.room != nil {
			h.reportGameError(h.room.HandleNextRound(h.playerID))
		}
	case "game:returnToLobby":
		if h.room != nil {
			h.reportGameError(h.room.HandleReturnToLobby(h.playerID))
		}
	case "room:leave":
		h.handleRoomLeave()
	case "player:kick":
		h.handlePlayerKick(evt)
	case "chat:message":
		h.handleChatMessage(evt)
	default:
		h.sendGameError("unknown event type")
	}
}

func (h *handler) reportGameError(err error) {
	switch err {
	case nil:
		return
	case roomstate.ErrUnauthorized, roomstate.ErrStaleEvent:
		return
	default:
		h.sendGameError(err.Error())
	}
}

func (h *handler) handleRoomCreate(evt inboundEvent) {
	h.leaveCurrentRoom()

	room, err := h.gw.Registry.Create(roomstate.DefaultSettings())
	if err != nil {
		h.sendRoomError("could not create room")
		return
	}
	h.joinRoom(room, evt.Nick, evt.AvatarSeed, evt.Token, "room:created")
}

func (h *handler) handleRoomJoin(evt inboundEvent) {
	room, ok := h.gw.Registry.Get(evt.Code)
	if !ok {
		h.sendRoomError(roomstate.ErrMsgRoomNotFound)
		return
	}
	h.leaveCurrentRoom()
	h.joinRoom(room, evt.Nick, evt.AvatarSeed, evt.Token, "room:joined")
}

func (h *handler) joinRoom(room *roomstate.Room, nick, avatarSeed, token, ackType string) {
	playerID := session.NewPlayerID()
	if token == "" {
		token = session.NewToken()
	}

	if _, err := room.Join(nick, avatarSeed, token, playerID, h.conn); err != nil {
		h.sendRoomError(err.Error())
		return
	}

	h.gw.Sessions.Register(token, room.Code, playerID)
	h.room = room
	h.playerID = playerID
	h.token = token

	h.conn.Send(mustMarshal(map[string]any{
		"type":     ackType,
		"code":     room.Code,
		"playerId": playerID,
		"token":    token,
	}))
	room.BroadcastRoomUpdate()
}

func (h *handler) handleSessionRestore(evt inboundEvent) {
	s, ok := h.gw.Sessions.Lookup(evt.Token)
	var room *roomstate.Room
	if ok {
		room, ok = h.gw.Registry.Get(s.RoomCode)
	}
	if !ok {
		if found, ok2 := h.gw.Registry.FindByPlayerToken(evt.PlayerID, evt.Token); ok2 {
			room = found
			ok = true
			h.gw.Sessions.Register(evt.Token, room.Code, evt.PlayerID)
		}
	}
	if !ok || room == nil {
		h.gw.Sessions.Remove(evt.Token)
		h.conn.Send(mustMarshal(map[string]any{"type": "session:restored", "success": false}))
		return
	}

	wasPending := h.gw.Sessions.CancelReconnectTimer(evt.PlayerID)
	restoreData, err := room.Reconnect(evt.PlayerID, h.conn)
	if err != nil {
		h.conn.Send(mustMarshal(map[string]any{"type": "session:restored", "success": false}))
		return
	}

	h.room = room
	h.playerID = evt.PlayerID
	h.token = evt.Token

	h.conn.Send(mustMarshal(map[string]any{
		"type":       "session:restored",
		"success":    true,
		"roomCode":   room.Code,
		"playerId":   evt.PlayerID,
		"roomData":   restoreData.RoomData,
		"playerData": restoreData.PlayerData,
	}))
	// The reconnect notice only goes out when the seat was actually in the
	// grace window; a duplicate-socket restore replaces the connection
	// silently.
	if wasPending {
		room.BroadcastExcept(evt.PlayerID, map[string]any{"type": "player:reconnected", "playerId": evt.PlayerID})
	}
	room.BroadcastRoomUpdate()
}

func (h *handler) handlePlayerReady(evt inboundEvent) {
	if h.room == nil || evt.Ready == nil {
		return
	}
	h.reportGameError(h.room.SetReady(h.playerID, *evt.Ready))
}

func (h *handler) handleSettingsUpdate(evt inboundEvent) {
	if h.room == nil || evt.Settings == nil {
		return
	}
	s := evt.Settings
	h.reportGameError(h.room.UpdateSettings(h.playerID, roomstate.SettingsPatch{
		Name:       s.Name,
		MinTime:    s.MinTime,
		MaxRounds:  s.MaxRounds,
		UseBonus:   s.UseBonus,
		Categories: s.Categories,
		Private:    s.Private,
	}))
}

func (h *handler) handlePlayerTyping(evt inboundEvent) {
	if h.room == nil {
		return
	}
	h.room.BroadcastExcept(h.playerID, map[string]any{
		"type":     "player:typing",
		"playerId": h.playerID,
		"category": evt.Category,
	})
}

func (h *handler) handleAnswerInvalidate(evt inboundEvent) {
	if h.room == nil {
		return
	}
	if err := h.room.ToggleInvalidation(h.playerID, evt.TargetPlayerID, evt.Category); err != nil {
		h.sendGameError(err.Error())
		return
	}
	h.room.BroadcastRoomUpdate()
}

func (h *handler) handleRoomLeave() {
	h.leaveCurrentRoom()
}

func (h *handler) handlePlayerKick(evt inboundEvent) {
	if h.room == nil {
		return
	}
	if _, err := h.room.Kick(h.playerID, evt.TargetPlayerID); err != nil {
		h.reportGameError(err)
		return
	}
	// Only after Kick has authorized the caller: a non-host must not be able
	// to cancel another player's grace timer or evict their session.
	h.gw.Sessions.CancelReconnectTimer(evt.TargetPlayerID)
	h.gw.Sessions.RemoveAllForPlayer(evt.TargetPlayerID)
}

func (h *handler) handleChatMessage(evt inboundEvent) {
	if h.room == nil || h.gw.Chat == nil {
		return
	}
	h.gw.Chat.Relay(h.room, h.playerID, evt.Message)
}

// leaveCurrentRoom removes the bound player (if any) from their room and
// clears the connection's binding.
func (h *handler) leaveCurrentRoom() {
	if h.room == nil {
		return
	}
	h.gw.Sessions.Remove(h.token)
	h.gw.Sessions.CancelReconnectTimer(h.playerID)
	h.room.Leave(h.playerID)
	h.room = nil
	h.playerID = ""
	h.token = ""
}

// onDisconnect runs when the transport drops: the player's seat is held
// for ReconnectGrace rather than removed immediately.
func (h *handler) onDisconnect() {
	h.conn.close()
	if h.room == nil {
		return
	}
	room := h.room
	playerID := h.playerID
	// h.conn is the specific transport this handler observed drop; if the
	// player's seat has already been reattached to a newer connection (a
	// session:restore raced this disconnect), Disconnect no-ops and we must
	// not clobber the live reconnection with a stale grace timer.
	if !room.Disconnect(playerID, h.conn) {
		return
	}
	room.BroadcastRoomUpdate()

	h.gw.Sessions.ArmReconnectTimer(playerID, h.gw.ReconnectGrace, func() {
		room.Leave(playerID)
		h.gw.Sessions.RemoveAllForPlayer(playerID)
	})
}

func (h *handler) sendGameError(message string) {
	h.conn.Send(mustMarshal(map[string]any{"type": "game:error", "message": message}))
}

func (h *handler) sendRoomError(message string) {
	h.conn.Send(mustMarshal(map[string]any{"type": "room:error", "message": message}))
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
