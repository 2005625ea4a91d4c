package roomstate

import "errors"

// ErrUnauthorized marks an authorization error: the caller is not
// permitted to perform the action (non-host issuing a host-only command, a
// player targeting themselves where that's disallowed, etc). These are
// silently ignored — no reply to the originating connection.
var ErrUnauthorized = errors.New("unauthorized")

// ErrStaleEvent marks an event that no longer applies: the room has moved
// past the phase the event assumed, or the event targets a player/room
// that no longer exists. These are also silently ignored.
var ErrStaleEvent = errors.New("stale event")

// Client-visible validation error strings, used verbatim in game:error /
// room:error payloads. The wording is part of the client compatibility
// surface.
const (
	ErrMsgRoomNotFound   = "ოთახი ვერ მოიძებნა"
	ErrMsgGameInProgress = "თამაში უკვე დაწყებულია"
	ErrMsgRoomFull       = "ოთახი სავსეა (მაქს. 8 მოთამაშე)"
	ErrMsgNotAllReady    = "ყველა მოთამაშე მზად არ არის"
	ErrMsgWaitForTimer   = "დაელოდეთ ტაიმერს"
)
