// Phase transitions. These are implemented as Room methods rather than a
// separate controller type, since every transition needs the room's lock
// and player map anyway; a second type here would just be another layer
// forwarding to Room.
package roomstate

import (
	"fmt"
	"time"
)

// HandleGameStart processes game:start (lobby -> sticks).
func (r *Room) HandleGameStart(playerID string) error {
	r.mu.Lock()
	if playerID != r.HostPlayerID {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if r.Phase != PhaseLobby {
		r.mu.Unlock()
		return fmt.Errorf("%s", ErrMsgGameInProgress)
	}
	if len(r.Players) == 0 {
		r.mu.Unlock()
		return fmt.Errorf("%s", ErrMsgNotAllReady)
	}
	for _, p := range r.Players {
		if p.IsConnected && !p.IsReady {
			r.mu.Unlock()
			return fmt.Errorf("%s", ErrMsgNotAllReady)
		}
	}

	r.UsedLetters = make(map[rune]bool)
	for _, p := range r.Players {
		p.resetGameState()
	}
	r.CurrentRound = 0
	r.Phase = PhaseSticks
	r.broadcastLocked(mustMarshal(map[string]any{"type": "phase:sticks"}))
	r.broadcastRoomUpdateLocked()
	r.mu.Unlock()
	return nil
}

// HandleSticksDraw processes sticks:draw: selects the letter and begins the
// draw-animation -> letter-reveal -> playing sequence.
func (r *Room) HandleSticksDraw(playerID string) error {
	r.mu.Lock()
	if playerID != r.HostPlayerID {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if r.Phase != PhaseSticks {
		r.mu.Unlock()
		return ErrStaleEvent
	}
	letter := r.drawLetterLocked()
	r.mu.Unlock()

	r.Broadcast(map[string]any{"type": "sticks:drawing"})

	r.phaseTimer.Schedule(DrawAnimationDuration, func() {
		r.mu.Lock()
		if r.Phase != PhaseSticks {
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()

		r.Broadcast(map[string]any{"type": "sticks:result", "letter": string(letter)})

		r.phaseTimer.Schedule(LetterRevealHold, func() {
			r.enterPlaying()
		})
	})
	return nil
}

// enterPlaying performs the sticks->playing transition once the letter
// reveal has held for LetterRevealHold.
func (r *Room) enterPlaying() {
	r.mu.Lock()
	if r.Phase != PhaseSticks {
		r.mu.Unlock()
		return
	}
	r.CurrentRound++
	for _, p := range r.Players {
		p.resetRoundState()
	}
	r.assembleCategoriesLocked()
	r.StopTimerArmed = false
	r.StoppedBy = ""
	r.AllSubmitted = false
	r.Phase = PhasePlaying
	minTime := r.Settings.MinTime
	payload := map[string]any{
		"type":             "round:start",
		"currentRound":     r.CurrentRound,
		"currentLetter":    string(r.CurrentLetter),
		"activeCategories": r.ActiveCategories,
		"categoryOrder":    r.CategoryOrder,
	}
	r.broadcastLocked(mustMarshal(payload))
	r.broadcastRoomUpdateLocked()
	r.mu.Unlock()

	r.armMinTimeTimer(minTime)
}

func (r *Room) armMinTimeTimer(minTime int) {
	enable := func() {
		r.mu.Lock()
		if r.Phase != PhasePlaying {
			r.mu.Unlock()
			return
		}
		r.StopTimerArmed = true
		r.mu.Unlock()
		r.Broadcast(map[string]any{"type": "stop:enabled"})
	}
	if minTime <= 0 {
		enable()
		return
	}
	r.phaseTimer.Schedule(time.Duration(minTime)*time.Second, enable)
}

// HandleRoundStop processes round:stop (playing -> stopped).
func (r *Room) HandleRoundStop(playerID string) error {
	r.mu.Lock()
	if r.Phase != PhasePlaying {
		r.mu.Unlock()
		return ErrStaleEvent
	}
	p, ok := r.Players[playerID]
	if !ok {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if !r.StopTimerArmed {
		r.mu.Unlock()
		return fmt.Errorf("%s", ErrMsgWaitForTimer)
	}
	r.StoppedBy = p.Nick
	r.Phase = PhaseStopped
	r.broadcastLocked(mustMarshal(map[string]any{
		"type":      "round:stopped",
		"countdown": 5,
		"stoppedBy": r.StoppedBy,
	}))
	r.broadcastRoomUpdateLocked()
	r.mu.Unlock()

	r.phaseTimer.Schedule(StopCountdown, r.endRound)
	return nil
}

// endRound processes the 5s-elapsed timer (stopped -> results).
func (r *Room) endRound() {
	r.mu.Lock()
	if r.Phase != PhaseStopped {
		r.mu.Unlock()
		return
	}
	r.runScoringPassLocked()
	isLastRound := r.CurrentRound >= r.Settings.MaxRounds
	r.Phase = PhaseResults

	players := make([]map[string]any, 0, len(r.Seats))
	for _, id := range r.Seats {
		p, ok := r.Players[id]
		if !ok {
			continue
		}
		players = append(players, map[string]any{
			"playerId":       p.ID,
			"nick":           p.Nick,
			"categoryScores": p.CategoryScores,
			"roundScore":     p.RoundScore,
			"totalScore":     p.TotalScore,
		})
	}
	payload := map[string]any{
		"type":        "round:results",
		"isLastRound": isLastRound,
		"players":     players,
	}
	r.broadcastLocked(mustMarshal(payload))
	r.broadcastRoomUpdateLocked()
	r.mu.Unlock()
}

// HandleAnswersSubmit processes answers:submit. Answers are accepted during
// the stop countdown too — clients flush whatever was typed when they see
// round:stopped, and scoring doesn't run until the countdown elapses.
func (r *Room) HandleAnswersSubmit(playerID string, answers map[string]string) error {
	r.mu.Lock()
	if r.Phase != PhasePlaying && r.Phase != PhaseStopped {
		r.mu.Unlock()
		return ErrStaleEvent
	}
	p, ok := r.Players[playerID]
	if !ok {
		r.mu.Unlock()
		return ErrUnauthorized
	}

	for _, cat := range r.CategoryOrder {
		if v, ok := answers[cat]; ok {
			p.Answers[cat] = v
		}
	}
	p.HasSubmitted = true

	allSubmitted := true
	for _, other := range r.Players {
		if other.IsConnected && !other.HasSubmitted {
			allSubmitted = false
			break
		}
	}
	triggerAllSubmitted := allSubmitted && !r.AllSubmitted
	if triggerAllSubmitted {
		r.AllSubmitted = true
	}
	r.mu.Unlock()

	if triggerAllSubmitted {
		r.Broadcast(map[string]any{"type": "all:submitted"})
	}
	return nil
}

// HandleNextRound processes game:nextRound (results -> sticks, or
// results -> ended on the last round).
func (r *Room) HandleNextRound(playerID string) error {
	r.mu.Lock()
	if playerID != r.HostPlayerID {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if r.Phase != PhaseResults {
		r.mu.Unlock()
		return ErrStaleEvent
	}
	isLastRound := r.CurrentRound >= r.Settings.MaxRounds

	if !isLastRound {
		r.Phase = PhaseSticks
		r.broadcastLocked(mustMarshal(map[string]any{"type": "phase:sticks"}))
		r.broadcastRoomUpdateLocked()
		r.mu.Unlock()
		return nil
	}

	standings := r.standingsLocked()
	r.Phase = PhaseEnded
	r.broadcastLocked(mustMarshal(map[string]any{
		"type":      "game:ended",
		"standings": standings,
	}))
	r.broadcastRoomUpdateLocked()
	r.mu.Unlock()

	r.phaseTimer.Schedule(EndGameCooldown, r.resetToLobby)
	return nil
}

// HandleReturnToLobby processes game:returnToLobby, valid from results or
// ended.
func (r *Room) HandleReturnToLobby(playerID string) error {
	r.mu.Lock()
	if playerID != r.HostPlayerID {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if r.Phase != PhaseResults && r.Phase != PhaseEnded {
		r.mu.Unlock()
		return ErrStaleEvent
	}
	r.mu.Unlock()

	r.phaseTimer.Stop()
	r.resetToLobby()
	return nil
}

// resetToLobby performs the shared reset used by game:returnToLobby and
// the 10s end-game cooldown. It is a no-op if the room has moved on since
// it was scheduled: a timer callback whose room has advanced past the
// expected phase does nothing.
func (r *Room) resetToLobby() {
	r.mu.Lock()
	if r.Phase != PhaseResults && r.Phase != PhaseEnded {
		r.mu.Unlock()
		return
	}
	r.CurrentRound = 0
	r.UsedLetters = make(map[rune]bool)
	r.CurrentLetter = 0
	r.ActiveCategories = nil
	r.CategoryOrder = nil
	r.StoppedBy = ""
	r.StopTimerArmed = false
	r.AllSubmitted = false
	for _, p := range r.Players {
		p.resetGameState()
		p.IsReady = p.IsHost
	}
	r.Phase = PhaseLobby
	r.broadcastLocked(mustMarshal(map[string]any{"type": "game:reset"}))
	r.broadcastRoomUpdateLocked()
	r.mu.Unlock()
}
