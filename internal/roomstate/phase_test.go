package roomstate

import (
	"testing"
	"time"
)

func newPlayingTestRoom(t *testing.T) (*Room, string, string) {
	t.Helper()
	r := newRoom("TEST1", RoomSettings{MinTime: 0, MaxRounds: 2, Categories: []string{"ქალაქი", "ცხოველი"}})
	r.AddPlayer("Tina", "seed1", "tok1", "p1")
	r.AddPlayer("Gio", "seed2", "tok2", "p2")
	r.Players["p1"].IsReady = true
	r.Players["p2"].IsReady = true
	return r, "p1", "p2"
}

func TestHandleGameStartRequiresHost(t *testing.T) {
	r, host, other := newPlayingTestRoom(t)
	_ = host
	if err := r.HandleGameStart(other); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestHandleGameStartRequiresAllReady(t *testing.T) {
	r, host, _ := newPlayingTestRoom(t)
	r.Players["p2"].IsReady = false
	r.Players["p2"].IsConnected = true
	err := r.HandleGameStart(host)
	if err == nil || err.Error() != ErrMsgNotAllReady {
		t.Fatalf("expected not-all-ready error, got %v", err)
	}
}

func TestHandleGameStartMovesToSticks(t *testing.T) {
	r, host, _ := newPlayingTestRoom(t)
	if err := r.HandleGameStart(host); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.mu.Lock()
	phase := r.Phase
	r.mu.Unlock()
	if phase != PhaseSticks {
		t.Errorf("expected phase sticks, got %s", phase)
	}
}

func TestHandleSticksDrawSequenceEntersPlaying(t *testing.T) {
	r, host, _ := newPlayingTestRoom(t)
	r.Phase = PhaseSticks

	if err := r.HandleSticksDraw(host); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(DrawAnimationDuration + LetterRevealHold + 200*time.Millisecond)

	r.mu.Lock()
	phase := r.Phase
	letter := r.CurrentLetter
	r.mu.Unlock()
	if phase != PhasePlaying {
		t.Fatalf("expected phase playing after draw sequence, got %s", phase)
	}
	if letter == 0 {
		t.Error("expected a letter to have been drawn")
	}
}

func TestHandleSticksDrawWrongPhaseIsStale(t *testing.T) {
	r, host, _ := newPlayingTestRoom(t)
	r.Phase = PhaseLobby
	if err := r.HandleSticksDraw(host); err != ErrStaleEvent {
		t.Fatalf("expected ErrStaleEvent, got %v", err)
	}
}

func TestHandleRoundStopRequiresTimerArmed(t *testing.T) {
	r, _, other := newPlayingTestRoom(t)
	r.Phase = PhasePlaying
	r.StopTimerArmed = false
	err := r.HandleRoundStop(other)
	if err == nil || err.Error() != ErrMsgWaitForTimer {
		t.Fatalf("expected wait-for-timer error, got %v", err)
	}
}

func TestHandleRoundStopAndScoring(t *testing.T) {
	r, _, other := newPlayingTestRoom(t)
	r.mu.Lock()
	r.Phase = PhasePlaying
	r.StopTimerArmed = true
	r.CurrentLetter = 'ა'
	r.CategoryOrder = []string{"cat_0", "cat_1"}
	r.ActiveCategories = map[string]string{"cat_0": "ქალაქი", "cat_1": "ცხოველი"}
	r.Players["p1"].Answers["cat_0"] = "ახალციხე"
	r.Players["p2"].Answers["cat_0"] = "ახალქალაქი"
	r.mu.Unlock()

	if err := r.HandleRoundStop(other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(StopCountdown + 200*time.Millisecond)

	r.mu.Lock()
	phase := r.Phase
	p1Score := r.Players["p1"].CategoryScores["cat_0"]
	r.mu.Unlock()

	if phase != PhaseResults {
		t.Fatalf("expected phase results after stop countdown, got %s", phase)
	}
	if p1Score == nil || !p1Score.IsValid || p1Score.Points != 20 {
		t.Errorf("expected a unique valid answer worth 20 points, got %+v", p1Score)
	}
}

func TestHandleAnswersSubmitTriggersAllSubmitted(t *testing.T) {
	r, _, _ := newPlayingTestRoom(t)
	r.mu.Lock()
	r.Phase = PhasePlaying
	r.CategoryOrder = []string{"cat_0"}
	r.mu.Unlock()

	c1 := &fakeConn{}
	c2 := &fakeConn{}
	r.Players["p1"].Conn = c1
	r.Players["p2"].Conn = c2

	if err := r.HandleAnswersSubmit("p1", map[string]string{"cat_0": "ა"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c1.frames) != 0 {
		t.Error("expected no all:submitted broadcast before every player has submitted")
	}

	if err := r.HandleAnswersSubmit("p2", map[string]string{"cat_0": "ბ"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c1.frames) != 1 || len(c2.frames) != 1 {
		t.Errorf("expected all:submitted broadcast once every connected player submitted, got %d/%d", len(c1.frames), len(c2.frames))
	}
}

func TestHandleNextRoundAdvancesToSticks(t *testing.T) {
	r, host, _ := newPlayingTestRoom(t)
	r.mu.Lock()
	r.Phase = PhaseResults
	r.CurrentRound = 1
	r.mu.Unlock()

	if err := r.HandleNextRound(host); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.mu.Lock()
	phase := r.Phase
	r.mu.Unlock()
	if phase != PhaseSticks {
		t.Errorf("expected phase sticks, got %s", phase)
	}
}

func TestHandleNextRoundEndsGameOnLastRound(t *testing.T) {
	r, host, _ := newPlayingTestRoom(t)
	r.mu.Lock()
	r.Phase = PhaseResults
	r.CurrentRound = r.Settings.MaxRounds
	r.mu.Unlock()

	if err := r.HandleNextRound(host); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.mu.Lock()
	phase := r.Phase
	r.mu.Unlock()
	if phase != PhaseEnded {
		t.Errorf("expected phase ended, got %s", phase)
	}
}

func TestHandleReturnToLobbyResetsState(t *testing.T) {
	r, host, _ := newPlayingTestRoom(t)
	r.mu.Lock()
	r.Phase = PhaseEnded
	r.CurrentRound = 2
	r.Players["p1"].TotalScore = 40
	r.mu.Unlock()

	if err := r.HandleReturnToLobby(host); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.mu.Lock()
	phase := r.Phase
	round := r.CurrentRound
	score := r.Players["p1"].TotalScore
	r.mu.Unlock()
	if phase != PhaseLobby {
		t.Errorf("expected phase lobby, got %s", phase)
	}
	if round != 0 {
		t.Errorf("expected round reset to 0, got %d", round)
	}
	if score != 0 {
		t.Errorf("expected score reset to 0, got %d", score)
	}
}

func TestHandleReturnToLobbyWrongPhaseIsStale(t *testing.T) {
	r, host, _ := newPlayingTestRoom(t)
	r.Phase = PhasePlaying
	if err := r.HandleReturnToLobby(host); err != ErrStaleEvent {
		t.Fatalf("expected ErrStaleEvent, got %v", err)
	}
}
