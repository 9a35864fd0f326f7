package main

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// roomWithPlayers builds a room with n joined players, first joiner host.
func roomWithPlayers(t *testing.T, n int) (*Room, *clockwork.FakeClock, []*Player) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	r := newRoom(clock)

	players := make([]*Player, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, joinTestPlayer(t, r, clock, string(rune('a'+i))))
	}
	return r, clock, players
}

func TestSetDurationRejectsNonHost(t *testing.T) {
	r, _, players := roomWithPlayers(t, 2)

	if err := r.setDuration(players[1].ID, 30); err != errDurationNotHost {
		t.Fatalf("expected errDurationNotHost, got %v", err)
	}
	if r.round.duration != defaultDuration {
		t.Errorf("duration changed to %d on rejected request", r.round.duration)
	}
}

func TestSetDurationRange(t *testing.T) {
	r, _, players := roomWithPlayers(t, 2)
	host := players[0].ID

	for _, value := range []float64{3, 61, 4.9, 60.1, 7.5, math.NaN(), math.Inf(1)} {
		if err := r.setDuration(host, value); err != errDurationRange {
			t.Errorf("setDuration(%v): expected errDurationRange, got %v", value, err)
		}
		if r.round.duration != defaultDuration {
			t.Errorf("setDuration(%v) mutated duration to %d", value, r.round.duration)
		}
	}

	for _, value := range []float64{5, 30, 60} {
		if err := r.setDuration(host, value); err != nil {
			t.Errorf("setDuration(%v): unexpected error %v", value, err)
		}
		if r.round.duration != int(value) {
			t.Errorf("setDuration(%v): duration is %d", value, r.round.duration)
		}
	}
}

func TestSetDurationRejectedDuringRound(t *testing.T) {
	r, _, players := roomWithPlayers(t, 2)
	host := players[0].ID

	if err := r.startRound(host); err != nil {
		t.Fatalf("startRound failed: %v", err)
	}
	if err := r.setDuration(host, 20); err != errDurationActiveRound {
		t.Fatalf("expected errDurationActiveRound, got %v", err)
	}
	if r.round.duration != defaultDuration {
		t.Errorf("duration changed mid-round to %d", r.round.duration)
	}
}

func TestStartRoundRequiresHost(t *testing.T) {
	r, _, players := roomWithPlayers(t, 2)

	if err := r.startRound(players[1].ID); err != errStartNotHost {
		t.Fatalf("expected errStartNotHost, got %v", err)
	}
	if r.round.inProgress {
		t.Errorf("round started despite rejection")
	}
}

func TestStartRoundRequiresTwoPlayers(t *testing.T) {
	r, _, players := roomWithPlayers(t, 1)

	if err := r.startRound(players[0].ID); err != errNeedMorePlayers {
		t.Fatalf("expected errNeedMorePlayers, got %v", err)
	}
	if r.round.inProgress {
		t.Errorf("round started with a single player")
	}
}

func TestStartRoundRejectedWhileRunning(t *testing.T) {
	r, _, players := roomWithPlayers(t, 2)
	host := players[0].ID

	if err := r.startRound(host); err != nil {
		t.Fatalf("startRound failed: %v", err)
	}
	if err := r.startRound(host); err != errRoundRunning {
		t.Fatalf("expected errRoundRunning, got %v", err)
	}
}

func TestStartRoundResetsTapsAndResult(t *testing.T) {
	r, clock, players := roomWithPlayers(t, 2)
	host := players[0].ID

	players[0].Taps = 12
	players[1].Taps = 9
	r.result = &RoundResult{Winners: []string{players[0].ID}, Losers: []string{players[1].ID}}

	if err := r.startRound(host); err != nil {
		t.Fatalf("startRound failed: %v", err)
	}

	for _, p := range players {
		if p.Taps != 0 {
			t.Errorf("player %s taps not reset, got %d", p.Name, p.Taps)
		}
	}
	if r.result != nil {
		t.Errorf("stale round result survived round start")
	}
	if !r.round.inProgress {
		t.Fatalf("round not in progress after start")
	}
	if !r.round.startTime.Equal(clock.Now()) {
		t.Errorf("startTime %v, want %v", r.round.startTime, clock.Now())
	}
	wantEnd := clock.Now().Add(time.Duration(defaultDuration) * time.Second)
	if !r.round.endTime.Equal(wantEnd) {
		t.Errorf("endTime %v, want %v", r.round.endTime, wantEnd)
	}
	if r.round.timer == nil {
		t.Errorf("no end-of-round timer scheduled")
	}
}

func TestEndRoundScoring(t *testing.T) {
	r, _, players := roomWithPlayers(t, 5)
	host := players[0].ID

	if err := r.startRound(host); err != nil {
		t.Fatalf("startRound failed: %v", err)
	}

	taps := []int{5, 3, 3, 5, 1}
	for i, p := range players {
		p.Taps = taps[i]
	}

	if !r.endRound() {
		t.Fatalf("endRound reported idle round")
	}

	wantWinners := []string{players[0].ID, players[3].ID}
	wantLosers := []string{players[4].ID}

	if got := r.result.Winners; len(got) != 2 || got[0] != wantWinners[0] || got[1] != wantWinners[1] {
		t.Errorf("winners = %v, want %v", got, wantWinners)
	}
	if got := r.result.Losers; len(got) != 1 || got[0] != wantLosers[0] {
		t.Errorf("losers = %v, want %v", got, wantLosers)
	}

	wantWins := []int{1, 0, 0, 1, 0}
	wantLosses := []int{0, 0, 0, 0, 1}
	for i, p := range players {
		if p.Wins != wantWins[i] || p.Losses != wantLosses[i] {
			t.Errorf("player %s: %dW %dL, want %dW %dL", p.Name, p.Wins, p.Losses, wantWins[i], wantLosses[i])
		}
	}

	if r.round.inProgress {
		t.Errorf("round still in progress after end")
	}
	if !r.round.startTime.IsZero() || !r.round.endTime.IsZero() {
		t.Errorf("round times not cleared after end")
	}
	if r.round.timer != nil {
		t.Errorf("timer not cleared after end")
	}
}

func TestEndRoundAllTied(t *testing.T) {
	r, _, players := roomWithPlayers(t, 3)

	if err := r.startRound(players[0].ID); err != nil {
		t.Fatalf("startRound failed: %v", err)
	}
	for _, p := range players {
		p.Taps = 4
	}

	r.endRound()

	if len(r.result.Winners) != 3 || len(r.result.Losers) != 3 {
		t.Fatalf("expected everyone in both sets, got %d winners %d losers",
			len(r.result.Winners), len(r.result.Losers))
	}
	for _, p := range players {
		if p.Wins != 1 || p.Losses != 1 {
			t.Errorf("player %s: %dW %dL, want 1W 1L", p.Name, p.Wins, p.Losses)
		}
	}
}

func TestEndRoundSoleRemainingPlayer(t *testing.T) {
	r, _, players := roomWithPlayers(t, 2)

	if err := r.startRound(players[0].ID); err != nil {
		t.Fatalf("startRound failed: %v", err)
	}
	players[0].Taps = 3

	r.remove(players[1].ID)
	r.electHost()
	r.endRound()

	if len(r.result.Winners) != 1 || r.result.Winners[0] != players[0].ID {
		t.Errorf("winners = %v, want sole player", r.result.Winners)
	}
	if len(r.result.Losers) != 1 || r.result.Losers[0] != players[0].ID {
		t.Errorf("losers = %v, want sole player", r.result.Losers)
	}
	if players[0].Wins != 1 || players[0].Losses != 1 {
		t.Errorf("sole player: %dW %dL, want both incremented", players[0].Wins, players[0].Losses)
	}
}

func TestEndRoundIdleIsNoOp(t *testing.T) {
	r, _, players := roomWithPlayers(t, 2)

	if r.endRound() {
		t.Fatalf("endRound on idle round reported a transition")
	}
	if r.result != nil {
		t.Errorf("idle endRound produced a result")
	}

	// The timer firing after a forced end must also be a no-op.
	if err := r.startRound(players[0].ID); err != nil {
		t.Fatalf("startRound failed: %v", err)
	}
	r.endRound()
	firstResult := r.result
	if r.endRound() {
		t.Fatalf("second endRound reported a transition")
	}
	if r.result != firstResult {
		t.Errorf("second endRound overwrote the result")
	}
}

func TestRoundTimerFiresAfterDuration(t *testing.T) {
	r, clock, players := roomWithPlayers(t, 2)

	if r.round.timerChan() != nil {
		t.Fatalf("idle round exposes a timer channel")
	}

	if err := r.startRound(players[0].ID); err != nil {
		t.Fatalf("startRound failed: %v", err)
	}

	clock.Advance(time.Duration(defaultDuration)*time.Second - time.Millisecond)
	select {
	case <-r.round.timerChan():
		t.Fatalf("timer fired before the round duration elapsed")
	default:
	}

	clock.Advance(time.Millisecond)
	select {
	case <-r.round.timerChan():
	default:
		t.Fatalf("timer did not fire at the round duration")
	}
}

func TestStartRoundReplacesPendingTimer(t *testing.T) {
	r, _, players := roomWithPlayers(t, 2)
	host := players[0].ID

	if err := r.startRound(host); err != nil {
		t.Fatalf("startRound failed: %v", err)
	}
	first := r.round.timer

	r.endRound()
	if err := r.startRound(host); err != nil {
		t.Fatalf("second startRound failed: %v", err)
	}

	if r.round.timer == first {
		t.Errorf("second round reused the previous timer")
	}
}
