package main

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	defaultDuration = 10
	minDuration     = 5
	maxDuration     = 60
)

// Round is the process-wide round record. There is exactly one; it is
// created at startup and only ever transitions between idle and running.
type Round struct {
	inProgress bool
	duration   int
	startTime  time.Time
	endTime    time.Time

	// timer is the pending end-of-round task. Non-nil only while running;
	// cleared on every transition back to idle.
	timer clockwork.Timer
}

func newRound() *Round {
	return &Round{
		duration: defaultDuration,
	}
}

// timerChan exposes the pending timer for the hub loop to select on. A nil
// channel blocks forever, so an idle round never fires.
func (rd *Round) timerChan() <-chan time.Time {
	if rd.timer == nil {
		return nil
	}
	return rd.timer.Chan()
}

func (rd *Round) stopTimer() {
	if rd.timer != nil {
		rd.timer.Stop()
		rd.timer = nil
	}
}

func (rd *Round) state() RoundState {
	s := RoundState{
		InProgress: rd.inProgress,
		Duration:   rd.duration,
	}
	if rd.inProgress {
		start := rd.startTime.UnixMilli()
		end := rd.endTime.UnixMilli()
		s.StartTime = &start
		s.EndTime = &end
	}
	return s
}

func validDuration(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) &&
		value == math.Trunc(value) &&
		value >= minDuration && value <= maxDuration
}

// setDuration changes the round length. Host-only, idle-only, whole
// seconds in [5,60].
func (r *Room) setDuration(requesterID string, value float64) error {
	if requesterID != r.hostID {
		return errDurationNotHost
	}
	if r.round.inProgress {
		return errDurationActiveRound
	}
	if !validDuration(value) {
		return errDurationRange
	}
	r.round.duration = int(value)
	return nil
}

// startRound transitions idle -> running: taps reset, stale result
// cleared, times set, and the end-of-round timer scheduled (replacing any
// pending one).
func (r *Room) startRound(requesterID string) error {
	if requesterID != r.hostID {
		return errStartNotHost
	}
	if r.round.inProgress {
		return errRoundRunning
	}
	if len(r.players) < minPlayers {
		return errNeedMorePlayers
	}

	r.resetTaps()
	r.result = nil
	r.round.inProgress = true
	r.round.startTime = r.clock.Now()
	r.round.endTime = r.round.startTime.Add(time.Duration(r.round.duration) * time.Second)
	r.round.stopTimer()
	r.round.timer = r.clock.NewTimer(time.Duration(r.round.duration) * time.Second)

	return nil
}

// endRound transitions running -> idle and computes the outcome. Calling
// it while idle is a no-op, which makes the timer firing and a forced
// early end safe to race.
func (r *Room) endRound() bool {
	if !r.round.inProgress {
		return false
	}
	r.round.inProgress = false
	r.round.startTime = time.Time{}
	r.round.endTime = time.Time{}
	r.round.stopTimer()

	players := r.snapshot()
	if len(players) == 0 {
		r.result = nil
		return true
	}

	maxTaps := players[0].Taps
	minTaps := players[0].Taps
	for _, p := range players[1:] {
		if p.Taps > maxTaps {
			maxTaps = p.Taps
		}
		if p.Taps < minTaps {
			minTaps = p.Taps
		}
	}

	// Ties are inclusive: every player at the max wins, every player at
	// the min loses. A sole remaining player is both.
	result := &RoundResult{
		Winners: make([]string, 0, len(players)),
		Losers:  make([]string, 0, len(players)),
	}
	for _, p := range players {
		if p.Taps == maxTaps {
			result.Winners = append(result.Winners, p.ID)
		}
		if p.Taps == minTaps {
			result.Losers = append(result.Losers, p.ID)
		}
	}

	r.applyRoundOutcome(result.Winners, result.Losers)
	r.result = result

	return true
}
