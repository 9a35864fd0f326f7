/*
Copyright © 2026 assafco22
*/

package main

import (
	"errors"
	"log"
	"time"
)

// Domain errors, worded exactly as they are shown to players. Every one of
// these results in a directed error reply to the offending connection and
// leaves room state untouched.
var (
	errNameRequired        = errors.New("Name is required.")
	errRoomFull            = errors.New("Room is full.")
	errDurationNotHost     = errors.New("Only the host can change the duration.")
	errDurationActiveRound = errors.New("Cannot change duration during an active round.")
	errDurationRange       = errors.New("Duration must be between 5 and 60 seconds.")
	errStartNotHost        = errors.New("Only the host can start a round.")
	errRoundRunning        = errors.New("Round is already in progress.")
	errNeedMorePlayers     = errors.New("Need at least two players to start.")
	errNotRegistered       = errors.New("Player not registered.")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}
