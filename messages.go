package main

// Messages coming from clients
type ClientMessage struct {
	Type     string   `json:"type"`               // "join", "set_duration", "start_round", "tap"
	Name     string   `json:"name,omitempty"`     // join
	Avatar   string   `json:"avatar,omitempty"`   // join
	Duration *float64 `json:"duration,omitempty"` // set_duration
}

// WelcomeMessage is sent to a single client once its join is accepted.
type WelcomeMessage struct {
	Type     string `json:"type"` // "welcome"
	PlayerID string `json:"playerId"`
	HostID   string `json:"hostId"`
	Duration int    `json:"duration"`
}

// PlayerState is one entry in the broadcast player list.
type PlayerState struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Taps   int    `json:"taps"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	IsHost bool   `json:"isHost"`
}

// RoundState mirrors the round record on the wire. Start and end times are
// epoch milliseconds, null while no round is running.
type RoundState struct {
	InProgress bool   `json:"inProgress"`
	Duration   int    `json:"duration"`
	StartTime  *int64 `json:"startTime"`
	EndTime    *int64 `json:"endTime"`
}

// RoundResult holds the inclusive tie sets of the most recent round.
type RoundResult struct {
	Winners []string `json:"winners"`
	Losers  []string `json:"losers"`
}

// StateMessage is the canonical snapshot every client renders from.
type StateMessage struct {
	Type        string        `json:"type"` // "state"
	Players     []PlayerState `json:"players"`
	HostID      *string       `json:"hostId"`
	Round       RoundState    `json:"round"`
	RoundResult *RoundResult  `json:"roundResult"`
}

type RoundStartedMessage struct {
	Type      string `json:"type"` // "round_started"
	Duration  int    `json:"duration"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type RoundEndedMessage struct {
	Type   string       `json:"type"` // "round_ended"
	Result *RoundResult `json:"result"`
}

// Sent to a single client when one of its messages is rejected
type ErrorMessage struct {
	Type    string `json:"type"`    // "error"
	Message string `json:"message"` // user-facing text
}
