package main

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	maxPlayers    = 7
	minPlayers    = 2
	maxNameLength = 20
)

// Player holds the data we store server-side for one joined connection.
type Player struct {
	ID       string
	Name     string
	Avatar   string
	Taps     int
	Wins     int
	Losses   int
	JoinedAt time.Time

	// joinSeq disambiguates players joined within the same clock tick,
	// preserving insertion order in snapshots and host election.
	joinSeq int

	// client is used for delivery only and never leaves the room/hub boundary.
	client *Client
}

// Room is the single session aggregate: the joined players, the current
// host, the round record, and the most recent round result. It is owned by
// the hub loop; nothing outside that loop mutates it.
type Room struct {
	clock   clockwork.Clock
	players map[string]*Player
	hostID  string
	round   *Round
	result  *RoundResult
	nextSeq int
}

func newRoom(clock clockwork.Clock) *Room {
	return &Room{
		clock:   clock,
		players: make(map[string]*Player),
		round:   newRound(),
	}
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLength {
		runes = runes[:maxNameLength]
	}
	return string(runes)
}

// join registers the connection as a player. A connection that already
// joined is a silent no-op and returns (nil, nil).
func (r *Room) join(c *Client, name, avatar string) (*Player, error) {
	if name == "" {
		return nil, errNameRequired
	}
	if len(r.players) >= maxPlayers {
		return nil, errRoomFull
	}
	if _, ok := r.players[c.playerID]; ok {
		return nil, nil
	}

	player := &Player{
		ID:       c.playerID,
		Name:     truncateName(name),
		Avatar:   avatar,
		JoinedAt: r.clock.Now(),
		joinSeq:  r.nextSeq,
		client:   c,
	}
	r.nextSeq++
	r.players[player.ID] = player
	r.electHost()

	return player, nil
}

func (r *Room) remove(playerID string) {
	delete(r.players, playerID)
}

func (r *Room) get(playerID string) *Player {
	return r.players[playerID]
}

// snapshot returns the players ordered by join time, earliest first,
// regardless of map iteration order.
func (r *Room) snapshot() []*Player {
	players := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].joinSeq < players[j].joinSeq
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players
}

// electHost keeps the current host while it is still registered; otherwise
// the earliest-joined remaining player becomes host, or nobody.
func (r *Room) electHost() {
	if r.hostID != "" {
		if _, ok := r.players[r.hostID]; ok {
			return
		}
	}
	players := r.snapshot()
	if len(players) == 0 {
		r.hostID = ""
		return
	}
	r.hostID = players[0].ID
}

func (r *Room) recordTap(playerID string) error {
	player, ok := r.players[playerID]
	if !ok {
		return errNotRegistered
	}
	player.Taps++
	return nil
}

func (r *Room) resetTaps() {
	for _, p := range r.players {
		p.Taps = 0
	}
}

// applyRoundOutcome increments the cumulative counters. A player present in
// both sets receives both increments.
func (r *Room) applyRoundOutcome(winners, losers []string) {
	for _, id := range winners {
		if p, ok := r.players[id]; ok {
			p.Wins++
		}
	}
	for _, id := range losers {
		if p, ok := r.players[id]; ok {
			p.Losses++
		}
	}
}

// assembleState rebuilds the full snapshot from scratch on every call.
func (r *Room) assembleState() StateMessage {
	players := r.snapshot()
	out := make([]PlayerState, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerState{
			ID:     p.ID,
			Name:   p.Name,
			Avatar: p.Avatar,
			Taps:   p.Taps,
			Wins:   p.Wins,
			Losses: p.Losses,
			IsHost: p.ID == r.hostID,
		})
	}

	msg := StateMessage{
		Type:        "state",
		Players:     out,
		Round:       r.round.state(),
		RoundResult: r.result,
	}
	if r.hostID != "" {
		hostID := r.hostID
		msg.HostID = &hostID
	}

	return msg
}
