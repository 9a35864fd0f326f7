package main

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/julienschmidt/httprouter"
)

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
}

type inbound struct {
	client *Client
	data   []byte
}

// Hub owns the room. Every mutation of room state happens on the run loop:
// registration, disconnects, inbound messages, and the round timer are its
// only inputs, so no two of them can interleave and no locking is needed.
type Hub struct {
	cfg  *Config
	room *Room

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	messages   chan inbound
}

func newHub(cfg *Config, clock clockwork.Clock) *Hub {
	return &Hub{
		cfg:        cfg,
		room:       newRoom(clock),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		messages:   make(chan inbound),
	}
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unregister:
			h.dropClient(c)

		case in := <-h.messages:
			h.dispatch(in.client, in.data)

		case <-h.room.round.timerChan():
			h.finishRound()
		}
	}
}

func (h *Hub) dispatch(c *Client, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(c, "Invalid message format.")
		return
	}

	switch msg.Type {
	case "join":
		h.handleJoin(c, msg)
	case "set_duration":
		h.handleSetDuration(c, msg)
	case "start_round":
		h.handleStartRound(c)
	case "tap":
		h.handleTap(c)
	default:
		h.sendError(c, "Unknown message type.")
	}
}

func (h *Hub) handleJoin(c *Client, msg ClientMessage) {
	player, err := h.room.join(c, msg.Name, msg.Avatar)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	if player == nil {
		// Already joined; re-issued joins are ignored.
		return
	}

	logf(h.cfg, "GAME: Player %q joined as %s", player.Name, player.ID)

	h.sendTo(c, WelcomeMessage{
		Type:     "welcome",
		PlayerID: player.ID,
		HostID:   h.room.hostID,
		Duration: h.room.round.duration,
	})
	h.broadcastState()
}

func (h *Hub) handleSetDuration(c *Client, msg ClientMessage) {
	// An absent duration field fails the range check, same as any other
	// out-of-range value.
	value := math.NaN()
	if msg.Duration != nil {
		value = *msg.Duration
	}

	if err := h.room.setDuration(c.playerID, value); err != nil {
		h.sendError(c, err.Error())
		return
	}

	logf(h.cfg, "GAME: Round duration set to %ds", h.room.round.duration)
	h.broadcastState()
}

func (h *Hub) handleStartRound(c *Client) {
	if err := h.room.startRound(c.playerID); err != nil {
		h.sendError(c, err.Error())
		return
	}

	round := h.room.round
	logf(h.cfg, "GAME: Round started, %ds, %d players", round.duration, len(h.room.players))

	h.broadcast(RoundStartedMessage{
		Type:      "round_started",
		Duration:  round.duration,
		StartTime: round.startTime.UnixMilli(),
		EndTime:   round.endTime.UnixMilli(),
	})
	h.broadcastState()
}

func (h *Hub) handleTap(c *Client) {
	if !h.room.round.inProgress {
		return
	}
	if err := h.room.recordTap(c.playerID); err != nil {
		h.sendError(c, err.Error())
		return
	}
	h.broadcastState()
}

// finishRound runs the full end sequence if a round is in progress. Both
// the timer and a forced early end funnel through here.
func (h *Hub) finishRound() {
	if !h.room.endRound() {
		return
	}

	if result := h.room.result; result != nil {
		logf(h.cfg, "GAME: Round ended, %d winners, %d losers", len(result.Winners), len(result.Losers))
	}

	h.broadcast(RoundEndedMessage{
		Type:   "round_ended",
		Result: h.room.result,
	})
	h.broadcastState()
}

func (h *Hub) dropClient(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}

	if h.room.get(c.playerID) == nil {
		return
	}

	h.room.remove(c.playerID)
	h.room.electHost()
	logf(h.cfg, "GAME: Player %s left, %d remaining", c.playerID, len(h.room.players))

	if h.room.round.inProgress && len(h.room.players) < minPlayers {
		h.finishRound()
	}
	h.broadcastState()
}

// sendTo delivers a message to a single client. Delivery is fire and
// forget: a client whose buffer is full misses the message and catches up
// on the next snapshot.
func (h *Hub) sendTo(c *Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) sendError(c *Client, message string) {
	h.sendTo(c, ErrorMessage{
		Type:    "error",
		Message: message,
	})
}

// broadcast serializes once and fans out to every joined player whose
// connection is still registered.
func (h *Hub) broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, p := range h.room.snapshot() {
		if p.client == nil || !h.clients[p.client] {
			continue
		}
		select {
		case p.client.send <- data:
		default:
		}
	}
}

func (h *Hub) broadcastState() {
	h.broadcast(h.room.assembleState())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan []byte, 32),
			playerID: uuid.NewString(),
		}

		logf(cfg, "GAME: Connection %s from %s", client.playerID, realIP(r))

		h.register <- client

		go client.writePump()
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		h.messages <- inbound{
			client: c,
			data:   data,
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
