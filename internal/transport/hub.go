package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rpggio/racekeeper/internal/command"
	"github.com/rpggio/racekeeper/internal/domain/course"
	"github.com/rpggio/racekeeper/internal/domain/race"
	"github.com/rpggio/racekeeper/internal/player"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 64
)

// Client message types.
const (
	MessageCommand  = "command"
	MessagePosition = "position"
)

// Server message types.
const (
	MessageReply  = "reply"
	MessageNotice = "notice"
	MessageError  = "error"
)

// ClientMessage is a frame sent by a player connection.
type ClientMessage struct {
	Type    string  `json:"type"`
	Command string  `json:"command,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Z       float64 `json:"z,omitempty"`
}

// ServerMessage is a frame sent to a player connection.
type ServerMessage struct {
	Type  string   `json:"type"`
	Text  string   `json:"text,omitempty"`
	Lines []string `json:"lines,omitempty"`
	OK    bool     `json:"ok,omitempty"`
}

// CommandRunner executes '/race' commands.
type CommandRunner interface {
	Execute(ctx context.Context, caller player.Player, input string) command.Reply
}

// PositionSink receives position reports for lap tracking.
type PositionSink interface {
	ReportPosition(ctx context.Context, playerID string, pos course.Vec3) (*race.ProgressResult, error)
}

// Presence tracks who is connected and where.
type Presence interface {
	Connect(p player.Player)
	Disconnect(id string)
	UpdatePosition(id string, pos course.Vec3) bool
}

// HubConfig wires a Hub.
type HubConfig struct {
	Commands CommandRunner
	Races    PositionSink
	Presence Presence
	Logger   *slog.Logger
}

// Hub holds player websocket connections and delivers notifications to them.
// It implements notify.Gateway.
type Hub struct {
	commands CommandRunner
	races    PositionSink
	presence Presence
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

type client struct {
	conn     *websocket.Conn
	player   player.Player
	send     chan ServerMessage
	done     chan struct{}
	doneOnce sync.Once
}

// NewHub creates a hub.
func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		commands: cfg.Commands,
		races:    cfg.Races,
		presence: cfg.Presence,
		logger:   logger,
		upgrader: websocket.Upgrader{
			// Game servers connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]map[*client]struct{}),
	}
}

// ServeWS upgrades a player connection. The player is named by the
// player_id and name query parameters.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("player_id")
	if id == "" {
		http.Error(w, "player_id required", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "player_id", id, "error", err)
		return
	}

	c := &client{
		conn:   conn,
		player: player.Player{ID: id, Name: name},
		send:   make(chan ServerMessage, sendBuffer),
		done:   make(chan struct{}),
	}
	h.register(c)
	defer h.unregister(c)

	go h.writePump(c)
	h.readPump(r.Context(), c)
}

// Notify implements notify.Gateway.
func (h *Hub) Notify(playerID, text string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[playerID] {
		h.enqueue(c, ServerMessage{Type: MessageNotice, Text: text})
	}
}

// NotifyAll implements notify.Gateway.
func (h *Hub) NotifyAll(playerIDs []string, text string) {
	for _, id := range playerIDs {
		h.Notify(id, text)
	}
}

// Connections returns the number of open player connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		c.stop()
		_ = c.conn.Close()
	}
}

func (h *Hub) register(c *client) {
	if h.presence != nil {
		h.presence.Connect(c.player)
	}

	h.mu.Lock()
	set, ok := h.clients[c.player.ID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.player.ID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("player connected", "player_id", c.player.ID)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.player.ID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.player.ID)
		}
	}
	h.mu.Unlock()

	c.stop()
	_ = c.conn.Close()
	if h.presence != nil {
		h.presence.Disconnect(c.player.ID)
	}
	h.logger.Info("player disconnected", "player_id", c.player.ID)
}

// enqueue never blocks; a client that cannot keep up loses messages.
func (h *Hub) enqueue(c *client, msg ServerMessage) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		h.logger.Warn("dropping message for slow client", "player_id", c.player.ID, "type", msg.Type)
	}
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", "player_id", c.player.ID, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.enqueue(c, ServerMessage{Type: MessageError, Text: "malformed message"})
			continue
		}
		h.dispatch(ctx, c, msg)
	}
}

func (h *Hub) dispatch(ctx context.Context, c *client, msg ClientMessage) {
	switch msg.Type {
	case MessageCommand:
		reply := h.commands.Execute(ctx, c.player, msg.Command)
		h.enqueue(c, ServerMessage{Type: MessageReply, Lines: reply.Lines, OK: reply.Err == nil})
	case MessagePosition:
		pos := course.Vec3{X: msg.X, Y: msg.Y, Z: msg.Z}
		if h.presence != nil {
			h.presence.UpdatePosition(c.player.ID, pos)
		}
		if h.races == nil {
			return
		}
		// Progress notices reach the player through the gateway.
		_, err := h.races.ReportPosition(ctx, c.player.ID, pos)
		if err != nil && !notRacing(err) {
			h.logger.Error("position report failed", "player_id", c.player.ID, "error", err)
		}
	default:
		h.enqueue(c, ServerMessage{Type: MessageError, Text: "unknown message type"})
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.stop()
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				_ = c.conn.Close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *client) stop() {
	c.doneOnce.Do(func() { close(c.done) })
}

func notRacing(err error) bool {
	return errors.Is(err, race.ErrNoActiveRace) ||
		errors.Is(err, race.ErrRaceNotStarted) ||
		errors.Is(err, race.ErrNotParticipant)
}
