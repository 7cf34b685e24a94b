package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"tradebot-backend/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Event is one message pushed to a UI client over the event stream.
type Event struct {
	Type    string          `json:"type"`
	Level   string          `json:"level,omitempty"`
	Message string          `json:"message,omitempty"`
	Running *bool           `json:"running,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans session events out to the websocket clients of each user. Sends
// are buffered and non-blocking: a slow client drops events instead of
// stalling the trading loop.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

var _ domain.Notifier = (*Hub)(nil)

func (h *Hub) Log(userID, level, message string) {
	h.broadcast(userID, Event{Type: "log", Level: level, Message: message})
}

func (h *Hub) StatusChanged(userID string, running bool) {
	h.broadcast(userID, Event{Type: "status", Running: &running})
}

func (h *Hub) AccountInfo(userID string, payload json.RawMessage) {
	h.broadcast(userID, Event{Type: "account_info", Payload: payload})
}

func (h *Hub) TradeUpdate(userID string, update domain.TradeUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	h.broadcast(userID, Event{Type: "trade_update", Payload: payload})
}

func (h *Hub) broadcast(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[userID] {
		select {
		case c.send <- ev:
		default:
			// Client buffer full, drop the event.
		}
	}
}

// Handle upgrades the request and streams the user's events until the client
// disconnects. GET /ws?userId=xxx
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, 64)}
	h.register(userID, c)
	log.Printf("Event stream client connected (user %s)", userID)

	go c.writePump()

	// The read loop only serves to detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(userID, c)
	close(c.send)
	log.Printf("Event stream client disconnected (user %s)", userID)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			log.Println("Write error:", err)
			return
		}
	}
}

func (h *Hub) register(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[userID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) unregister(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[userID]
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, userID)
	}
}
