// Package bridge renders incoming push messages to clients the service can
// still reach directly. A client with a live websocket is "foreground" and
// gets the message as a local display event; everyone else is "background"
// and relies on the platform push edge. Nothing here re-persists anything —
// the durable record was written before the message ever reached us.
package bridge

import (
	"log/slog"
	"sync"
)

// Message is the user-visible rendering of one push: title, body, and the
// deep link a click should open.
type Message struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link,omitempty"`
}

// Conn is one client connection. *websocket.Conn satisfies this; tests
// inject fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub tracks connected clients per user and fans incoming messages out to
// them. One hub per process; Start's listener registration is guarded so it
// attaches at most once regardless of how many callers race it.
type Hub struct {
	mu        sync.RWMutex
	byUser    map[string]map[Conn]struct{}
	startOnce sync.Once
	inbox     chan delivery
	logger    *slog.Logger
}

type delivery struct {
	userID string
	msg    Message
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		byUser: make(map[string]map[Conn]struct{}),
		inbox:  make(chan delivery, 64),
		logger: logger,
	}
}

// Start attaches the delivery listener. Idempotent: repeated calls are
// no-ops, the loop runs once per process lifetime.
func (h *Hub) Start() {
	h.startOnce.Do(func() {
		go h.run()
	})
}

func (h *Hub) run() {
	for d := range h.inbox {
		h.mu.RLock()
		conns := make([]Conn, 0, len(h.byUser[d.userID]))
		for c := range h.byUser[d.userID] {
			conns = append(conns, c)
		}
		h.mu.RUnlock()

		for _, c := range conns {
			if err := c.WriteJSON(d.msg); err != nil {
				h.logger.Debug("foreground delivery failed, dropping connection", "user", d.userID, "error", err)
				h.Detach(d.userID, c)
			}
		}
	}
}

// Attach registers a connection for the user. One user may hold several
// connections (multiple tabs, multiple devices).
func (h *Hub) Attach(userID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[Conn]struct{})
	}
	h.byUser[userID][c] = struct{}{}
}

// Detach removes and closes the connection.
func (h *Hub) Detach(userID string, c Conn) {
	h.mu.Lock()
	if conns, ok := h.byUser[userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.byUser, userID)
		}
	}
	h.mu.Unlock()
	_ = c.Close()
}

// Deliver queues msg for the user's foreground connections. Non-blocking:
// when the queue is full the message is dropped — push is a best-effort
// nudge and the inbox record already exists.
func (h *Hub) Deliver(userID string, msg Message) {
	select {
	case h.inbox <- delivery{userID: userID, msg: msg}:
	default:
		h.logger.Warn("delivery queue full, dropping foreground message", "user", userID)
	}
}

// Connected reports whether the user has at least one live connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}
