package feed

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// safeConn wraps a websocket.Conn with a write mutex.
// gorilla/websocket allows one concurrent writer; this enforces that.
type safeConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *safeConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// Hub pushes completed-search summaries to subscribed dashboard clients.
// Subscribers are fire-and-forget: a failed write drops the connection.
type Hub struct {
	mu    sync.RWMutex
	conns map[*safeConn]struct{}
}

// NewHub creates an empty feed hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*safeConn]struct{})}
}

// Routes returns the chi router exposing GET /feed.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/feed", h.serve)
	return r
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[feed] upgrade failed: %v", err)
		return
	}

	conn := &safeConn{ws: ws}
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	log.Printf("[feed] subscriber connected (%d total)", n)

	// The feed is one-way; drain inbound frames until the client leaves.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	ws.Close()
}

// Broadcast sends v to every subscriber, dropping connections that fail.
func (h *Hub) Broadcast(v any) {
	h.mu.RLock()
	conns := make([]*safeConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.writeJSON(v); err != nil {
			h.mu.Lock()
			delete(h.conns, c)
			h.mu.Unlock()
			c.ws.Close()
		}
	}
}
