package monitor

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultWriteWait = time.Second

// Hub streams reports to websocket clients. Each new client gets the last
// report first.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	last      *Report
	writeWait time.Duration

	broadcast chan Report
}

// NewHub returns a hub; Run must be running for reports to go out.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		writeWait: defaultWriteWait,
		broadcast: make(chan Report, 8),
	}
}

// Publish queues r for the clients. A report is dropped when the queue is
// full.
func (h *Hub) Publish(r Report) error {
	select {
	case h.broadcast <- r:
	default:
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run sends queued reports until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.Close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		case r := <-h.broadcast:
			h.send(r)
		}
	}
}

func (h *Hub) send(r Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &r
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.WriteJSON(r); err != nil {
			h.log.Debug("hub: client dropped", "remote", c.RemoteAddr().String(), "err", err)
			c.Close()
			delete(h.clients, c)
		}
	}
}

// ServeHTTP upgrades the request and holds the client until it goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("hub: upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	if h.last != nil {
		ws.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := ws.WriteJSON(h.last); err != nil {
			h.mu.Unlock()
			h.log.Debug("hub: client dropped", "remote", r.RemoteAddr, "err", err)
			ws.Close()
			return
		}
	}
	h.clients[ws] = true
	h.mu.Unlock()
	h.log.Debug("hub: client connected", "remote", r.RemoteAddr)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			h.mu.Lock()
			if h.clients[ws] {
				ws.Close()
				delete(h.clients, ws)
			}
			h.mu.Unlock()
			return
		}
	}
}
