package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/muurk/printscout/internal/logging"
	"github.com/muurk/printscout/internal/registry"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Pending messages per client before it is considered too slow
	sendBuffer = 64
)

// CountMessage is the text frame pushed to WebSocket clients on every
// count change.
type CountMessage struct {
	Plugin string `json:"plugin"`
	Count  int    `json:"count"`
}

type client struct {
	id         string
	remoteAddr string
	conn       *websocket.Conn
	send       chan CountMessage
	done       chan struct{}
	closeOnce  sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// hub fans registry count changes out to WebSocket clients.
type hub struct {
	registry *registry.Registry
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	wg      sync.WaitGroup
}

func newHub(reg *registry.Registry) *hub {
	return &hub{
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[string]*client),
	}
}

// serveWS upgrades the request, sends the current snapshot, then streams
// every count change.
func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		id:         uuid.NewString(),
		remoteAddr: r.RemoteAddr,
		conn:       conn,
		send:       make(chan CountMessage, sendBuffer),
		done:       make(chan struct{}),
	}

	// Register and queue the snapshot under one lock so no change published
	// in between is lost or reordered.
	h.mu.Lock()
	h.clients[c.id] = c
	for _, e := range h.registry.Snapshot() {
		select {
		case c.send <- CountMessage{Plugin: e.Name, Count: e.Count}:
		default:
		}
	}
	h.mu.Unlock()

	logging.LogConnection(c.remoteAddr, "websocket_connected")
	logging.Debug("WebSocket client registered", zap.String("client_id", c.id))

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		h.writePump(c)
	}()
	go func() {
		defer h.wg.Done()
		h.readPump(c)
	}()
}

// publish queues e for every client. Clients whose queue is full are
// disconnected.
func (h *hub) publish(e registry.Entry) {
	msg := CountMessage{Plugin: e.Name, Count: e.Count}

	h.mu.Lock()
	var slow []*client
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()

	for _, c := range slow {
		logging.Warn("Dropping slow WebSocket client", zap.String("client_id", c.id))
		c.close()
	}
}

func (h *hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Debug("WebSocket write failed",
					zap.String("client_id", c.id),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and detects disconnects.
func (h *hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.close()
	if ok {
		logging.LogConnection(c.remoteAddr, "websocket_closed")
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.close()
	}
}

func (h *hub) wait() {
	h.wg.Wait()
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
