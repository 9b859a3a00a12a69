// Package stream broadcasts every probe result to websocket subscribers.
package stream

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/domain"
)

const (
	writeTimeout = 5 * time.Second
	clientBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(u.Host), strings.TrimSpace(r.Host))
	},
}

type client struct {
	send chan ResultView
	once sync.Once
}

func (c *client) close() { c.once.Do(func() { close(c.send) }) }

// Hub fans results out to connected websocket clients. A slow client loses
// messages rather than holding up the publisher.
type Hub struct {
	Logger *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{Logger: logger, clients: make(map[*client]struct{})}
}

// Publish never blocks.
func (h *Hub) Publish(r domain.ProbeResult, ev domain.StateEvent) {
	view := NewResultView(r, ev)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- view:
		default:
			h.Logger.Debug("stream_client_lagging", zap.String("target_id", string(r.TargetID)))
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("stream_upgrade_failed", zap.Error(err))
		return
	}
	c := &client{send: make(chan ResultView, clientBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.Logger.Info("stream_client_connected", zap.String("remote", r.RemoteAddr))
	h.serve(conn, c)
}

func (h *Hub) serve(conn *websocket.Conn, c *client) {
	defer conn.Close()
	defer h.unregister(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case view, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
					time.Now().Add(writeTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(view); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
