package webserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

// dashboardEvent is the envelope pushed to open dashboard pages.
type dashboardEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type dashboardClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// eventHub fans drawing-cycle events out to every connected dashboard.
// Clients are added and removed under the mutex; a slow client gets dropped
// rather than blocking the rest.
type eventHub struct {
	mu      sync.Mutex
	clients map[*dashboardClient]struct{}
}

var dashboardHub = &eventHub{clients: make(map[*dashboardClient]struct{})}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// ローカルダッシュボード用なので全てのオリジンを許可
		return true
	},
}

func (h *eventHub) add(c *dashboardClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	logger.Info("Dashboard client connected",
		zap.String("client_id", c.id),
		zap.Int("total_clients", total))
}

func (h *eventHub) remove(c *dashboardClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	remaining := len(h.clients)
	h.mu.Unlock()

	logger.Info("Dashboard client disconnected",
		zap.String("client_id", c.id),
		zap.Int("remaining_clients", remaining))
}

func (h *eventHub) publish(payload []byte) {
	h.mu.Lock()
	var stale []*dashboardClient
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.Unlock()

	for _, c := range stale {
		h.remove(c)
		c.conn.Close()
	}
}

// BroadcastWSMessage pushes one event to every connected dashboard client.
func BroadcastWSMessage(msgType string, data interface{}) {
	payload, err := json.Marshal(dashboardEvent{Type: msgType, Data: data})
	if err != nil {
		logger.Error("Failed to marshal dashboard event", zap.Error(err))
		return
	}

	logger.Debug("Dashboard event broadcast", zap.String("event_type", msgType))
	dashboardHub.publish(payload)
}

func handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	id, err := gonanoid.New(12)
	if err != nil {
		id = "ws-unknown"
	}

	client := &dashboardClient{
		id:   id,
		conn: conn,
		send: make(chan []byte, 64),
	}
	dashboardHub.add(client)

	go client.writePump()
	go client.readPump()
}

// readPump drains inbound frames so pongs are processed. The dashboard never
// sends application data.
func (c *dashboardClient) readPump() {
	defer func() {
		dashboardHub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *dashboardClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RegisterWebSocketRoute mounts the dashboard event stream.
func RegisterWebSocketRoute(mux *http.ServeMux) {
	mux.HandleFunc("/ws", handleWS)
}
