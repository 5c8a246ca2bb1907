package ws

import (
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/webtop-sh/webtop/internal/domain/drag"
	"github.com/webtop-sh/webtop/internal/infrastructure/logging"
	"github.com/webtop-sh/webtop/internal/infrastructure/monitoring"
	"github.com/webtop-sh/webtop/internal/infrastructure/pubsub"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the CORS layer
	},
}

// inboundFrame is one message from a desktop shell client. Pointer
// frames carry the global pointer stream that drives the drag
// coordinator.
type inboundFrame struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages desktop stream connections. Application events from the
// bus fan out to every client; chat render output goes through the
// RenderSink methods; inbound pointer frames feed the drag
// coordinator. Drag position updates are written straight to the
// moving client, never onto the event bus.
type Hub struct {
	drag    *drag.Coordinator
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a hub subscribed to all application events.
func NewHub(bus *pubsub.Bus, dragCoord *drag.Coordinator, log *logging.Logger) *Hub {
	h := &Hub{
		drag:    dragCoord,
		log:     log,
		clients: make(map[*client]struct{}),
	}
	bus.Subscribe(pubsub.TopicAll, func(ev types.Event) {
		h.Broadcast(map[string]any{
			"type":      ev.Type,
			"window_id": ev.WindowID,
			"payload":   ev.Payload,
		})
	})
	return h
}

// WithMetrics adds metrics tracking to the hub.
func (h *Hub) WithMetrics(m *monitoring.Metrics) *Hub {
	h.metrics = m
	return h
}

// HandleConnection upgrades a desktop shell client and serves its
// pointer stream until it disconnects.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamClients.Inc()
	}

	defer func() {
		h.mu.Lock()
		delete(h.clients, cl)
		h.mu.Unlock()
		if h.metrics != nil {
			h.metrics.StreamClients.Dec()
		}
		// A client that vanishes mid-drag must not leave a stuck
		// session behind.
		h.drag.End()
		conn.Close()
	}()

	h.send(cl, map[string]any{"type": "system", "message": "connected to webtop desktop stream"})

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			h.log.Debug("desktop stream read ended", zap.Error(err))
			return
		}

		switch frame.Type {
		case "ping":
			h.send(cl, map[string]any{"type": "pong"})
		case "pointer.move":
			windowID, pos, ok := h.drag.Move(types.Point{X: frame.X, Y: frame.Y})
			if ok {
				h.send(cl, map[string]any{
					"type":      "window.position",
					"window_id": windowID,
					"position":  pos,
				})
			}
		case "pointer.up", "pointer.leave":
			h.drag.End()
		default:
			h.send(cl, map[string]any{"type": "error", "message": "unknown frame type"})
		}
	}
}

// Broadcast fans a frame out to every connected client.
func (h *Hub) Broadcast(frame any) {
	data, err := sonic.Marshal(frame)
	if err != nil {
		h.log.Error("failed to encode stream frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.write(data); err != nil {
			h.log.Debug("dropping stream write", zap.Error(err))
		}
	}
}

func (h *Hub) send(cl *client, frame any) {
	data, err := sonic.Marshal(frame)
	if err != nil {
		h.log.Error("failed to encode stream frame", zap.Error(err))
		return
	}
	if err := cl.write(data); err != nil {
		h.log.Debug("dropping stream write", zap.Error(err))
	}
}

// RenderLog pushes a chat window's visible log to the shell.
func (h *Hub) RenderLog(windowID, channel string, msgs []types.ChatMessage) {
	h.Broadcast(map[string]any{
		"type":      "chat.render",
		"window_id": windowID,
		"channel":   channel,
		"messages":  msgs,
	})
}

// ScrollToLatest tells the shell to scroll a chat window to the newest
// entry.
func (h *Hub) ScrollToLatest(windowID string) {
	h.Broadcast(map[string]any{"type": "chat.scroll", "window_id": windowID})
}

// Clear empties a chat window's render target.
func (h *Hub) Clear(windowID string) {
	h.Broadcast(map[string]any{"type": "chat.clear", "window_id": windowID})
}
