package chat

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/webtop-sh/webtop/internal/domain/message"
	"github.com/webtop-sh/webtop/internal/infrastructure/logging"
	"github.com/webtop-sh/webtop/internal/infrastructure/monitoring"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

// serverUsername labels synthetic notifications in the log, matching
// the relay's own notification frames.
const serverUsername = "The Server"

const disconnectNotice = "you are disconnected"

// RenderSink is the transient render target for chat output. State
// transitions clear it; disconnects leave it alone (the disconnect
// notice survives only in storage).
type RenderSink interface {
	RenderLog(windowID, channel string, msgs []types.ChatMessage)
	ScrollToLatest(windowID string)
	Clear(windowID string)
}

// Connection owns one live relay websocket for one chat session. On
// open it replays the channel's persisted log; inbound messages are
// persisted and rendered; the close path appends a synthetic
// disconnect notice and clears the in-memory log.
type Connection struct {
	id       string
	windowID string
	channel  string
	username string
	key      string

	store   *message.Store
	render  RenderSink
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu         sync.Mutex
	writeMu    sync.Mutex
	ws         *websocket.Conn
	open       bool
	finalized  bool
	readerDone chan struct{}
}

func newConnection(windowID, channel, username, key string, ws *websocket.Conn,
	store *message.Store, render RenderSink, log *logging.Logger, metrics *monitoring.Metrics) *Connection {

	c := &Connection{
		id:         uuid.New().String(),
		windowID:   windowID,
		channel:    channel,
		username:   username,
		key:        key,
		store:      store,
		render:     render,
		log:        log,
		metrics:    metrics,
		ws:         ws,
		open:       true,
		readerDone: make(chan struct{}),
	}

	c.handleOpen()
	go c.readLoop(ws)
	return c
}

// handleOpen replays the persisted channel log into the render target
// in stored order. Replay never re-persists, so history is never
// duplicated.
func (c *Connection) handleOpen() {
	msgs, err := c.store.Replay(c.channel)
	if err != nil {
		c.log.Error("failed to replay channel log",
			zap.String("channel", c.channel),
			zap.Error(err),
		)
		msgs = nil
	}
	c.render.RenderLog(c.windowID, c.channel, msgs)
	c.render.ScrollToLatest(c.windowID)
	c.log.Info("relay connection open",
		zap.String("conn_id", c.id),
		zap.String("channel", c.channel),
		zap.Int("replayed", len(msgs)),
	)
}

func (c *Connection) readLoop(ws *websocket.Conn) {
	defer close(c.readerDone)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			// Transport errors are logged only; recovery belongs
			// entirely to the close path below.
			c.log.Info("relay read ended",
				zap.String("conn_id", c.id),
				zap.Error(err),
			)
			break
		}

		var msg types.ChatMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			c.log.Warn("discarding malformed relay frame", zap.Error(err))
			continue
		}
		if msg.Type == types.MessageTypeHeartbeat {
			continue
		}

		if err := c.store.Append(c.channel, msg); err != nil {
			c.log.Error("failed to persist message",
				zap.String("channel", c.channel),
				zap.Error(err),
			)
		}
		if c.metrics != nil {
			c.metrics.ChatMessages.WithLabelValues("inbound").Inc()
		}
		c.render.RenderLog(c.windowID, c.channel, c.store.InMemory(c.channel))
		c.render.ScrollToLatest(c.windowID)
	}

	c.finalize()
}

// finalize runs the close protocol: persist a synthetic disconnect
// notice, then clear the in-memory log so the notice survives only in
// storage for the next replay.
func (c *Connection) finalize() {
	c.mu.Lock()
	if c.finalized {
		c.mu.Unlock()
		return
	}
	c.finalized = true
	c.open = false
	c.ws = nil
	c.mu.Unlock()

	notice := types.ChatMessage{
		Type:     types.MessageTypeNotification,
		Username: serverUsername,
		Data:     disconnectNotice,
		Channel:  c.channel,
	}
	if err := c.store.Append(c.channel, notice); err != nil {
		c.log.Error("failed to persist disconnect notice", zap.Error(err))
	}
	c.store.ClearMemory(c.channel)

	if c.metrics != nil {
		c.metrics.RelayDisconnects.Inc()
	}
	c.log.Info("relay connection closed",
		zap.String("conn_id", c.id),
		zap.String("channel", c.channel),
	)
}

// Send writes one chat message with the shared credential attached. If
// the connection is not open the message is dropped with a diagnostic;
// nothing is queued or retried.
func (c *Connection) Send(text string) {
	c.mu.Lock()
	ws := c.ws
	open := c.open
	c.mu.Unlock()

	if !open || ws == nil {
		c.log.Info("chat send dropped: connection not open",
			zap.String("conn_id", c.id),
			zap.String("channel", c.channel),
		)
		if c.metrics != nil {
			c.metrics.ChatMessages.WithLabelValues("dropped").Inc()
		}
		return
	}

	msg := types.ChatMessage{
		Type:     types.MessageTypeMessage,
		Data:     text,
		Username: c.username,
		Channel:  c.channel,
		Key:      c.key,
	}
	payload, err := sonic.Marshal(msg)
	if err != nil {
		c.log.Error("failed to encode outbound message", zap.Error(err))
		return
	}

	c.writeMu.Lock()
	err = ws.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Error("failed to write to relay", zap.Error(err))
		return
	}
	if c.metrics != nil {
		c.metrics.ChatMessages.WithLabelValues("outbound").Inc()
	}
}

// IsOpen reports whether the connection can currently send.
func (c *Connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Close tears the connection down synchronously: by the time it
// returns, the reader has exited and the close protocol has run, so no
// handler can fire against a successor's state.
func (c *Connection) Close() {
	c.mu.Lock()
	ws := c.ws
	c.open = false
	c.mu.Unlock()

	if ws != nil {
		deadline := time.Now().Add(time.Second)
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}
	<-c.readerDone
}
