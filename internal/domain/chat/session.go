package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/webtop-sh/webtop/internal/domain/message"
	"github.com/webtop-sh/webtop/internal/infrastructure/logging"
	"github.com/webtop-sh/webtop/internal/infrastructure/monitoring"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

// ErrBlankSubmission rejects empty username, channel, and message
// submissions at the input boundary, before the state machine or the
// transport sees them.
var ErrBlankSubmission = errors.New("blank submission rejected")

// ErrWrongState rejects a form submission that does not belong to the
// current session state.
var ErrWrongState = errors.New("submission does not match session state")

// Deps bundles what every chat session controller needs.
type Deps struct {
	Store          *message.Store
	Identity       *IdentityStore
	Dialer         *Dialer
	Render         RenderSink
	DefaultChannel string
	RelayKey       string
	Log            *logging.Logger
	Metrics        *monitoring.Metrics
}

// Controller is the chat session state machine for one chat window:
// username-choice, channel-choice, chat. Every transition tears down
// any live relay connection and clears the render target before the
// next state takes over.
type Controller struct {
	deps     Deps
	windowID string

	mu       sync.Mutex
	state    types.ChatState
	username string
	remember bool
	channel  string
	conn     *Connection
}

// NewController creates a session controller. A persisted identity
// skips the username prompt entirely.
func NewController(windowID string, deps Deps) *Controller {
	c := &Controller{
		deps:     deps,
		windowID: windowID,
		state:    types.StateUsernameChoice,
		channel:  deps.DefaultChannel,
	}
	if name, ok := deps.Identity.Lookup(); ok {
		c.username = name
		c.state = types.StateChannelChoice
		deps.Log.Info("chat session restored identity",
			zap.String("window_id", windowID),
			zap.String("username", name),
		)
	}
	return c
}

// SubmitUsername handles the username form. The remember flag persists
// the identity durably; otherwise it lives only for this session.
func (c *Controller) SubmitUsername(name string, remember bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankSubmission
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != types.StateUsernameChoice {
		return ErrWrongState
	}

	c.username = name
	c.remember = remember
	if remember {
		if err := c.deps.Identity.Remember(name); err != nil {
			return err
		}
	}
	c.transition(context.Background(), types.StateChannelChoice)
	return nil
}

// SubmitChannel handles the channel form and enters the chat state,
// establishing the relay connection for the chosen channel.
func (c *Controller) SubmitChannel(ctx context.Context, channel string) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return ErrBlankSubmission
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != types.StateChannelChoice {
		return ErrWrongState
	}

	c.channel = channel
	c.transition(ctx, types.StateChat)
	return nil
}

// ChangeChannel leaves chat for the channel prompt. The control is
// only meaningful once connected.
func (c *Controller) ChangeChannel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != types.StateChat {
		return ErrWrongState
	}
	c.transition(context.Background(), types.StateChannelChoice)
	return nil
}

// ChangeUsername returns to the username prompt from any state and
// clears both the persisted and the in-memory identity.
func (c *Controller) ChangeUsername() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.deps.Identity.Forget(); err != nil {
		return err
	}
	c.username = ""
	c.remember = false
	c.transition(context.Background(), types.StateUsernameChoice)
	return nil
}

// SendMessage forwards one chat line to the relay. Absent or closed
// connections drop the message with a diagnostic; the sender sees no
// confirmation either way.
func (c *Controller) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrBlankSubmission
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		c.deps.Log.Info("chat send dropped: no relay connection",
			zap.String("window_id", c.windowID),
		)
		if c.deps.Metrics != nil {
			c.deps.Metrics.ChatMessages.WithLabelValues("dropped").Inc()
		}
		return nil
	}
	conn.Send(text)
	return nil
}

// Shutdown tears the session down; the window is closing or the
// service is stopping. Teardown is synchronous, no in-flight drain.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

// View returns the externally visible session state.
func (c *Controller) View() types.ChatSessionView {
	c.mu.Lock()
	defer c.mu.Unlock()

	return types.ChatSessionView{
		WindowID:             c.windowID,
		State:                c.state,
		Username:             c.username,
		Channel:              c.channel,
		Connected:            c.conn != nil && c.conn.IsOpen(),
		ChangeChannelEnabled: c.state == types.StateChat,
	}
}

// transition moves the state machine. Teardown of the previous state's
// connection strictly precedes any new connection's establishment. An
// unknown target state is a programming error, not a user condition.
// Must be called with the lock held.
func (c *Controller) transition(ctx context.Context, to types.ChatState) {
	c.teardownLocked()

	switch to {
	case types.StateUsernameChoice, types.StateChannelChoice, types.StateChat:
		c.state = to
	default:
		panic(fmt.Sprintf("chat: unknown session state %q", to))
	}

	c.deps.Log.Info("chat session state change",
		zap.String("window_id", c.windowID),
		zap.String("state", string(to)),
	)

	if to == types.StateChat {
		c.connectLocked(ctx)
	}
}

// teardownLocked closes any live connection and clears the render
// target. Must be called with the lock held.
func (c *Controller) teardownLocked() {
	if c.conn != nil {
		conn := c.conn
		c.conn = nil
		conn.Close()
	}
	c.deps.Render.Clear(c.windowID)
}

// connectLocked establishes the relay connection for the current
// channel. Dial failures are logged; the session stays in chat state
// with sends dropping until the user retries via a channel change.
// Must be called with the lock held.
func (c *Controller) connectLocked(ctx context.Context) {
	ws, err := c.deps.Dialer.Dial(ctx)
	if err != nil {
		c.deps.Log.Error("failed to connect to chat relay",
			zap.String("window_id", c.windowID),
			zap.String("channel", c.channel),
			zap.Error(err),
		)
		return
	}

	c.conn = newConnection(c.windowID, c.channel, c.username, c.deps.RelayKey,
		ws, c.deps.Store, c.deps.Render, c.deps.Log, c.deps.Metrics)
	if c.deps.Metrics != nil {
		c.deps.Metrics.RelayConnects.Inc()
	}
}
