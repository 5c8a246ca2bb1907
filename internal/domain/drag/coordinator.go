package drag

import (
	"sync"

	"go.uber.org/zap"

	"github.com/webtop-sh/webtop/internal/infrastructure/logging"
	"github.com/webtop-sh/webtop/internal/infrastructure/monitoring"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

// Positioner applies position updates to windows. Implemented by the
// window manager; position changes are visual state and emit no
// application event.
type Positioner interface {
	SetPosition(windowID string, pos types.Point) bool
	SetDragging(windowID string, dragging bool)
}

type session struct {
	windowID string
	offset   types.Point
	bounds   types.Bounds
}

// Coordinator tracks the window currently being dragged, if any, and
// translates the global pointer stream into position updates for it.
// The desktop composition root owns one Coordinator and injects it into
// every consumer; at most one drag session exists at any instant.
type Coordinator struct {
	mu         sync.Mutex
	positioner Positioner
	active     *session
	log        *logging.Logger
	metrics    *monitoring.Metrics
}

// New creates a coordinator with no active session.
func New(positioner Positioner, log *logging.Logger) *Coordinator {
	return &Coordinator{positioner: positioner, log: log}
}

// WithMetrics adds metrics tracking to the coordinator.
func (c *Coordinator) WithMetrics(m *monitoring.Metrics) *Coordinator {
	c.metrics = m
	return c
}

// Begin registers the active drag target, replacing any previous one.
// Single-pointer input should never produce a replacement for a
// different window, but stale state must not be retained silently.
func (c *Coordinator) Begin(windowID string, offset types.Point, bounds types.Bounds) {
	c.mu.Lock()
	if c.active != nil && c.active.windowID != windowID {
		c.log.Warn("replacing stale drag session",
			zap.String("stale_window", c.active.windowID),
			zap.String("window", windowID),
		)
		c.positioner.SetDragging(c.active.windowID, false)
	}
	c.active = &session{windowID: windowID, offset: offset, bounds: bounds}
	c.mu.Unlock()

	c.positioner.SetDragging(windowID, true)
	if c.metrics != nil {
		c.metrics.DragsStarted.Inc()
		c.metrics.DragActive.Set(1)
	}
}

// Move applies a pointer position to the dragged window and returns the
// window id and its new position. No-op when no drag is active.
//
// The horizontal clamp keeps the window short of the right edge and has
// no lower bound, while the vertical clamp pins both edges. The shipped
// desktop behaves this way, so it is preserved rather than fixed.
// TODO: confirm with product whether windows may leave the left edge.
func (c *Coordinator) Move(pointer types.Point) (string, types.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return "", types.Point{}, false
	}

	s := c.active
	pos := types.Point{
		X: min(pointer.X-s.offset.X, s.bounds.MaxX-1),
		Y: max(0, min(pointer.Y-s.offset.Y, s.bounds.MaxY)),
	}

	if !c.positioner.SetPosition(s.windowID, pos) {
		// Target window vanished mid-drag; drop the session.
		c.clearLocked()
		return "", types.Point{}, false
	}
	return s.windowID, pos, true
}

// End clears the active session unconditionally. Pointer-up,
// pointer-leaving-surface, and release-outside-window all route here.
func (c *Coordinator) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// Cancel ends the active session only if it targets the given window.
// Called on window close so a dying window cannot leave a stuck drag.
func (c *Coordinator) Cancel(windowID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.windowID == windowID {
		c.clearLocked()
	}
}

// Active returns a snapshot of the current session, if any.
func (c *Coordinator) Active() (types.DragSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return types.DragSnapshot{}, false
	}
	return types.DragSnapshot{
		WindowID: c.active.windowID,
		Offset:   c.active.offset,
		Bounds:   c.active.bounds,
	}, true
}

// clearLocked must be called with the lock held.
func (c *Coordinator) clearLocked() {
	if c.active == nil {
		return
	}
	c.positioner.SetDragging(c.active.windowID, false)
	c.active = nil
	if c.metrics != nil {
		c.metrics.DragActive.Set(0)
	}
}
