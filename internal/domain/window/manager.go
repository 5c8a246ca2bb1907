package window

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/webtop-sh/webtop/internal/infrastructure/logging"
	"github.com/webtop-sh/webtop/internal/infrastructure/monitoring"
	"github.com/webtop-sh/webtop/internal/infrastructure/pubsub"
	"github.com/webtop-sh/webtop/internal/shared/id"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

// Title bar actions dispatched by the shell.
const (
	ActionClose    = "close"
	ActionMaximize = "maximize"
	ActionMinimize = "minimize"
)

// DragContext is the drag coordinator surface the manager needs: start
// a session on title-bar pointer-down, cancel it on window close.
type DragContext interface {
	Begin(windowID string, offset types.Point, bounds types.Bounds)
	Cancel(windowID string)
}

// Manager owns every window instance on the desktop: position, focus
// flag, minimize/maximize state, and the per-window dropdown protocol.
// It never decides when focus changes; it subscribes to the focus
// broadcast and updates flags reactively.
type Manager struct {
	mu      sync.RWMutex
	windows map[string]*types.WindowInstance
	bus     *pubsub.Bus
	drag    DragContext
	bounds  types.Bounds // fallback when the shell supplies no surface size
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a window manager subscribed to focus broadcasts.
func NewManager(bus *pubsub.Bus, bounds types.Bounds, log *logging.Logger) *Manager {
	m := &Manager{
		windows: make(map[string]*types.WindowInstance),
		bus:     bus,
		bounds:  bounds,
		log:     log,
	}
	bus.Subscribe(types.EventFocusChanged, func(ev types.Event) {
		m.applyFocus(ev.WindowID)
	})
	return m
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithDragContext injects the drag coordinator.
func (m *Manager) WithDragContext(drag DragContext) *Manager {
	m.drag = drag
	return m
}

// Open creates a window from its typed configuration.
func (m *Manager) Open(cfg types.WindowConfig) (*types.WindowInstance, error) {
	if cfg.Title == "" {
		cfg.Title = "Untitled Window"
	}
	if cfg.ID == "" {
		cfg.ID = id.NewWindowID().String()
	}

	win := &types.WindowInstance{
		ID:       cfg.ID,
		Title:    cfg.Title,
		Icon:     cfg.Icon,
		Kind:     cfg.Kind,
		Position: cfg.Position,
	}

	m.mu.Lock()
	if _, exists := m.windows[cfg.ID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("window %s already open", cfg.ID)
	}
	m.windows[win.ID] = win
	winCopy := *win
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.WindowsOpened.Inc()
		m.metrics.WindowsOpen.Inc()
	}
	m.log.Info("window opened",
		zap.String("window_id", win.ID),
		zap.String("title", win.Title),
		zap.String("kind", win.Kind),
	)
	m.bus.Publish(types.Event{
		Type:     types.EventWindowOpened,
		WindowID: win.ID,
		Payload:  map[string]any{"title": win.Title, "kind": win.Kind},
	})
	return &winCopy, nil
}

// Get retrieves a window by ID.
func (m *Manager) Get(windowID string) (*types.WindowInstance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	win, ok := m.windows[windowID]
	if !ok {
		return nil, false
	}
	winCopy := *win
	return &winCopy, true
}

// List returns all windows.
func (m *Manager) List() []*types.WindowInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	windows := make([]*types.WindowInstance, 0, len(m.windows))
	for _, win := range m.windows {
		winCopy := *win
		windows = append(windows, &winCopy)
	}
	return windows
}

// StartDrag begins a drag session for a window unless the pointer-down
// landed on a title-bar button. Offset is computed from the window
// origin; bounds fall back to the configured desktop surface.
func (m *Manager) StartDrag(windowID string, pointer types.Point, fromTitleButton bool, bounds *types.Bounds) bool {
	if fromTitleButton {
		return false
	}

	m.mu.RLock()
	win, ok := m.windows[windowID]
	if !ok {
		m.mu.RUnlock()
		return false
	}
	offset := types.Point{X: pointer.X - win.Position.X, Y: pointer.Y - win.Position.Y}
	m.mu.RUnlock()

	b := m.bounds
	if bounds != nil {
		b = *bounds
	}
	m.drag.Begin(windowID, offset, b)
	return true
}

// HandleTitleBarAction dispatches a title-bar button press. Close only
// requests removal: the shell performs it via Remove, the window does
// not destroy itself.
func (m *Manager) HandleTitleBarAction(windowID, action string) error {
	m.mu.Lock()
	win, ok := m.windows[windowID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("window %s not found", windowID)
	}

	var event string
	var payload map[string]any
	switch action {
	case ActionClose:
		event = types.EventWindowCloseRequested
	case ActionMaximize:
		win.Maximized = !win.Maximized
		event = types.EventWindowMaximized
		payload = map[string]any{"maximized": win.Maximized}
	case ActionMinimize:
		win.Minimized = true
		event = types.EventWindowMinimized
	default:
		m.mu.Unlock()
		return fmt.Errorf("unknown title bar action %q", action)
	}
	m.mu.Unlock()

	m.bus.Publish(types.Event{Type: event, WindowID: windowID, Payload: payload})
	return nil
}

// Restore unhides a minimized window (taskbar activation).
func (m *Manager) Restore(windowID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[windowID]
	if !ok {
		return false
	}
	win.Minimized = false
	return true
}

// Remove destroys a window. Any drag session targeting it is cancelled
// before the window disappears.
func (m *Manager) Remove(windowID string) bool {
	if m.drag != nil {
		m.drag.Cancel(windowID)
	}

	m.mu.Lock()
	if _, ok := m.windows[windowID]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.windows, windowID)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.WindowsOpen.Dec()
	}
	m.log.Info("window closed", zap.String("window_id", windowID))
	m.bus.Publish(types.Event{Type: types.EventWindowClosed, WindowID: windowID})
	return true
}

// ToggleDropdown opens a dropdown, force-closing any sibling, or closes
// it when it is already the open one. A single field per window keeps
// the at-most-one-open invariant structural.
func (m *Manager) ToggleDropdown(windowID, dropdownID string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[windowID]
	if !ok {
		return false, false
	}
	if win.OpenDropdownID != nil && *win.OpenDropdownID == dropdownID {
		win.OpenDropdownID = nil
		return false, true
	}
	win.OpenDropdownID = &dropdownID
	return true, true
}

// ChooseDropdownItem closes the dropdown a choice was made in.
func (m *Manager) ChooseDropdownItem(windowID, dropdownID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[windowID]
	if !ok {
		return false
	}
	if win.OpenDropdownID != nil && *win.OpenDropdownID == dropdownID {
		win.OpenDropdownID = nil
	}
	return true
}

// CloseAllDropdowns handles a click elsewhere in the control panel.
func (m *Manager) CloseAllDropdowns(windowID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[windowID]
	if !ok {
		return false
	}
	win.OpenDropdownID = nil
	return true
}

// SetPosition applies a drag position update. Visual state only: no
// event is published.
func (m *Manager) SetPosition(windowID string, pos types.Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[windowID]
	if !ok {
		return false
	}
	win.Position = pos
	return true
}

// SetDragging flips a window's dragging flag.
func (m *Manager) SetDragging(windowID string, dragging bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if win, ok := m.windows[windowID]; ok {
		win.Dragging = dragging
	}
}

// Stats returns manager statistics.
func (m *Manager) Stats() types.DesktopStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.DesktopStats{TotalWindows: len(m.windows)}
	for _, win := range m.windows {
		if win.Minimized {
			stats.MinimizedWindows++
		}
		if win.Focused {
			winID := win.ID
			stats.FocusedWindowID = &winID
		}
	}
	return stats
}

// applyFocus reacts to a focus broadcast: every window's flag becomes
// the result of comparing its id with the focused one.
func (m *Manager) applyFocus(focusedID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, win := range m.windows {
		win.Focused = win.ID == focusedID
	}
}
