package types

// Desktop event types published on the application bus. Window position
// updates during a drag are deliberately absent: position is visual state
// streamed straight to the shell, not shared application state.
const (
	EventWindowOpened         = "window.opened"
	EventWindowCloseRequested = "window.close_requested"
	EventWindowClosed         = "window.closed"
	EventWindowMinimized      = "window.minimized"
	EventWindowMaximized      = "window.maximized"
	EventFocusChanged         = "desktop.focus_changed"
)

// Event is a bubbling application event crossing component boundaries.
type Event struct {
	Type     string         `json:"type"`
	WindowID string         `json:"window_id,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}
