package types

// Point is a position on the desktop surface.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Bounds describes the desktop surface a window may be dragged within.
type Bounds struct {
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// WindowConfig is the typed configuration a window is opened with.
type WindowConfig struct {
	ID       string `json:"id,omitempty"` // generated when empty
	Title    string `json:"title"`
	Icon     string `json:"icon,omitempty"`
	Position Point  `json:"position"`
	Kind     string `json:"kind,omitempty"` // body-content provider, e.g. "chat"
}

// WindowInstance is the authoritative state of one open window.
type WindowInstance struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Icon           string  `json:"icon,omitempty"`
	Kind           string  `json:"kind,omitempty"`
	Position       Point   `json:"position"`
	Focused        bool    `json:"focused"`
	Dragging       bool    `json:"dragging"`
	Minimized      bool    `json:"minimized"`
	Maximized      bool    `json:"maximized"`
	OpenDropdownID *string `json:"open_dropdown_id,omitempty"`
}

// DragSnapshot is a read-only view of the active drag session, if any.
type DragSnapshot struct {
	WindowID string `json:"window_id"`
	Offset   Point  `json:"offset"`
	Bounds   Bounds `json:"bounds"`
}

// DesktopStats summarizes window manager state.
type DesktopStats struct {
	TotalWindows     int     `json:"total_windows"`
	MinimizedWindows int     `json:"minimized_windows"`
	FocusedWindowID  *string `json:"focused_window_id,omitempty"`
}
