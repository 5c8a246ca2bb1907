package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webtop-sh/webtop/internal/domain/chat"
	"github.com/webtop-sh/webtop/internal/domain/drag"
	"github.com/webtop-sh/webtop/internal/domain/window"
	"github.com/webtop-sh/webtop/internal/infrastructure/logging"
	"github.com/webtop-sh/webtop/internal/infrastructure/pubsub"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

// Handlers holds the control API endpoints and their dependencies.
type Handlers struct {
	windows *window.Manager
	drag    *drag.Coordinator
	chat    *chat.Service
	bus     *pubsub.Bus
	log     *logging.Logger
}

// NewHandlers creates the control API handler set.
func NewHandlers(windows *window.Manager, dragCoord *drag.Coordinator, chatSvc *chat.Service, bus *pubsub.Bus, log *logging.Logger) *Handlers {
	return &Handlers{
		windows: windows,
		drag:    dragCoord,
		chat:    chatSvc,
		bus:     bus,
		log:     log,
	}
}

// OpenWindow creates a window and grants it focus.
func (h *Handlers) OpenWindow(c *gin.Context) {
	var req struct {
		ID       string      `json:"id"`
		Title    string      `json:"title"`
		Icon     string      `json:"icon"`
		Kind     string      `json:"kind"`
		Position types.Point `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	win, err := h.windows.Open(types.WindowConfig{
		ID:       req.ID,
		Title:    req.Title,
		Icon:     req.Icon,
		Kind:     req.Kind,
		Position: req.Position,
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	// A freshly opened window always takes focus.
	h.bus.Publish(types.Event{Type: types.EventFocusChanged, WindowID: win.ID})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"window":  win,
	})
}

// ListWindows returns every window on the desktop.
func (h *Handlers) ListWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"windows": h.windows.List(),
	})
}

// GetWindow returns a single window.
func (h *Handlers) GetWindow(c *gin.Context) {
	win, ok := h.windows.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "window not found",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"window":  win,
	})
}

// CloseWindow destroys a window.
func (h *Handlers) CloseWindow(c *gin.Context) {
	id := c.Param("id")
	if !h.windows.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "window not found",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"window_id": id,
	})
}

// FocusWindow broadcasts a focus change toward the given window. Every
// window recomputes its own flag from the broadcast, so focus stays
// exclusive without the shell visiting each window.
func (h *Handlers) FocusWindow(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.windows.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "window not found",
		})
		return
	}

	h.bus.Publish(types.Event{Type: types.EventFocusChanged, WindowID: id})
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"window_id": id,
	})
}

// WindowAction dispatches a title-bar button press.
func (h *Handlers) WindowAction(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.windows.HandleTitleBarAction(c.Param("id"), req.Action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"action":  req.Action,
	})
}

// RestoreWindow unhides a minimized window.
func (h *Handlers) RestoreWindow(c *gin.Context) {
	id := c.Param("id")
	if !h.windows.Restore(id) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "window not found",
		})
		return
	}

	// Restoring from the taskbar also grants focus.
	h.bus.Publish(types.Event{Type: types.EventFocusChanged, WindowID: id})
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"window_id": id,
	})
}

// Dropdown operates a window's control-panel dropdowns.
func (h *Handlers) Dropdown(c *gin.Context) {
	var req struct {
		Op         string `json:"op" binding:"required"`
		DropdownID string `json:"dropdown_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	id := c.Param("id")
	switch req.Op {
	case "toggle":
		open, ok := h.windows.ToggleDropdown(id, req.DropdownID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "window not found",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"open":    open,
		})
	case "choose":
		if !h.windows.ChooseDropdownItem(id, req.DropdownID) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "window not found",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	case "dismiss":
		if !h.windows.CloseAllDropdowns(id) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "window not found",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid op. Must be toggle, choose, or dismiss",
		})
	}
}

// StartDrag begins a drag session from a title-bar pointer-down.
func (h *Handlers) StartDrag(c *gin.Context) {
	var req struct {
		Pointer         types.Point   `json:"pointer"`
		FromTitleButton bool          `json:"from_title_button"`
		Bounds          *types.Bounds `json:"bounds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	started := h.windows.StartDrag(c.Param("id"), req.Pointer, req.FromTitleButton, req.Bounds)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"started": started,
	})
}

// MoveDrag applies a pointer position to the active drag session. The
// websocket stream is the normal path for pointer moves; this endpoint
// exists for shells that poll instead.
func (h *Handlers) MoveDrag(c *gin.Context) {
	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	windowID, pos, ok := h.drag.Move(types.Point{X: req.X, Y: req.Y})
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"dragging":  ok,
		"window_id": windowID,
		"position":  pos,
	})
}

// EndDrag clears the active drag session.
func (h *Handlers) EndDrag(c *gin.Context) {
	h.drag.End()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetChatSession returns a chat window's session view.
func (h *Handlers) GetChatSession(c *gin.Context) {
	ctrl, ok := h.chat.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "no chat session for window",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": ctrl.View(),
	})
}

// SubmitUsername handles the username form.
func (h *Handlers) SubmitUsername(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Remember bool   `json:"remember"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.chatCall(c, func(ctrl *chat.Controller) error {
		return ctrl.SubmitUsername(req.Username, req.Remember)
	})
}

// SubmitChannel handles the channel form.
func (h *Handlers) SubmitChannel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.chatCall(c, func(ctrl *chat.Controller) error {
		return ctrl.SubmitChannel(c.Request.Context(), req.Channel)
	})
}

// SendChatMessage relays a message from the chat input.
func (h *Handlers) SendChatMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.chatCall(c, func(ctrl *chat.Controller) error {
		return ctrl.SendMessage(req.Message)
	})
}

// ChangeChannel returns the session to channel selection.
func (h *Handlers) ChangeChannel(c *gin.Context) {
	h.chatCall(c, func(ctrl *chat.Controller) error {
		return ctrl.ChangeChannel()
	})
}

// ChangeUsername returns the session to username capture and forgets
// the persisted identity.
func (h *Handlers) ChangeUsername(c *gin.Context) {
	h.chatCall(c, func(ctrl *chat.Controller) error {
		return ctrl.ChangeUsername()
	})
}

// chatCall runs a session operation for the window in the route and
// writes the resulting view or a mapped error.
func (h *Handlers) chatCall(c *gin.Context, op func(*chat.Controller) error) {
	ctrl, ok := h.chat.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "no chat session for window",
		})
		return
	}

	if err := op(ctrl); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chat.ErrBlankSubmission) || errors.Is(err, chat.ErrWrongState) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": ctrl.View(),
	})
}

// Stats returns desktop statistics.
func (h *Handlers) Stats(c *gin.Context) {
	stats := h.windows.Stats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"total_windows":     stats.TotalWindows,
			"minimized_windows": stats.MinimizedWindows,
			"focused_window_id": stats.FocusedWindowID,
		},
	})
}

// Health reports service liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "webtop",
	})
}

// Root describes the service.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "webtop",
		"version": "1.0.0",
		"endpoints": gin.H{
			"windows": "/windows",
			"chat":    "/chat/:id",
			"stream":  "/stream",
			"health":  "/health",
			"metrics": "/metrics",
		},
	})
}
