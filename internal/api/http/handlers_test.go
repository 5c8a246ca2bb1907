package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtop-sh/webtop/internal/domain/chat"
	"github.com/webtop-sh/webtop/internal/domain/drag"
	"github.com/webtop-sh/webtop/internal/domain/message"
	"github.com/webtop-sh/webtop/internal/domain/window"
	"github.com/webtop-sh/webtop/internal/infrastructure/config"
	"github.com/webtop-sh/webtop/internal/infrastructure/logging"
	"github.com/webtop-sh/webtop/internal/infrastructure/pubsub"
	"github.com/webtop-sh/webtop/internal/infrastructure/storage"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

type nullSink struct{}

func (nullSink) RenderLog(string, string, []types.ChatMessage) {}
func (nullSink) ScrollToLatest(string)                         {}
func (nullSink) Clear(string)                                  {}

// newTestRouter assembles the control API exactly the way the server
// composition root does, minus the websocket hub and metrics.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.NewNop()
	bus := pubsub.New()
	kv := storage.NewMemStore()

	windows := window.NewManager(bus, types.Bounds{MaxX: 1920, MaxY: 1080}, log)
	dragCoord := drag.New(windows, log)
	windows.WithDragContext(dragCoord)

	chatSvc := chat.NewService(chat.Deps{
		Store:          message.New(kv),
		Identity:       chat.NewIdentityStore(kv),
		Dialer:         chat.NewDialer(config.RelayConfig{URL: "ws://127.0.0.1:1/chat"}, log),
		Render:         nullSink{},
		DefaultChannel: "general",
		Log:            log,
	})
	bus.Subscribe(types.EventWindowOpened, func(ev types.Event) {
		if kind, _ := ev.Payload["kind"].(string); kind == "chat" {
			chatSvc.Open(ev.WindowID)
		}
	})
	bus.Subscribe(types.EventWindowClosed, func(ev types.Event) {
		chatSvc.Close(ev.WindowID)
	})

	handlers := NewHandlers(windows, dragCoord, chatSvc, bus, log)

	router := gin.New()
	router.POST("/windows", handlers.OpenWindow)
	router.GET("/windows", handlers.ListWindows)
	router.GET("/windows/:id", handlers.GetWindow)
	router.DELETE("/windows/:id", handlers.CloseWindow)
	router.POST("/windows/:id/focus", handlers.FocusWindow)
	router.POST("/windows/:id/action", handlers.WindowAction)
	router.POST("/windows/:id/restore", handlers.RestoreWindow)
	router.POST("/windows/:id/dropdown", handlers.Dropdown)
	router.POST("/windows/:id/drag/start", handlers.StartDrag)
	router.POST("/drag/move", handlers.MoveDrag)
	router.POST("/drag/end", handlers.EndDrag)
	router.GET("/chat/:id", handlers.GetChatSession)
	router.POST("/chat/:id/username", handlers.SubmitUsername)
	router.POST("/chat/:id/channel", handlers.SubmitChannel)
	router.POST("/chat/:id/message", handlers.SendChatMessage)
	router.GET("/stats", handlers.Stats)
	router.GET("/health", handlers.Health)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func openWindow(t *testing.T, router *gin.Engine, id, kind string) {
	t.Helper()
	w, _ := doJSON(t, router, http.MethodPost, "/windows", gin.H{
		"id":       id,
		"title":    "Test",
		"kind":     kind,
		"position": gin.H{"x": 100, "y": 100},
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func getWindow(t *testing.T, router *gin.Engine, id string) map[string]any {
	t.Helper()
	w, resp := doJSON(t, router, http.MethodGet, "/windows/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	return resp["window"].(map[string]any)
}

func TestOpenWindowGrantsFocus(t *testing.T) {
	router := newTestRouter(t)

	openWindow(t, router, "win-a", "app")
	assert.Equal(t, true, getWindow(t, router, "win-a")["focused"])

	// The next window takes focus from the first.
	openWindow(t, router, "win-b", "app")
	assert.Equal(t, false, getWindow(t, router, "win-a")["focused"])
	assert.Equal(t, true, getWindow(t, router, "win-b")["focused"])
}

func TestFocusIsExclusive(t *testing.T) {
	router := newTestRouter(t)
	openWindow(t, router, "win-a", "app")
	openWindow(t, router, "win-b", "app")

	w, _ := doJSON(t, router, http.MethodPost, "/windows/win-a/focus", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, true, getWindow(t, router, "win-a")["focused"])
	assert.Equal(t, false, getWindow(t, router, "win-b")["focused"])

	w, _ = doJSON(t, router, http.MethodPost, "/windows/missing/focus", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloseActionDoesNotRemoveWindow(t *testing.T) {
	router := newTestRouter(t)
	openWindow(t, router, "win-a", "app")

	w, _ := doJSON(t, router, http.MethodPost, "/windows/win-a/action", gin.H{"action": "close"})
	require.Equal(t, http.StatusOK, w.Code)

	// The action only requests removal; the window is still there until
	// the shell confirms with DELETE.
	w, _ = doJSON(t, router, http.MethodGet, "/windows/win-a", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodDelete, "/windows/win-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, router, http.MethodGet, "/windows/win-a", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMinimizeAndRestore(t *testing.T) {
	router := newTestRouter(t)
	openWindow(t, router, "win-a", "app")

	doJSON(t, router, http.MethodPost, "/windows/win-a/action", gin.H{"action": "minimize"})
	assert.Equal(t, true, getWindow(t, router, "win-a")["minimized"])

	w, _ := doJSON(t, router, http.MethodPost, "/windows/win-a/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	win := getWindow(t, router, "win-a")
	assert.Equal(t, false, win["minimized"])
	assert.Equal(t, true, win["focused"])
}

func TestUnknownTitleBarAction(t *testing.T) {
	router := newTestRouter(t)
	openWindow(t, router, "win-a", "app")

	w, resp := doJSON(t, router, http.MethodPost, "/windows/win-a/action", gin.H{"action": "explode"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestDropdownExclusivity(t *testing.T) {
	router := newTestRouter(t)
	openWindow(t, router, "win-a", "app")

	w, resp := doJSON(t, router, http.MethodPost, "/windows/win-a/dropdown", gin.H{"op": "toggle", "dropdown_id": "file"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["open"])

	// Opening a sibling closes the first one implicitly.
	_, resp = doJSON(t, router, http.MethodPost, "/windows/win-a/dropdown", gin.H{"op": "toggle", "dropdown_id": "edit"})
	assert.Equal(t, true, resp["open"])
	assert.Equal(t, "edit", getWindow(t, router, "win-a")["open_dropdown_id"])

	// Toggling the open one closes it.
	_, resp = doJSON(t, router, http.MethodPost, "/windows/win-a/dropdown", gin.H{"op": "toggle", "dropdown_id": "edit"})
	assert.Equal(t, false, resp["open"])
	assert.Nil(t, getWindow(t, router, "win-a")["open_dropdown_id"])
}

func TestDragRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	openWindow(t, router, "win-a", "app")

	w, resp := doJSON(t, router, http.MethodPost, "/windows/win-a/drag/start", gin.H{
		"pointer": gin.H{"x": 110, "y": 120},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["started"])

	_, resp = doJSON(t, router, http.MethodPost, "/drag/move", gin.H{"x": 500, "y": 400})
	require.Equal(t, true, resp["dragging"])
	pos := resp["position"].(map[string]any)
	assert.Equal(t, float64(490), pos["x"])
	assert.Equal(t, float64(380), pos["y"])

	w, _ = doJSON(t, router, http.MethodPost, "/drag/end", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, resp = doJSON(t, router, http.MethodPost, "/drag/move", gin.H{"x": 600, "y": 500})
	assert.Equal(t, false, resp["dragging"])
}

func TestDragStartFromTitleButtonIgnored(t *testing.T) {
	router := newTestRouter(t)
	openWindow(t, router, "win-a", "app")

	_, resp := doJSON(t, router, http.MethodPost, "/windows/win-a/drag/start", gin.H{
		"pointer":           gin.H{"x": 110, "y": 120},
		"from_title_button": true,
	})
	assert.Equal(t, false, resp["started"])
}

func TestChatSessionFollowsWindowLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// No session before any chat window exists.
	w, _ := doJSON(t, router, http.MethodGet, "/chat/win-c", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	openWindow(t, router, "win-c", "chat")
	w, resp := doJSON(t, router, http.MethodGet, "/chat/win-c", nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := resp["session"].(map[string]any)
	assert.Equal(t, "username-choice", session["state"])

	doJSON(t, router, http.MethodDelete, "/windows/win-c", nil)
	w, _ = doJSON(t, router, http.MethodGet, "/chat/win-c", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatFormValidation(t *testing.T) {
	router := newTestRouter(t)
	openWindow(t, router, "win-c", "chat")

	// Blank username.
	w, _ := doJSON(t, router, http.MethodPost, "/chat/win-c/username", gin.H{"username": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Channel form before the username form.
	w, _ = doJSON(t, router, http.MethodPost, "/chat/win-c/channel", gin.H{"channel": "lobby"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := doJSON(t, router, http.MethodPost, "/chat/win-c/username", gin.H{"username": "al"})
	require.Equal(t, http.StatusOK, w.Code)
	session := resp["session"].(map[string]any)
	assert.Equal(t, "channel-choice", session["state"])
}

func TestStats(t *testing.T) {
	router := newTestRouter(t)
	openWindow(t, router, "win-a", "app")
	openWindow(t, router, "win-b", "app")
	doJSON(t, router, http.MethodPost, "/windows/win-a/action", gin.H{"action": "minimize"})

	w, resp := doJSON(t, router, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := resp["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["total_windows"])
	assert.Equal(t, float64(1), stats["minimized_windows"])
	assert.Equal(t, "win-b", stats["focused_window_id"])
}
