package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/webtop-sh/webtop/internal/api/http"
	"github.com/webtop-sh/webtop/internal/api/middleware"
	"github.com/webtop-sh/webtop/internal/api/ws"
	"github.com/webtop-sh/webtop/internal/domain/chat"
	"github.com/webtop-sh/webtop/internal/domain/drag"
	"github.com/webtop-sh/webtop/internal/domain/message"
	"github.com/webtop-sh/webtop/internal/domain/window"
	"github.com/webtop-sh/webtop/internal/infrastructure/config"
	"github.com/webtop-sh/webtop/internal/infrastructure/logging"
	"github.com/webtop-sh/webtop/internal/infrastructure/monitoring"
	"github.com/webtop-sh/webtop/internal/infrastructure/pubsub"
	"github.com/webtop-sh/webtop/internal/infrastructure/storage"
	"github.com/webtop-sh/webtop/internal/shared/types"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	windows *window.Manager
	drag    *drag.Coordinator
	chat    *chat.Service
	bus     *pubsub.Bus
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer assembles the desktop backend: one event bus, one drag
// coordinator, one window manager, one chat service, all injected
// explicitly from here.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing webtop server",
		zap.String("port", cfg.Server.Port),
		zap.String("relay_url", cfg.Relay.URL),
		zap.String("storage_path", cfg.Storage.Path),
	)

	metrics := monitoring.NewMetrics()

	kv, err := storage.NewFileStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	bus := pubsub.New()

	bounds := types.Bounds{MaxX: cfg.Desktop.MaxX, MaxY: cfg.Desktop.MaxY}
	windows := window.NewManager(bus, bounds, logger).WithMetrics(metrics)
	dragCoord := drag.New(windows, logger).WithMetrics(metrics)
	windows.WithDragContext(dragCoord)

	hub := ws.NewHub(bus, dragCoord, logger).WithMetrics(metrics)

	chatSvc := chat.NewService(chat.Deps{
		Store:          message.New(kv),
		Identity:       chat.NewIdentityStore(kv),
		Dialer:         chat.NewDialer(cfg.Relay, logger),
		Render:         hub,
		DefaultChannel: cfg.Chat.DefaultChannel,
		RelayKey:       cfg.Relay.Key,
		Log:            logger,
		Metrics:        metrics,
	})

	// Chat sessions follow the window lifecycle.
	bus.Subscribe(types.EventWindowOpened, func(ev types.Event) {
		if kind, _ := ev.Payload["kind"].(string); kind == "chat" {
			chatSvc.Open(ev.WindowID)
		}
	})
	bus.Subscribe(types.EventWindowClosed, func(ev types.Event) {
		chatSvc.Close(ev.WindowID)
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	handlers := apihttp.NewHandlers(windows, dragCoord, chatSvc, bus, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/stats", handlers.Stats)

	// Window lifecycle
	router.POST("/windows", handlers.OpenWindow)
	router.GET("/windows", handlers.ListWindows)
	router.GET("/windows/:id", handlers.GetWindow)
	router.DELETE("/windows/:id", handlers.CloseWindow)
	router.POST("/windows/:id/focus", handlers.FocusWindow)
	router.POST("/windows/:id/action", handlers.WindowAction)
	router.POST("/windows/:id/restore", handlers.RestoreWindow)
	router.POST("/windows/:id/dropdown", handlers.Dropdown)

	// Drag sessions
	router.POST("/windows/:id/drag/start", handlers.StartDrag)
	router.POST("/drag/move", handlers.MoveDrag)
	router.POST("/drag/end", handlers.EndDrag)

	// Chat sessions
	router.GET("/chat/:id", handlers.GetChatSession)
	router.POST("/chat/:id/username", handlers.SubmitUsername)
	router.POST("/chat/:id/channel", handlers.SubmitChannel)
	router.POST("/chat/:id/message", handlers.SendChatMessage)
	router.POST("/chat/:id/change-channel", handlers.ChangeChannel)
	router.POST("/chat/:id/change-username", handlers.ChangeUsername)

	// WebSocket
	router.GET("/stream", hub.HandleConnection)

	// Metrics
	router.GET("/metrics", monitoring.Handler())

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		windows: windows,
		drag:    dragCoord,
		chat:    chatSvc,
		bus:     bus,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	// Relay connections persist their disconnect notices on close.
	s.chat.CloseAll()

	s.logger.Sync()
	return nil
}
