package chat

import (
	"sync"

	"go.uber.org/zap"
)

// Service tracks one session controller per open chat window. The
// server wires it to window lifecycle events: a chat window opening
// creates a session, the window closing destroys it.
type Service struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewService creates an empty chat service.
func NewService(deps Deps) *Service {
	return &Service{
		deps:     deps,
		sessions: make(map[string]*Controller),
	}
}

// Open returns the session for a window, creating it on first use.
func (s *Service) Open(windowID string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctrl, ok := s.sessions[windowID]; ok {
		return ctrl
	}
	ctrl := NewController(windowID, s.deps)
	s.sessions[windowID] = ctrl
	return ctrl
}

// Get retrieves the session for a window, if any.
func (s *Service) Get(windowID string) (*Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctrl, ok := s.sessions[windowID]
	return ctrl, ok
}

// Close shuts down and removes a window's session. Safe to call for
// windows that never hosted chat.
func (s *Service) Close(windowID string) {
	s.mu.Lock()
	ctrl, ok := s.sessions[windowID]
	delete(s.sessions, windowID)
	s.mu.Unlock()

	if ok {
		ctrl.Shutdown()
		s.deps.Log.Info("chat session closed", zap.String("window_id", windowID))
	}
}

// CloseAll shuts down every session; relay connections are closed
// proactively on server teardown.
func (s *Service) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Controller)
	s.mu.Unlock()

	for _, ctrl := range sessions {
		ctrl.Shutdown()
	}
}
