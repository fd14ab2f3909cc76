package engagement

import "sync"

// Manager maps authenticated users to their feed sessions. Session state is
// an explicit value with a defined lifecycle: created on first use after
// sign-in, dropped wholesale on sign-out.
type Manager struct {
	mu         sync.Mutex
	controller *Controller
	sessions   map[uint]*Session
}

// NewManager creates a new Manager
func NewManager(controller *Controller) *Manager {
	return &Manager{
		controller: controller,
		sessions:   make(map[uint]*Session),
	}
}

// Session returns the user's feed session, creating it on first use
func (m *Manager) Session(userID uint) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := m.controller.NewSession(userID)
	m.sessions[userID] = s
	return s
}

// Drop discards a user's session, e.g. on sign-out
func (m *Manager) Drop(userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
