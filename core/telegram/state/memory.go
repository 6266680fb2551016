package state

import (
	"context"
	"sync"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryManager constructs an in-memory Manager. Pending steps are lost on restart.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]Session),
	}
}

// Get returns the session for a chat if it exists, otherwise an idle session.
func (m *memoryManager) Get(_ context.Context, chatID int64) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sess, ok := m.sessions[chatID]; ok {
		return sess.clone(), nil
	}
	return Idle(), nil
}

// Put replaces the chat session.
func (m *memoryManager) Put(_ context.Context, chatID int64, sess Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !sess.Active() {
		delete(m.sessions, chatID)
		return nil
	}
	m.sessions[chatID] = sess.clone()
	return nil
}

// Clear removes the entire session for a chat.
func (m *memoryManager) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
	return nil
}
