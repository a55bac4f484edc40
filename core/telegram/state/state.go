// Package state provides a lightweight per-user FSM used to drive multi-step
// conversations. It is intentionally domain-agnostic.
package state

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// State identifies a finite-state-machine step in a conversation.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// Session stores conversation state and temporary answers for a user.
type Session struct {
	State    State
	TempData map[string]string
}

// Manager orchestrates user conversation sessions and FSM transitions.
type Manager interface {
	SetState(userID int64, st State)
	GetState(userID int64) State
	SetTemp(userID int64, key, value string)
	GetTemp(userID int64, key string) (string, bool)
	TempSnapshot(userID int64) map[string]string
	Clear(userID int64)

	InProgress(userID int64) bool
	Handle(st State, h tele.HandlerFunc)
	ManagerHandler(c tele.Context) error
}

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	handlers map[State]tele.HandlerFunc
}

// NewMemoryManager constructs an in-memory Manager implementation.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

func (m *memoryManager) session(userID int64) *Session {
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{State: StateIdle, TempData: make(map[string]string)}
		m.sessions[userID] = sess
	}
	return sess
}

// SetState sets the FSM state for the given user.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).State = st
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

// SetTemp stores a temporary answer for the given user session.
func (m *memoryManager) SetTemp(userID int64, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).TempData[key] = value
}

// GetTemp retrieves a temporary answer by key.
func (m *memoryManager) GetTemp(userID int64, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return "", false
	}
	v, ok := sess.TempData[key]
	return v, ok
}

// TempSnapshot returns a copy of all temporary answers for a user.
func (m *memoryManager) TempSnapshot(userID int64) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string)
	if sess, ok := m.sessions[userID]; ok {
		for k, v := range sess.TempData {
			out[k] = v
		}
	}
	return out
}

// Clear removes the entire conversation session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// Handle associates a state with its handler.
func (m *memoryManager) Handle(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// ManagerHandler executes the handler registered for the user's current state, if any.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	current := m.GetState(c.Sender().ID)
	m.mu.RLock()
	handler, ok := m.handlers[current]
	m.mu.RUnlock()
	if ok {
		return handler(c)
	}
	return nil
}
