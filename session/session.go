// Package session holds the identity of the person using the tracker and the
// operating mode fixed at start.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Keys under which the session survives restarts
const (
	UserKey    = "shraddha-discipline-tracker-user"
	IsAdminKey = "shraddha-discipline-tracker-is-admin"
)

var ErrEmptyIdentifier = errors.New("user identifier cannot be blank")

// Storage is the persistent key/value store the session is kept in
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Session is the state shared by every component for one run of the service
type Session struct {
	User        string `json:"user"`
	IsAdmin     bool   `json:"isAdmin"`
	CloudActive bool   `json:"cloudActive"`
}

func (s Session) LoggedIn() bool {
	return s.User != ""
}

// Manager owns the current session and persists login state
type Manager struct {
	mu      sync.RWMutex
	storage Storage
	current Session
}

// NewManager restores a previous login from storage, if any. cloudActive is
// the operating mode and never changes for the life of the manager.
func NewManager(storage Storage, cloudActive bool) (*Manager, error) {
	m := &Manager{
		storage: storage,
		current: Session{CloudActive: cloudActive},
	}

	user, found, err := storage.Get(UserKey)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if found {
		m.current.User = user
	}
	admin, _, err := storage.Get(IsAdminKey)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	m.current.IsAdmin = admin == "true"
	return m, nil
}

// Current returns a copy of the session
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Login starts a session for identifier and persists it until Logout
func (m *Manager) Login(identifier string, admin bool) (Session, error) {
	if strings.TrimSpace(identifier) == "" {
		return Session{}, ErrEmptyIdentifier
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.storage.Set(UserKey, identifier); err != nil {
		return Session{}, err
	}
	adminValue := "false"
	if admin {
		adminValue = "true"
	}
	if err := m.storage.Set(IsAdminKey, adminValue); err != nil {
		return Session{}, err
	}

	m.current.User = identifier
	m.current.IsAdmin = admin
	return m.current, nil
}

// Logout clears the session and both persisted keys
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.User = ""
	m.current.IsAdmin = false
	return errors.Join(m.storage.Remove(UserKey), m.storage.Remove(IsAdminKey))
}
