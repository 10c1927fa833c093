package session

import (
	"github.com/querylens/querylens/internal/cache"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/logging"
)

// Manager hands out sessions by ID and forgets sessions that stay idle for
// longer than the configured timeout.
type Manager struct {
	sessions *cache.TTLCache[*Session]
	logger   *logging.Logger
}

// NewManager creates a manager.
func NewManager(cfg config.SessionConfig, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		sessions: cache.New[*Session](cfg.IdleTimeout, cfg.CleanupInterval),
		logger:   logger,
	}
	m.sessions.SetOnEvict(func(id string, _ *Session) {
		m.logger.Debug("Session expired", "session_id", id)
	})
	return m
}

// Get returns the session for id, creating it on first use. Every call
// extends the session's idle deadline.
func (m *Manager) Get(id string) *Session {
	s, created := m.sessions.GetOrCreate(id, func() *Session { return New(id) })
	if created {
		m.logger.Debug("Session created", "session_id", id)
	}
	return s
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	return m.sessions.Get(id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Stats reports session cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return m.sessions.Stats()
}

// Close stops the expiry janitor.
func (m *Manager) Close() {
	m.sessions.Stop()
}
