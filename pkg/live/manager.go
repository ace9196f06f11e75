package live

import (
	"log/slog"
	"sync"
	"time"

	"github.com/loom-ui/loom/pkg/live/protocol"
	"github.com/loom-ui/loom/pkg/middleware"
)

const sweepInterval = 30 * time.Second

// Manager tracks active sessions, evicts idle ones, and fans frames
// out to all of them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idle   time.Duration
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
}

// NewManager creates a manager. idle <= 0 disables idle eviction.
func NewManager(idle time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		idle:     idle,
		logger:   logger.With("component", "session_manager"),
		done:     make(chan struct{}),
	}
	if idle > 0 {
		go m.sweep()
	}
	return m
}

// Add registers a session and hooks its close into the registry.
func (m *Manager) Add(s *Session) {
	s.onClose = m.remove
	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	middleware.RecordSessionOpen()
	m.logger.Info("session created", "session_id", s.ID, "active_sessions", count)
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	_, ok := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	if ok {
		middleware.RecordSessionClose()
	}
}

// Get looks a session up by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Broadcast queues a frame on every session. The dev watcher uses this
// to push reload frames.
func (m *Manager) Broadcast(f protocol.Frame) {
	m.mu.RLock()
	targets := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	for _, s := range targets {
		s.Send(f)
	}
}

func (m *Manager) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idle)

	m.mu.RLock()
	var stale []*Session
	for _, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range stale {
		m.logger.Info("evicting idle session", "session_id", s.ID)
		s.Close()
	}
}

// Shutdown closes every session and stops the sweeper.
func (m *Manager) Shutdown() {
	m.once.Do(func() { close(m.done) })

	m.mu.RLock()
	targets := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	for _, s := range targets {
		s.Close()
	}
}
