package session

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/richinex/tripsense/metrics"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Manager tracks live sessions by id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
	recorder []metrics.Option
}

// NewManager creates an empty Manager. recorderOpts apply to the metrics
// recorder of every session it creates.
func NewManager(logger *slog.Logger, recorderOpts ...metrics.Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
		recorder: recorderOpts,
	}
}

// Create starts a new session for userID.
func (m *Manager) Create(userID string) *Session {
	opts := append([]metrics.Option{metrics.WithLogger(m.logger)}, m.recorder...)
	s := New(userID, metrics.NewRecorder(opts...))

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes a session. It reports whether one existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// IDs returns the ids of all live sessions, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
