package review

import (
	"sort"
	"sync"
	"time"

	"github.com/garyjia/basket-allowance/internal/eligibility"
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one review of one calculation run
type Session struct {
	ID                string                          `json:"id"`
	CreatedAt         time.Time                       `json:"created_at"`
	Cutoff            time.Time                       `json:"cutoff"`
	Store             *Store                          `json:"-"`
	Excluded          []eligibility.Exclusion         `json:"excluded"`
	RowWarnings       []models.RowWarning             `json:"row_warnings"`
	UnknownCategories []models.UnknownCategoryWarning `json:"unknown_categories"`
}

// Manager owns the open review sessions
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *zap.Logger
}

// NewManager creates a session manager. Sessions older than ttl are dropped
// when new sessions are opened; ttl <= 0 keeps sessions until deleted.
func NewManager(ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger,
	}
}

// Open registers a new session and assigns its id
func (m *Manager) Open(s *Session) *Session {
	s.ID = uuid.New().String()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ttl > 0 {
		m.pruneLocked(s.CreatedAt.Add(-m.ttl))
	}
	m.sessions[s.ID] = s

	m.logger.Info("Review session opened",
		zap.String("session_id", s.ID),
		zap.Int("employees", s.Store.Len()),
		zap.Int("excluded", len(s.Excluded)))
	return s
}

// Get returns a session by id
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close removes a session
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.logger.Info("Review session closed", zap.String("session_id", id))
	return nil
}

// List returns the open sessions, newest first
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// Expire drops the sessions older than the ttl at now and returns how many
// were removed. It does nothing when the ttl is not positive.
func (m *Manager) Expire(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked(now.Add(-m.ttl))
}

func (m *Manager) pruneLocked(before time.Time) int {
	removed := 0
	for id, s := range m.sessions {
		if s.CreatedAt.Before(before) {
			delete(m.sessions, id)
			removed++
			m.logger.Info("Review session expired", zap.String("session_id", id))
		}
	}
	return removed
}
