package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

var sessionIDPattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// maxIDAttempts bounds the retries when a generated ID collides
const maxIDAttempts = 16

// Manager handles game session lifecycle
type Manager struct {
	sessions    map[string]*service.Session
	stored      map[string]bool // sessions known to have a copy in persistence
	persistence SessionPersistence
	engineOpts  []engine.Option
	mu          sync.RWMutex
}

// NewManager creates a new in-memory session manager. opts are passed to every
// engine it creates.
func NewManager(opts ...engine.Option) *Manager {
	return &Manager{
		sessions:   make(map[string]*service.Session),
		stored:     make(map[string]bool),
		engineOpts: opts,
	}
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, opts ...engine.Option) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		stored:      make(map[string]bool),
		persistence: persistence,
		engineOpts:  opts,
	}
}

// normalizeSessionID lowercases id and checks its shape
func normalizeSessionID(id string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(id))
	if !sessionIDPattern.MatchString(lower) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return lower, nil
}

// Create creates a new session with the given ID and configuration. An empty id
// gets a random 4-character one.
func (m *Manager) Create(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	eng, err := engine.NewEngine(config, m.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	if id == "" {
		id, err = m.generateSessionID()
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
	} else {
		id, err = normalizeSessionID(id)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		if m.sessionExists(id) {
			m.mu.Unlock()
			return nil, ErrSessionAlreadyExists
		}
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		ConfigID:       configID,
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[id] = session
	m.mu.Unlock()

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("failed to persist new session")
		} else {
			m.markStored(id)
		}
	}

	return session, nil
}

// Get retrieves a session by ID (case-insensitive), loading it from persistence
// when it is not in memory
func (m *Manager) Get(id string) (*service.Session, error) {
	lowerID, err := normalizeSessionID(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	m.mu.RLock()
	session, exists := m.sessions[lowerID]
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	if m.persistence != nil && m.persistence.Exists(lowerID) {
		session, err := m.persistence.Load(lowerID, m.engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}

		m.mu.Lock()
		// Another caller may have loaded it meanwhile
		if existing, ok := m.sessions[lowerID]; ok {
			session = existing
		} else {
			m.sessions[lowerID] = session
			m.stored[lowerID] = true
		}
		m.mu.Unlock()

		return session, nil
	}

	return nil, ErrSessionNotFound
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, configID, config)
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session from memory and from persistence
func (m *Manager) Delete(id string) error {
	lowerID, err := normalizeSessionID(id)
	if err != nil {
		return ErrSessionNotFound
	}

	m.mu.Lock()
	_, inMemory := m.sessions[lowerID]
	delete(m.sessions, lowerID)
	delete(m.stored, lowerID)
	m.mu.Unlock()

	if m.persistence != nil && m.persistence.Exists(lowerID) {
		if err := m.persistence.Delete(lowerID); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	if _, exists := m.sessions[lowerID]; exists {
		delete(m.sessions, lowerID)
		delete(m.stored, lowerID)
		return nil
	}

	return ErrSessionNotFound
}

// UpdateLastAccessed updates the last accessed time for a session. Persisting
// the new time is left to the next Save.
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}

	session.LastAccessedAt = time.Now()
	return nil
}

// Save saves a specific session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	if err := m.persistence.Save(session); err != nil {
		return err
	}
	m.markStored(session.ID)
	return nil
}

// markStored records that id has a copy in persistence
func (m *Manager) markStored(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, live := m.sessions[id]; live {
		m.stored[id] = true
	}
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given
// duration. Persisted copies are kept and reload on next access.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			delete(m.stored, id)
			removed++
		}
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Dur("max_age", maxAge).Msg("expired sessions cleaned up")
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID returns an unused random 4-character ID. Callers hold m.mu.
func (m *Manager) generateSessionID() (string, error) {
	bytes := make([]byte, 2)
	for i := 0; i < maxIDAttempts; i++ {
		if _, err := rand.Read(bytes); err != nil {
			return "", fmt.Errorf("failed to generate session ID: %w", err)
		}
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no free ID after %d attempts", ErrSessionAlreadyExists, maxIDAttempts)
}

// sessionExists checks if a session exists in memory or in storage
func (m *Manager) sessionExists(id string) bool {
	if _, exists := m.sessions[id]; exists {
		return true
	}
	return m.persistence != nil && m.persistence.Exists(id)
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loadedCount := 0
	for _, id := range sessionIDs {
		lowerID := strings.ToLower(id)
		if _, exists := m.sessions[lowerID]; exists {
			continue
		}

		session, err := m.persistence.Load(id, m.engineOpts...)
		if err != nil {
			log.Warn().Err(err).Str("session", id).Msg("failed to load persisted session")
			continue
		}

		m.sessions[lowerID] = session
		m.stored[lowerID] = true
		loadedCount++
	}

	if loadedCount > 0 {
		log.Info().Int("count", loadedCount).Msg("loaded persisted sessions")
	}

	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence. A session whose
// stored copy was deleted elsewhere is dropped from memory instead of written back.
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	sessions := make([]*service.Session, 0, len(m.sessions))
	wasStored := make(map[string]bool, len(m.sessions))
	for id, session := range m.sessions {
		sessions = append(sessions, session)
		wasStored[id] = m.stored[id]
	}
	m.mu.RUnlock()

	errorCount := 0
	for _, session := range sessions {
		if wasStored[session.ID] && !m.persistence.Exists(session.ID) {
			m.mu.Lock()
			if m.sessions[session.ID] == session {
				delete(m.sessions, session.ID)
				delete(m.stored, session.ID)
			}
			m.mu.Unlock()
			log.Info().Str("session", session.ID).Msg("stored copy deleted, dropping session")
			continue
		}

		if err := m.persistence.Save(session); err != nil {
			log.Warn().Err(err).Str("session", session.ID).Msg("failed to save session")
			errorCount++
			continue
		}
		m.markStored(session.ID)
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}

	return nil
}
