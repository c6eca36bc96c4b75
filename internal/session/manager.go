// Package session resolves and tracks the requester's session for the
// current restaurant scope.
//
// A stored session is reused only when its restaurant slug matches the scope
// being entered; any mismatch forces a fresh resolution against the backend.
// Session state never blocks queue viewing, only mutations.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/services"
	"github.com/rockolahq/rockola/internal/shared"
)

// State is the lifecycle of the managed session.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateActive
	StateInvalid
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateActive:
		return "active"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Store abstracts local session persistence, satisfied by
// [repositories.SessionRepository].
type Store interface {
	Put(sess models.UserSession) error
	Get(restaurantSlug string) (*models.UserSession, error)
	Delete(restaurantSlug string) error
}

// Manager owns session resolution for one restaurant scope.
//
// Resolution order: reuse the stored record when its scope matches, otherwise
// create a fresh session through the backend and persist the replacement.
// All methods are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	backend services.Backend
	store   Store
	logger  *log.Logger

	state   State
	current *models.UserSession
}

// NewManager creates a [Manager]. The store may be nil, in which case
// sessions are never persisted and every resolution hits the backend.
func NewManager(backend services.Backend, store Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{backend: backend, store: store, logger: logger}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the active session. Returns [shared.ErrNoSession] unless
// the manager is in the active state.
func (m *Manager) Current() (*models.UserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive || m.current == nil {
		return nil, fmt.Errorf("%w: session state is %s", shared.ErrNoSession, m.state)
	}
	sess := *m.current
	return &sess, nil
}

// Resolve establishes a session for the restaurant scope.
//
// A stored record is reused only when its slug matches; entering a different
// restaurant invalidates the old scope and resolves fresh. registeredUserID
// is empty for guest sessions. On backend failure the manager returns to the
// uninitialized state so the next attempt starts clean.
func (m *Manager) Resolve(ctx context.Context, restaurantSlug, registeredUserID string) (*models.UserSession, error) {
	if restaurantSlug == "" {
		return nil, fmt.Errorf("%w: restaurant slug is required", shared.ErrInvalidInput)
	}

	m.mu.Lock()
	if m.state == StateActive && m.current != nil && m.current.RestaurantSlug == restaurantSlug {
		sess := *m.current
		m.mu.Unlock()
		return &sess, nil
	}
	m.state = StateResolving
	previous := m.current
	m.current = nil
	m.mu.Unlock()

	if previous != nil && previous.RestaurantSlug != restaurantSlug {
		m.logger.Debug("restaurant scope changed, invalidating session",
			"old", previous.RestaurantSlug, "new", restaurantSlug)
		m.dropStored(previous.RestaurantSlug)
	}

	if registeredUserID == "" {
		if stored := m.loadStored(restaurantSlug); stored != nil {
			m.mu.Lock()
			m.state = StateActive
			m.current = stored
			m.mu.Unlock()
			sess := *stored
			return &sess, nil
		}
	}

	sess, err := m.backend.CreateSession(ctx, restaurantSlug, registeredUserID)
	if err != nil {
		m.mu.Lock()
		m.state = StateUninitialized
		m.mu.Unlock()
		return nil, fmt.Errorf("session resolution failed: %w", err)
	}

	if m.store != nil {
		if err := m.store.Put(*sess); err != nil {
			// Persistence is best effort; the in-memory session still works
			// for this run.
			m.logger.Warn("failed to persist session", "error", err)
		}
	}

	m.mu.Lock()
	m.state = StateActive
	m.current = sess
	m.mu.Unlock()

	m.logger.Debug("session resolved", "restaurant", restaurantSlug, "authenticated", sess.IsAuthenticated)
	out := *sess
	return &out, nil
}

// MarkInvalid records a server-side rejection of the session, typically after
// a 401 or 403. The stored record is dropped so the next resolution starts
// fresh.
func (m *Manager) MarkInvalid() {
	m.mu.Lock()
	current := m.current
	m.state = StateInvalid
	m.current = nil
	m.mu.Unlock()

	if current != nil {
		m.dropStored(current.RestaurantSlug)
	}
}

// Invalidate discards the session for a restaurant scope, both in memory and
// in the store. Idempotent.
func (m *Manager) Invalidate(restaurantSlug string) error {
	m.mu.Lock()
	if m.current != nil && m.current.RestaurantSlug == restaurantSlug {
		m.state = StateUninitialized
		m.current = nil
	}
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	return m.store.Delete(restaurantSlug)
}

func (m *Manager) loadStored(restaurantSlug string) *models.UserSession {
	if m.store == nil {
		return nil
	}
	stored, err := m.store.Get(restaurantSlug)
	if err != nil {
		if !errors.Is(err, shared.ErrNoSession) {
			m.logger.Warn("failed to load stored session", "error", err)
		}
		return nil
	}
	if stored.RestaurantSlug != restaurantSlug {
		return nil
	}
	return stored
}

func (m *Manager) dropStored(restaurantSlug string) {
	if m.store == nil {
		return
	}
	if err := m.store.Delete(restaurantSlug); err != nil {
		m.logger.Warn("failed to drop stored session", "error", err)
	}
}
