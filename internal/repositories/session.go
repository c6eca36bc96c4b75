package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/shared"
)

// SessionRepository persists the local session record, one per restaurant
// scope. The record never includes the server token; tokens live only in
// memory and are re-issued by the backend when absent.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Put stores the session for its restaurant scope, replacing any prior
// record for that scope.
func (r *SessionRepository) Put(sess models.UserSession) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions WHERE restaurant_slug = ?", sess.RestaurantSlug); err != nil {
		return fmt.Errorf("failed to clear prior session: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO sessions (id, sequence, restaurant_slug, requester_key, is_authenticated, issued_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query, shared.GenerateID(), sequence, sess.RestaurantSlug, sess.RequesterKey, sess.IsAuthenticated, sess.IssuedAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return tx.Commit()
}

// Get retrieves the session record for a restaurant scope.
// Returns [shared.ErrNoSession] when no record exists.
func (r *SessionRepository) Get(restaurantSlug string) (*models.UserSession, error) {
	query := `
		SELECT restaurant_slug, requester_key, is_authenticated, issued_at
		FROM sessions
		WHERE restaurant_slug = ? AND deleted_at IS NULL
	`

	var (
		slug            string
		requesterKey    string
		isAuthenticated bool
		issuedAt        time.Time
	)

	err := r.db.QueryRow(query, restaurantSlug).Scan(&slug, &requesterKey, &isAuthenticated, &issuedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoSession, restaurantSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &models.UserSession{
		RestaurantSlug:  slug,
		RequesterKey:    requesterKey,
		IsAuthenticated: isAuthenticated,
		IssuedAt:        issuedAt,
	}, nil
}

// Delete removes the session record for a restaurant scope.
// Deleting an absent record is not an error; invalidation must be idempotent.
func (r *SessionRepository) Delete(restaurantSlug string) error {
	query := `
		UPDATE sessions
		SET deleted_at = ?
		WHERE restaurant_slug = ? AND deleted_at IS NULL
	`

	if _, err := r.db.Exec(query, time.Now(), restaurantSlug); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List retrieves all live session records ordered by sequence.
func (r *SessionRepository) List() ([]models.UserSession, error) {
	query := `
		SELECT restaurant_slug, requester_key, is_authenticated, issued_at
		FROM sessions
		WHERE deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.UserSession
	for rows.Next() {
		var sess models.UserSession
		if err := rows.Scan(&sess.RestaurantSlug, &sess.RequesterKey, &sess.IsAuthenticated, &sess.IssuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}
