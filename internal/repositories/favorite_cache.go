package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/shared"
)

// FavoriteCacheRepository stores the last authoritative favorite set per
// requester. For guests this is the only durable copy; for registered users
// it is a warm-start cache refreshed after every confirmed toggle.
type FavoriteCacheRepository struct {
	db *sql.DB
}

// NewFavoriteCacheRepository creates a new [FavoriteCacheRepository] with the given database connection
func NewFavoriteCacheRepository(db *sql.DB) *FavoriteCacheRepository {
	return &FavoriteCacheRepository{db: db}
}

// ReplaceAll swaps the cached set for a requester with the authoritative one.
// The replacement is wholesale, never a field-by-field merge.
func (r *FavoriteCacheRepository) ReplaceAll(requesterKey string, favorites []models.Favorite) error {
	// Sequences are drawn before the transaction opens; NextSequence runs
	// its own transaction and would contend with an open write lock.
	sequences := make([]int, len(favorites))
	for i := range favorites {
		sequence, err := NextSequence(r.db, "favorites")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		sequences[i] = sequence
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM favorites WHERE requester_key = ?", requesterKey); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO favorites (id, sequence, requester_key, song_id, title, artist, date_added, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, fav := range favorites {
		_, err = tx.Exec(query, shared.GenerateID(), sequences[i], requesterKey,
			fav.Song.ID, fav.Song.Title, fav.Song.Artist, fav.DateAdded, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert favorite: %w", err)
		}
	}

	return tx.Commit()
}

// ListFor retrieves the cached favorite set for a requester.
func (r *FavoriteCacheRepository) ListFor(requesterKey string) ([]models.Favorite, error) {
	query := `
		SELECT requester_key, song_id, title, artist, date_added
		FROM favorites
		WHERE requester_key = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query, requesterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var favorites []models.Favorite
	for rows.Next() {
		var (
			fav       models.Favorite
			songID    string
			title     string
			artist    string
			dateAdded time.Time
		)
		if err := rows.Scan(&fav.RequesterKey, &songID, &title, &artist, &dateAdded); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		fav.Song = models.Song{ID: songID, Title: title, Artist: artist, Origin: models.OriginCatalog}
		fav.DateAdded = dateAdded
		favorites = append(favorites, fav)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return favorites, nil
}
