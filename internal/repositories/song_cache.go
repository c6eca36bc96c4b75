package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/shared"
)

// SongCacheRepository caches catalog songs per restaurant visit so repeated
// lookups during one session do not refetch from the backend.
//
// Songs are immutable once fetched; duplicates are silently ignored via the
// (restaurant_slug, song_id) UNIQUE constraint.
type SongCacheRepository struct {
	db *sql.DB
}

// NewSongCacheRepository creates a new [SongCacheRepository] with the given database connection
func NewSongCacheRepository(db *sql.DB) *SongCacheRepository {
	return &SongCacheRepository{db: db}
}

// Cache stores a song for a restaurant scope. Returns nil if the song is
// already cached.
func (r *SongCacheRepository) Cache(restaurantSlug string, song models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	existing, err := r.Get(restaurantSlug, song.ID)
	if err == nil && existing != nil {
		return nil
	}

	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO songs (id, sequence, restaurant_slug, song_id, title, artist, album, year, image_url, duration, genre, origin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, shared.GenerateID(), sequence, restaurantSlug, song.ID,
		song.Title, song.Artist, song.Album, song.Year, song.ImageURL, song.Duration,
		song.Genre, string(song.Origin), now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache song: %w", err)
	}

	return nil
}

// Get retrieves one cached song by restaurant scope and song id.
// Returns [shared.ErrSongNotFound] on a cache miss.
func (r *SongCacheRepository) Get(restaurantSlug, songID string) (*models.Song, error) {
	query := `
		SELECT song_id, title, artist, album, year, image_url, duration, genre, origin
		FROM songs
		WHERE restaurant_slug = ? AND song_id = ? AND deleted_at IS NULL
	`

	song, err := scanSong(r.db.QueryRow(query, restaurantSlug, songID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, songID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query song: %w", err)
	}
	return song, nil
}

// ListForRestaurant retrieves all cached songs for a restaurant scope.
func (r *SongCacheRepository) ListForRestaurant(restaurantSlug string) ([]models.Song, error) {
	query := `
		SELECT song_id, title, artist, album, year, image_url, duration, genre, origin
		FROM songs
		WHERE restaurant_slug = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query, restaurantSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, *song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// Purge clears the cache for a restaurant scope, used on restaurant switch.
func (r *SongCacheRepository) Purge(restaurantSlug string) error {
	if _, err := r.db.Exec("DELETE FROM songs WHERE restaurant_slug = ?", restaurantSlug); err != nil {
		return fmt.Errorf("failed to purge song cache: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (*models.Song, error) {
	var (
		song     models.Song
		album    sql.NullString
		year     sql.NullInt64
		imageURL sql.NullString
		duration sql.NullInt64
		genre    sql.NullString
		origin   string
	)

	err := row.Scan(&song.ID, &song.Title, &song.Artist, &album, &year, &imageURL, &duration, &genre, &origin)
	if err != nil {
		return nil, err
	}

	song.Album = album.String
	song.Year = int(year.Int64)
	song.ImageURL = imageURL.String
	song.Duration = int(duration.Int64)
	song.Genre = genre.String
	song.Origin = models.SongOrigin(origin)
	return &song, nil
}
