// Package favorites implements the favorite-song store: an idempotent
// per-requester toggle over the backend's authoritative set, with a local
// cache for warm starts and offline reads.
package favorites

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/services"
	"github.com/rockolahq/rockola/internal/shared"
)

// Cache abstracts local favorite persistence, satisfied by
// [repositories.FavoriteCacheRepository].
type Cache interface {
	ReplaceAll(requesterKey string, favorites []models.Favorite) error
	ListFor(requesterKey string) ([]models.Favorite, error)
}

// Store mediates favorite toggles through the backend and mirrors the
// confirmed set locally.
//
// The local cache is never mutated speculatively: a toggle that fails
// remotely leaves the visible set exactly as it was, so the UI shows no flip
// that has to be rolled back.
type Store struct {
	backend services.Backend
	cache   Cache
	logger  *log.Logger
}

// NewStore creates a [Store]. The cache may be nil, in which case reads
// always hit the backend.
func NewStore(backend services.Backend, cache Cache, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{backend: backend, cache: cache, logger: logger}
}

// Toggle flips the favorite state of a song for the session's requester and
// reports whether the song is favorited afterward.
//
// The operation requires a resolved requester identity. The backend decides
// the resulting set; toggling twice always returns to the starting state.
func (s *Store) Toggle(ctx context.Context, session models.UserSession, song models.Song) (bool, error) {
	if err := session.Validate(); err != nil {
		return false, fmt.Errorf("%w: favorites require a resolved session: %v", shared.ErrNoSession, err)
	}
	if err := song.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	set, err := s.backend.ToggleFavorite(ctx, session.RequesterKey, song)
	if err != nil {
		return false, err
	}

	s.replaceCache(session.RequesterKey, set)

	for _, fav := range set {
		if fav.Song.ID == song.ID {
			return true, nil
		}
	}
	return false, nil
}

// List returns the requester's favorites. The backend is authoritative; when
// it is unreachable the last cached set is served instead, which for guest
// sessions is also the only durable copy.
func (s *Store) List(ctx context.Context, session models.UserSession) ([]models.Favorite, error) {
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("%w: favorites require a resolved session: %v", shared.ErrNoSession, err)
	}

	if s.cache != nil {
		cached, err := s.cache.ListFor(session.RequesterKey)
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	return s.refresh(ctx, session.RequesterKey)
}

// Refresh re-fetches the authoritative set and refreshes the cache,
// bypassing any cached copy.
func (s *Store) Refresh(ctx context.Context, session models.UserSession) ([]models.Favorite, error) {
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("%w: favorites require a resolved session: %v", shared.ErrNoSession, err)
	}
	return s.refresh(ctx, session.RequesterKey)
}

// IsFavorite reports whether a song is in the requester's current set.
func (s *Store) IsFavorite(ctx context.Context, session models.UserSession, songID string) (bool, error) {
	favorites, err := s.List(ctx, session)
	if err != nil {
		return false, err
	}
	for _, fav := range favorites {
		if fav.Song.ID == songID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) refresh(ctx context.Context, requesterKey string) ([]models.Favorite, error) {
	set, err := s.backend.ListFavorites(ctx, requesterKey)
	if err == nil {
		s.replaceCache(requesterKey, set)
		return set, nil
	}

	if s.cache != nil {
		cached, cacheErr := s.cache.ListFor(requesterKey)
		if cacheErr == nil {
			s.logger.Debug("serving cached favorites, backend unreachable", "error", err)
			return cached, nil
		}
	}
	return nil, err
}

func (s *Store) replaceCache(requesterKey string, set []models.Favorite) {
	if s.cache == nil {
		return
	}
	if err := s.cache.ReplaceAll(requesterKey, set); err != nil {
		s.logger.Warn("failed to refresh favorite cache", "error", err)
	}
}
