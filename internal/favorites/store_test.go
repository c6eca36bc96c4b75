package favorites

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/shared"
	tu "github.com/rockolahq/rockola/internal/testing"
)

// memCache is an in-memory Cache double.
type memCache struct {
	sets       map[string][]models.Favorite
	replaceErr error
}

func newMemCache() *memCache {
	return &memCache{sets: map[string][]models.Favorite{}}
}

func (c *memCache) ReplaceAll(requesterKey string, favorites []models.Favorite) error {
	if c.replaceErr != nil {
		return c.replaceErr
	}
	c.sets[requesterKey] = favorites
	return nil
}

func (c *memCache) ListFor(requesterKey string) ([]models.Favorite, error) {
	return c.sets[requesterKey], nil
}

func testSong(id string) models.Song {
	return models.Song{ID: id, Title: "Song " + id, Artist: "Artist", Origin: models.OriginCatalog}
}

func testSession() models.UserSession {
	return models.UserSession{RestaurantSlug: "la-terraza", RequesterKey: "acct-7", IssuedAt: time.Now().UTC()}
}

// togglingBackend keeps an authoritative set and flips membership per call,
// the way the real backend does.
func togglingBackend() *tu.MockBackend {
	set := map[string]models.Favorite{}
	backend := &tu.MockBackend{}
	backend.ToggleFavoriteFn = func(ctx context.Context, requesterKey string, song models.Song) ([]models.Favorite, error) {
		if _, ok := set[song.ID]; ok {
			delete(set, song.ID)
		} else {
			set[song.ID] = models.Favorite{RequesterKey: requesterKey, Song: song, DateAdded: time.Now().UTC()}
		}
		var out []models.Favorite
		for _, fav := range set {
			out = append(out, fav)
		}
		return out, nil
	}
	backend.ListFavoritesFn = func(ctx context.Context, requesterKey string) ([]models.Favorite, error) {
		var out []models.Favorite
		for _, fav := range set {
			out = append(out, fav)
		}
		return out, nil
	}
	return backend
}

func TestStoreToggle(t *testing.T) {
	t.Run("toggling twice returns to the original state", func(t *testing.T) {
		store := NewStore(togglingBackend(), newMemCache(), nil)
		ctx := context.Background()

		favorited, err := store.Toggle(ctx, testSession(), testSong("s1"))
		if err != nil {
			t.Fatalf("first toggle failed: %v", err)
		}
		if !favorited {
			t.Error("first toggle should favorite the song")
		}

		favorited, err = store.Toggle(ctx, testSession(), testSong("s1"))
		if err != nil {
			t.Fatalf("second toggle failed: %v", err)
		}
		if favorited {
			t.Error("second toggle should unfavorite the song")
		}

		set, err := store.List(ctx, testSession())
		if err != nil {
			t.Fatal(err)
		}
		if len(set) != 0 {
			t.Errorf("set after double toggle = %+v, want empty", set)
		}
	})

	t.Run("confirmed toggle refreshes the cache", func(t *testing.T) {
		cache := newMemCache()
		store := NewStore(togglingBackend(), cache, nil)

		if _, err := store.Toggle(context.Background(), testSession(), testSong("s1")); err != nil {
			t.Fatal(err)
		}

		cached := cache.sets["acct-7"]
		if len(cached) != 1 || cached[0].Song.ID != "s1" {
			t.Errorf("cache not refreshed after toggle: %+v", cached)
		}
	})

	t.Run("failed toggle leaves the visible set unchanged", func(t *testing.T) {
		cache := newMemCache()
		cache.sets["acct-7"] = []models.Favorite{{RequesterKey: "acct-7", Song: testSong("s1")}}

		backend := &tu.MockBackend{
			ToggleFavoriteFn: func(ctx context.Context, requesterKey string, song models.Song) ([]models.Favorite, error) {
				return nil, fmt.Errorf("%w: boom", shared.ErrUnavailable)
			},
		}
		store := NewStore(backend, cache, nil)

		_, err := store.Toggle(context.Background(), testSession(), testSong("s2"))
		if !errors.Is(err, shared.ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}

		cached := cache.sets["acct-7"]
		if len(cached) != 1 || cached[0].Song.ID != "s1" {
			t.Errorf("failed toggle mutated the cache: %+v", cached)
		}
	})

	t.Run("toggle without a resolved session is rejected", func(t *testing.T) {
		backend := togglingBackend()
		store := NewStore(backend, newMemCache(), nil)

		_, err := store.Toggle(context.Background(), models.UserSession{RestaurantSlug: "la-terraza"}, testSong("s1"))
		if !errors.Is(err, shared.ErrNoSession) {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
		if backend.ToggleCalls != 0 {
			t.Errorf("backend called %d times, want 0", backend.ToggleCalls)
		}
	})

	t.Run("invalid song is rejected", func(t *testing.T) {
		store := NewStore(togglingBackend(), newMemCache(), nil)
		if _, err := store.Toggle(context.Background(), testSession(), models.Song{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestStoreList(t *testing.T) {
	t.Run("cached set is served when present", func(t *testing.T) {
		cache := newMemCache()
		cache.sets["acct-7"] = []models.Favorite{{RequesterKey: "acct-7", Song: testSong("s1")}}

		var listCalls int
		backend := &tu.MockBackend{
			ListFavoritesFn: func(ctx context.Context, requesterKey string) ([]models.Favorite, error) {
				listCalls++
				return nil, nil
			},
		}
		store := NewStore(backend, cache, nil)

		set, err := store.List(context.Background(), testSession())
		if err != nil {
			t.Fatal(err)
		}
		if len(set) != 1 || listCalls != 0 {
			t.Errorf("expected cached serve, got %d entries with %d backend calls", len(set), listCalls)
		}
	})

	t.Run("cold cache fetches and fills", func(t *testing.T) {
		cache := newMemCache()
		backend := &tu.MockBackend{
			ListFavoritesFn: func(ctx context.Context, requesterKey string) ([]models.Favorite, error) {
				return []models.Favorite{{RequesterKey: requesterKey, Song: testSong("s1")}}, nil
			},
		}
		store := NewStore(backend, cache, nil)

		set, err := store.List(context.Background(), testSession())
		if err != nil {
			t.Fatal(err)
		}
		if len(set) != 1 {
			t.Fatalf("set = %+v, want one entry", set)
		}
		if len(cache.sets["acct-7"]) != 1 {
			t.Error("cache not filled after cold fetch")
		}
	})

	t.Run("refresh serves the cache when the backend is unreachable", func(t *testing.T) {
		cache := newMemCache()
		cache.sets["acct-7"] = []models.Favorite{{RequesterKey: "acct-7", Song: testSong("s1")}}

		backend := &tu.MockBackend{
			ListFavoritesFn: func(ctx context.Context, requesterKey string) ([]models.Favorite, error) {
				return nil, fmt.Errorf("%w: connection refused", shared.ErrUnavailable)
			},
		}
		store := NewStore(backend, cache, nil)

		set, err := store.Refresh(context.Background(), testSession())
		if err != nil {
			t.Fatalf("expected cached fallback, got %v", err)
		}
		if len(set) != 1 || set[0].Song.ID != "s1" {
			t.Errorf("fallback set = %+v", set)
		}
	})
}

func TestStoreIsFavorite(t *testing.T) {
	store := NewStore(togglingBackend(), newMemCache(), nil)
	ctx := context.Background()

	if _, err := store.Toggle(ctx, testSession(), testSong("s1")); err != nil {
		t.Fatal(err)
	}

	got, err := store.IsFavorite(ctx, testSession(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("s1 should be a favorite")
	}

	got, err = store.IsFavorite(ctx, testSession(), "s2")
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("s2 should not be a favorite")
	}
}
