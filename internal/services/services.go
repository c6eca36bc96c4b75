package services

import (
	"context"

	"github.com/rockolahq/rockola/internal/models"
)

// Backend defines the remote operations the engine consumes. The backend is
// the single serializing authority for queue state; no client may assume it
// is the sole writer.
type Backend interface {
	// CreateSession establishes a requester session for a restaurant scope.
	// registeredUserID is empty for guest (table) sessions.
	CreateSession(ctx context.Context, restaurantSlug, registeredUserID string) (*models.UserSession, error)

	// RestaurantBySlug fetches venue metadata, including plan type and
	// whether the external song catalog is connected.
	RestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error)

	// RequestsForRequester returns the requester's visible request set.
	RequestsForRequester(ctx context.Context, restaurantSlug, requesterKey string) ([]models.Request, error)

	// QueueForRestaurant returns the full restaurant queue (operator view).
	QueueForRestaurant(ctx context.Context, restaurantSlug string) ([]models.Request, error)

	// SubmitRequest appends a request and returns the authoritative echo
	// (server-assigned id and queue position). idemKey deduplicates retries
	// after an unknown outcome.
	SubmitRequest(ctx context.Context, restaurantSlug, requesterKey string, song models.Song, idemKey string) (*models.Request, error)

	// CancelRequest cancels a pending request, recording who issued it.
	CancelRequest(ctx context.Context, requestID, cancelledBy string) error

	// AdvanceQueue completes the playing request and promotes the next
	// pending one. Returns nil when the queue is left empty.
	AdvanceQueue(ctx context.Context, restaurantSlug string) (*models.Request, error)

	// MoveToTop re-ranks one pending request to position 1.
	MoveToTop(ctx context.Context, requestID string) error

	// ToggleFavorite flips a favorite and returns the authoritative
	// resulting set.
	ToggleFavorite(ctx context.Context, requesterKey string, song models.Song) ([]models.Favorite, error)

	// ListFavorites returns the requester's authoritative favorite set.
	ListFavorites(ctx context.Context, requesterKey string) ([]models.Favorite, error)
}
