// HTTP implementation of [Backend].
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/shared"
	"golang.org/x/time/rate"
)

// HTTPBackend implements [Backend] over JSON/HTTP.
//
// Every call is bounded by a per-call timeout and throttled by a client-side
// [rate.Limiter]. A mutating call that times out returns
// [shared.ErrUnknownOutcome]: the write may or may not have landed and must be
// reconciled by the next poll rather than retried blindly.
type HTTPBackend struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	token      string
}

// HTTPBackendOpts contains construction options for [HTTPBackend].
type HTTPBackendOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	RateLimit  float64
}

// NewHTTPBackend creates an HTTP backend client.
func NewHTTPBackend(opts HTTPBackendOpts) *HTTPBackend {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8000"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	return &HTTPBackend{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		timeout:    opts.Timeout,
	}
}

// SetToken attaches a session token sent as a bearer credential on
// subsequent calls.
func (b *HTTPBackend) SetToken(token string) {
	b.token = token
}

// isTimeout reports whether err was a deadline or transport timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

// doRequest performs one bounded, rate-limited call and returns the raw body.
//
// mutating marks calls with side effects: their timeouts surface as
// [shared.ErrUnknownOutcome] instead of a plain timeout.
func (b *HTTPBackend) doRequest(ctx context.Context, method, endpoint string, payload any, mutating bool) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBackendRequest, err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			if mutating {
				return nil, fmt.Errorf("%w: %v", shared.ErrUnknownOutcome, err)
			}
			return nil, fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrBackendRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, normalizeError(resp.StatusCode, body)
	}

	return body, nil
}

// CreateSession establishes a session for the restaurant scope.
func (b *HTTPBackend) CreateSession(ctx context.Context, restaurantSlug, registeredUserID string) (*models.UserSession, error) {
	payload := map[string]string{"restaurant_slug": restaurantSlug}
	if registeredUserID != "" {
		payload["user_id"] = registeredUserID
	}

	body, err := b.doRequest(ctx, http.MethodPost, "/api/sessions", payload, true)
	if err != nil {
		return nil, err
	}
	return NormalizeSession(body, restaurantSlug)
}

// RestaurantBySlug fetches venue metadata.
func (b *HTTPBackend) RestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	endpoint := fmt.Sprintf("/api/restaurants/%s", url.PathEscape(slug))
	body, err := b.doRequest(ctx, http.MethodGet, endpoint, nil, false)
	if err != nil {
		if errors.Is(err, shared.ErrRequestNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrRestaurantNotFound, slug)
		}
		return nil, err
	}
	return NormalizeRestaurant(body)
}

// RequestsForRequester returns the requester's visible request set.
func (b *HTTPBackend) RequestsForRequester(ctx context.Context, restaurantSlug, requesterKey string) ([]models.Request, error) {
	endpoint := fmt.Sprintf("/api/restaurants/%s/requests?requester_key=%s",
		url.PathEscape(restaurantSlug), url.QueryEscape(requesterKey))
	body, err := b.doRequest(ctx, http.MethodGet, endpoint, nil, false)
	if err != nil {
		return nil, err
	}
	return NormalizeRequests(body)
}

// QueueForRestaurant returns the full queue for the operator view.
func (b *HTTPBackend) QueueForRestaurant(ctx context.Context, restaurantSlug string) ([]models.Request, error) {
	endpoint := fmt.Sprintf("/api/restaurants/%s/queue", url.PathEscape(restaurantSlug))
	body, err := b.doRequest(ctx, http.MethodGet, endpoint, nil, false)
	if err != nil {
		return nil, err
	}
	return NormalizeRequests(body)
}

// SubmitRequest appends a request and returns the authoritative echo.
func (b *HTTPBackend) SubmitRequest(ctx context.Context, restaurantSlug, requesterKey string, song models.Song, idemKey string) (*models.Request, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	endpoint := fmt.Sprintf("/api/restaurants/%s/requests", url.PathEscape(restaurantSlug))
	payload := map[string]any{
		"requester_key":   requesterKey,
		"song":            song,
		"idempotency_key": idemKey,
	}

	body, err := b.doRequest(ctx, http.MethodPost, endpoint, payload, true)
	if err != nil {
		return nil, err
	}
	return NormalizeRequest(body)
}

// CancelRequest cancels a pending request.
func (b *HTTPBackend) CancelRequest(ctx context.Context, requestID, cancelledBy string) error {
	endpoint := fmt.Sprintf("/api/requests/%s/cancel", url.PathEscape(requestID))
	payload := map[string]string{"cancelled_by": cancelledBy}

	_, err := b.doRequest(ctx, http.MethodPost, endpoint, payload, true)
	return err
}

// AdvanceQueue completes the playing request and promotes the next pending.
func (b *HTTPBackend) AdvanceQueue(ctx context.Context, restaurantSlug string) (*models.Request, error) {
	endpoint := fmt.Sprintf("/api/restaurants/%s/queue/advance", url.PathEscape(restaurantSlug))
	body, err := b.doRequest(ctx, http.MethodPost, endpoint, nil, true)
	if err != nil {
		return nil, err
	}

	// An empty reply means the queue was drained.
	payload, err := unwrap(body, "request")
	if err != nil || len(bytes.TrimSpace(payload)) == 0 || string(bytes.TrimSpace(payload)) == "null" {
		return nil, nil
	}
	return NormalizeRequest(body)
}

// MoveToTop re-ranks one pending request to position 1.
func (b *HTTPBackend) MoveToTop(ctx context.Context, requestID string) error {
	endpoint := fmt.Sprintf("/api/requests/%s/top", url.PathEscape(requestID))
	_, err := b.doRequest(ctx, http.MethodPost, endpoint, nil, true)
	return err
}

// ToggleFavorite flips a favorite and returns the authoritative set.
func (b *HTTPBackend) ToggleFavorite(ctx context.Context, requesterKey string, song models.Song) ([]models.Favorite, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	payload := map[string]any{
		"requester_key": requesterKey,
		"song":          song,
	}

	body, err := b.doRequest(ctx, http.MethodPost, "/api/favorites/toggle", payload, true)
	if err != nil {
		return nil, err
	}
	return NormalizeFavorites(body)
}

// ListFavorites returns the requester's authoritative favorite set.
func (b *HTTPBackend) ListFavorites(ctx context.Context, requesterKey string) ([]models.Favorite, error) {
	endpoint := fmt.Sprintf("/api/favorites?requester_key=%s", url.QueryEscape(requesterKey))
	body, err := b.doRequest(ctx, http.MethodGet, endpoint, nil, false)
	if err != nil {
		return nil, err
	}
	return NormalizeFavorites(body)
}

var _ Backend = (*HTTPBackend)(nil)
