// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/rockolahq/rockola/internal/models"
)

// MockBackend is a configurable test double for services.Backend. Each method
// delegates to the matching function field when set and returns zero values
// otherwise. It deliberately avoids importing the services package so that
// in-package service tests can use it without an import cycle.
type MockBackend struct {
	CreateSessionFn        func(ctx context.Context, restaurantSlug, registeredUserID string) (*models.UserSession, error)
	RestaurantBySlugFn     func(ctx context.Context, slug string) (*models.Restaurant, error)
	RequestsForRequesterFn func(ctx context.Context, restaurantSlug, requesterKey string) ([]models.Request, error)
	QueueForRestaurantFn   func(ctx context.Context, restaurantSlug string) ([]models.Request, error)
	SubmitRequestFn        func(ctx context.Context, restaurantSlug, requesterKey string, song models.Song, idemKey string) (*models.Request, error)
	CancelRequestFn        func(ctx context.Context, requestID, cancelledBy string) error
	AdvanceQueueFn         func(ctx context.Context, restaurantSlug string) (*models.Request, error)
	MoveToTopFn            func(ctx context.Context, requestID string) error
	ToggleFavoriteFn       func(ctx context.Context, requesterKey string, song models.Song) ([]models.Favorite, error)
	ListFavoritesFn        func(ctx context.Context, requesterKey string) ([]models.Favorite, error)

	SubmitCalls int
	CancelCalls int
	ToggleCalls int
}

func (m *MockBackend) CreateSession(ctx context.Context, restaurantSlug, registeredUserID string) (*models.UserSession, error) {
	if m.CreateSessionFn != nil {
		return m.CreateSessionFn(ctx, restaurantSlug, registeredUserID)
	}
	return nil, nil
}

func (m *MockBackend) RestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	if m.RestaurantBySlugFn != nil {
		return m.RestaurantBySlugFn(ctx, slug)
	}
	return nil, nil
}

func (m *MockBackend) RequestsForRequester(ctx context.Context, restaurantSlug, requesterKey string) ([]models.Request, error) {
	if m.RequestsForRequesterFn != nil {
		return m.RequestsForRequesterFn(ctx, restaurantSlug, requesterKey)
	}
	return nil, nil
}

func (m *MockBackend) QueueForRestaurant(ctx context.Context, restaurantSlug string) ([]models.Request, error) {
	if m.QueueForRestaurantFn != nil {
		return m.QueueForRestaurantFn(ctx, restaurantSlug)
	}
	return nil, nil
}

func (m *MockBackend) SubmitRequest(ctx context.Context, restaurantSlug, requesterKey string, song models.Song, idemKey string) (*models.Request, error) {
	m.SubmitCalls++
	if m.SubmitRequestFn != nil {
		return m.SubmitRequestFn(ctx, restaurantSlug, requesterKey, song, idemKey)
	}
	return nil, nil
}

func (m *MockBackend) CancelRequest(ctx context.Context, requestID, cancelledBy string) error {
	m.CancelCalls++
	if m.CancelRequestFn != nil {
		return m.CancelRequestFn(ctx, requestID, cancelledBy)
	}
	return nil
}

func (m *MockBackend) AdvanceQueue(ctx context.Context, restaurantSlug string) (*models.Request, error) {
	if m.AdvanceQueueFn != nil {
		return m.AdvanceQueueFn(ctx, restaurantSlug)
	}
	return nil, nil
}

func (m *MockBackend) MoveToTop(ctx context.Context, requestID string) error {
	if m.MoveToTopFn != nil {
		return m.MoveToTopFn(ctx, requestID)
	}
	return nil
}

func (m *MockBackend) ToggleFavorite(ctx context.Context, requesterKey string, song models.Song) ([]models.Favorite, error) {
	m.ToggleCalls++
	if m.ToggleFavoriteFn != nil {
		return m.ToggleFavoriteFn(ctx, requesterKey, song)
	}
	return nil, nil
}

func (m *MockBackend) ListFavorites(ctx context.Context, requesterKey string) ([]models.Favorite, error) {
	if m.ListFavoritesFn != nil {
		return m.ListFavoritesFn(ctx, requesterKey)
	}
	return nil, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
