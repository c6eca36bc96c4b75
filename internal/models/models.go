package models

import (
	"fmt"
	"time"
)

// RequestStatus enumerates the lifecycle states of a song request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusPlaying   RequestStatus = "playing"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// ParseRequestStatus converts a wire value into a [RequestStatus].
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case StatusPending, StatusPlaying, StatusCompleted, StatusCancelled:
		return RequestStatus(s), nil
	default:
		return "", fmt.Errorf("unknown request status %q", s)
	}
}

// Active reports whether a request in this status counts toward the
// requester's quota. Cancelled requests never count, so a cancelled song may
// be re-requested immediately.
func (s RequestStatus) Active() bool {
	return s == StatusPending || s == StatusPlaying
}

// Terminal reports whether the status permits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// SongOrigin tags where a song's metadata came from.
type SongOrigin string

const (
	OriginCatalog  SongOrigin = "catalog"
	OriginProvider SongOrigin = "provider"
)

// Restaurant describes one venue. Owned by the backend; read-only here.
type Restaurant struct {
	ID               string `json:"id"`
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	PlanType         string `json:"plan_type"`
	CatalogConnected bool   `json:"catalog_connected"`
}

// Song is an immutable catalog entry, cached per restaurant visit.
type Song struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Artist   string     `json:"artist"`
	Album    string     `json:"album,omitempty"`
	Year     int        `json:"year,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
	Duration int        `json:"duration,omitempty"` // seconds
	Genre    string     `json:"genre,omitempty"`
	Origin   SongOrigin `json:"origin"`
}

// Validate checks that a song reference is usable in a request.
func (s Song) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("song id is required")
	}
	if s.Title == "" {
		return fmt.Errorf("song title is required")
	}
	return nil
}

// Request is one queued playback request.
//
// QueuePosition is a dense 1-based rank that is only meaningful while the
// request is pending.
type Request struct {
	ID             string        `json:"id"`
	RestaurantSlug string        `json:"restaurant_slug"`
	RequesterKey   string        `json:"requester_key"`
	Song           Song          `json:"song"`
	Status         RequestStatus `json:"status"`
	QueuePosition  int           `json:"queue_position"`
	RequestedAt    time.Time     `json:"requested_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	CancelledBy    string        `json:"cancelled_by,omitempty"`
}

// Validate checks request integrity before it enters the local projection.
func (r Request) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("request id is required")
	}
	if r.RequesterKey == "" {
		return fmt.Errorf("requester key is required")
	}
	if err := r.Song.Validate(); err != nil {
		return fmt.Errorf("invalid song: %w", err)
	}
	if _, err := ParseRequestStatus(string(r.Status)); err != nil {
		return err
	}
	return nil
}

// UserSession is the requester identity scoped to one restaurant: a
// table/anonymous key for guests or a stable account id for registered users.
//
// It is a local projection of a server-issued session token, persisted one
// record per restaurant scope and invalidated whenever the scope changes.
type UserSession struct {
	RestaurantSlug  string    `json:"restaurant_slug"`
	RequesterKey    string    `json:"requester_key"`
	IsAuthenticated bool      `json:"is_authenticated"`
	IssuedAt        time.Time `json:"issued_at"`
	Token           string    `json:"-"` // never persisted locally
}

// Validate reports whether the session carries a usable identity.
func (u UserSession) Validate() error {
	if u.RestaurantSlug == "" {
		return fmt.Errorf("restaurant slug is required")
	}
	if u.RequesterKey == "" {
		return fmt.Errorf("requester key is required")
	}
	return nil
}

// Favorite is an idempotent (requester, song) like. Registered users keep
// favorites across visits; guest favorites live only in the session scope.
type Favorite struct {
	RequesterKey string    `json:"requester_key"`
	Song         Song      `json:"song"`
	DateAdded    time.Time `json:"date_added"`
}
