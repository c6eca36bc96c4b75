// Boundary normalizer for backend replies.
//
// The backend is inconsistent about envelopes: some endpoints return the
// entity flat, some nest it under "data", and some nest once more under an
// entity key ("data.user", "data.request"). All branching on shape happens
// here; the rest of the engine only ever sees canonical models.
package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/shared"
)

// flexTime accepts RFC3339 strings and unix epoch numbers.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("unparseable timestamp %q: %w", raw, err)
		}
		t.Time = parsed
		return nil
	}

	epoch, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("unparseable timestamp %s: %w", s, err)
	}
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * float64(time.Second))
	t.Time = time.Unix(sec, nsec).UTC()
	return nil
}

type wireSong struct {
	ID       string `json:"id"`
	SongID   string `json:"song_id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Year     int    `json:"year"`
	ImageURL string `json:"image_url"`
	Duration int    `json:"duration"`
	Genre    string `json:"genre"`
	Origin   string `json:"origin"`
}

func (w wireSong) toModel() models.Song {
	id := w.ID
	if id == "" {
		id = w.SongID
	}
	origin := models.SongOrigin(w.Origin)
	if origin != models.OriginProvider {
		origin = models.OriginCatalog
	}
	return models.Song{
		ID:       id,
		Title:    w.Title,
		Artist:   w.Artist,
		Album:    w.Album,
		Year:     w.Year,
		ImageURL: w.ImageURL,
		Duration: w.Duration,
		Genre:    w.Genre,
		Origin:   origin,
	}
}

type wireRequest struct {
	ID             string    `json:"id"`
	RestaurantSlug string    `json:"restaurant_slug"`
	RequesterKey   string    `json:"requester_key"`
	TableID        string    `json:"table_id"`
	UserID         string    `json:"user_id"`
	Song           *wireSong `json:"song"`
	SongID         string    `json:"song_id"`
	Title          string    `json:"title"`
	Artist         string    `json:"artist"`
	Status         string    `json:"status"`
	QueuePosition  *int      `json:"queue_position"`
	Position       *int      `json:"position"`
	RequestedAt    flexTime  `json:"requested_at"`
	CreatedAt      flexTime  `json:"created_at"`
	CompletedAt    *flexTime `json:"completed_at"`
	CancelledBy    string    `json:"cancelled_by"`
}

func (w wireRequest) toModel() (*models.Request, error) {
	status, err := models.ParseRequestStatus(w.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadResponse, err)
	}

	var song models.Song
	if w.Song != nil {
		song = w.Song.toModel()
	} else {
		song = wireSong{ID: w.SongID, Title: w.Title, Artist: w.Artist}.toModel()
	}

	requester := w.RequesterKey
	if requester == "" {
		requester = w.TableID
	}
	if requester == "" {
		requester = w.UserID
	}

	position := 0
	if w.QueuePosition != nil {
		position = *w.QueuePosition
	} else if w.Position != nil {
		position = *w.Position
	}

	requestedAt := w.RequestedAt.Time
	if requestedAt.IsZero() {
		requestedAt = w.CreatedAt.Time
	}

	req := &models.Request{
		ID:             w.ID,
		RestaurantSlug: w.RestaurantSlug,
		RequesterKey:   requester,
		Song:           song,
		Status:         status,
		QueuePosition:  position,
		RequestedAt:    requestedAt,
		CancelledBy:    w.CancelledBy,
	}
	if w.CompletedAt != nil && !w.CompletedAt.Time.IsZero() {
		t := w.CompletedAt.Time
		req.CompletedAt = &t
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadResponse, err)
	}
	return req, nil
}

type wireSession struct {
	RestaurantSlug  string   `json:"restaurant_slug"`
	RequesterKey    string   `json:"requester_key"`
	TableID         string   `json:"table_id"`
	UserID          string   `json:"user_id"`
	Token           string   `json:"token"`
	SessionToken    string   `json:"session_token"`
	IsAuthenticated *bool    `json:"is_authenticated"`
	Authenticated   *bool    `json:"authenticated"`
	IssuedAt        flexTime `json:"issued_at"`
	CreatedAt       flexTime `json:"created_at"`
}

type wireFavorite struct {
	RequesterKey string    `json:"requester_key"`
	UserID       string    `json:"user_id"`
	Song         *wireSong `json:"song"`
	SongID       string    `json:"song_id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	DateAdded    flexTime  `json:"date_added"`
	CreatedAt    flexTime  `json:"created_at"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// unwrap descends through the backend's optional "data" envelope and then
// through any of the given entity keys, returning the innermost payload.
func unwrap(body []byte, keys ...string) (json.RawMessage, error) {
	raw := json.RawMessage(body)

	for {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			// Not an object (likely an array or scalar): nothing to unwrap.
			return raw, nil
		}

		if inner, ok := probe["data"]; ok {
			raw = inner
			continue
		}

		descended := false
		for _, key := range keys {
			if inner, ok := probe[key]; ok {
				raw = inner
				descended = true
				break
			}
		}
		if !descended {
			return raw, nil
		}
	}
}

// NormalizeRequest parses one request entity from a backend reply.
func NormalizeRequest(body []byte) (*models.Request, error) {
	payload, err := unwrap(body, "request")
	if err != nil {
		return nil, err
	}

	var w wireRequest
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadResponse, err)
	}
	return w.toModel()
}

// NormalizeRequests parses a request list from a backend reply, accepting a
// bare array or one nested under "requests"/"queue".
func NormalizeRequests(body []byte) ([]models.Request, error) {
	payload, err := unwrap(body, "requests", "queue")
	if err != nil {
		return nil, err
	}

	var wires []wireRequest
	if err := json.Unmarshal(payload, &wires); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadResponse, err)
	}

	requests := make([]models.Request, 0, len(wires))
	for _, w := range wires {
		req, err := w.toModel()
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, nil
}

// NormalizeSession parses a session entity, tolerating "data.user" nesting.
// restaurantSlug fills the scope when the backend omits it.
func NormalizeSession(body []byte, restaurantSlug string) (*models.UserSession, error) {
	payload, err := unwrap(body, "session", "user")
	if err != nil {
		return nil, err
	}

	var w wireSession
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadResponse, err)
	}

	slug := w.RestaurantSlug
	if slug == "" {
		slug = restaurantSlug
	}

	key := w.RequesterKey
	if key == "" {
		key = w.TableID
	}
	if key == "" {
		key = w.UserID
	}

	token := w.Token
	if token == "" {
		token = w.SessionToken
	}

	authenticated := false
	if w.IsAuthenticated != nil {
		authenticated = *w.IsAuthenticated
	} else if w.Authenticated != nil {
		authenticated = *w.Authenticated
	}

	issued := w.IssuedAt.Time
	if issued.IsZero() {
		issued = w.CreatedAt.Time
	}
	if issued.IsZero() {
		issued = time.Now().UTC()
	}

	sess := &models.UserSession{
		RestaurantSlug:  slug,
		RequesterKey:    key,
		IsAuthenticated: authenticated,
		IssuedAt:        issued,
		Token:           token,
	}
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadResponse, err)
	}
	return sess, nil
}

// NormalizeRestaurant parses a restaurant entity.
func NormalizeRestaurant(body []byte) (*models.Restaurant, error) {
	payload, err := unwrap(body, "restaurant")
	if err != nil {
		return nil, err
	}

	var r models.Restaurant
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadResponse, err)
	}
	if r.Slug == "" {
		return nil, fmt.Errorf("%w: restaurant slug missing", shared.ErrBadResponse)
	}
	return &r, nil
}

// NormalizeFavorites parses the authoritative favorite set.
func NormalizeFavorites(body []byte) ([]models.Favorite, error) {
	payload, err := unwrap(body, "favorites")
	if err != nil {
		return nil, err
	}

	var wires []wireFavorite
	if err := json.Unmarshal(payload, &wires); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBadResponse, err)
	}

	favorites := make([]models.Favorite, 0, len(wires))
	for _, w := range wires {
		key := w.RequesterKey
		if key == "" {
			key = w.UserID
		}

		var song models.Song
		if w.Song != nil {
			song = w.Song.toModel()
		} else {
			song = wireSong{ID: w.SongID, Title: w.Title, Artist: w.Artist}.toModel()
		}

		added := w.DateAdded.Time
		if added.IsZero() {
			added = w.CreatedAt.Time
		}

		favorites = append(favorites, models.Favorite{
			RequesterKey: key,
			Song:         song,
			DateAdded:    added,
		})
	}
	return favorites, nil
}

// normalizeError maps an HTTP error reply onto the engine's sentinel errors.
func normalizeError(statusCode int, body []byte) error {
	var w wireError
	code := ""
	message := ""
	if err := json.Unmarshal(body, &w); err == nil {
		code = w.Code
		message = w.Message
		if w.Error != nil {
			code = w.Error.Code
			message = w.Error.Message
		}
	}

	switch {
	case code == "quota_exceeded":
		return shared.ErrQuotaExceeded
	case code == "duplicate_request":
		return shared.ErrDuplicateRequest
	case code == "not_pending":
		return shared.ErrNotPending
	case statusCode == 401 || statusCode == 403 || code == "session_invalid":
		return shared.ErrSessionInvalid
	case statusCode == 404:
		return shared.ErrRequestNotFound
	case statusCode == 429:
		return fmt.Errorf("%w: rate limited", shared.ErrUnavailable)
	case statusCode >= 500:
		return fmt.Errorf("%w: status %d", shared.ErrUnavailable, statusCode)
	}

	if message != "" {
		return fmt.Errorf("%w: status %d: %s", shared.ErrBackendRequest, statusCode, message)
	}
	return fmt.Errorf("%w: status %d", shared.ErrBackendRequest, statusCode)
}
