package services

import (
	"errors"
	"testing"
	"time"

	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/shared"
)

func TestNormalizeRequest(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantID   string
		wantPos  int
		wantSong string
		wantErr  bool
	}{
		{
			name:     "flat shape",
			body:     `{"id":"r1","requester_key":"table-2","status":"pending","queue_position":3,"requested_at":"2026-08-30T19:04:05Z","song":{"id":"s1","title":"Bamboleo","artist":"Gipsy Kings"}}`,
			wantID:   "r1",
			wantPos:  3,
			wantSong: "s1",
		},
		{
			name:     "nested under data",
			body:     `{"data":{"id":"r2","requester_key":"table-2","status":"playing","position":1,"created_at":"2026-08-30T19:04:05Z","song":{"id":"s2","title":"Clandestino","artist":"Manu Chao"}}}`,
			wantID:   "r2",
			wantPos:  1,
			wantSong: "s2",
		},
		{
			name:     "nested under data.request with flat song",
			body:     `{"data":{"request":{"id":"r3","table_id":"table-9","status":"pending","queue_position":2,"requested_at":1693420800,"song_id":"s3","title":"Vivir Mi Vida","artist":"Marc Anthony"}}}`,
			wantID:   "r3",
			wantPos:  2,
			wantSong: "s3",
		},
		{
			name:    "unknown status",
			body:    `{"id":"r4","requester_key":"t","status":"paused","song":{"id":"s","title":"x"}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `<html>gateway error</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NormalizeRequest([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, shared.ErrBadResponse) {
					t.Errorf("expected ErrBadResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", req.ID, tt.wantID)
			}
			if req.QueuePosition != tt.wantPos {
				t.Errorf("QueuePosition = %d, want %d", req.QueuePosition, tt.wantPos)
			}
			if req.Song.ID != tt.wantSong {
				t.Errorf("Song.ID = %q, want %q", req.Song.ID, tt.wantSong)
			}
		})
	}
}

func TestNormalizeRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "bare array", body: `[{"id":"r1","requester_key":"t","status":"pending","queue_position":1,"song":{"id":"s1","title":"A","artist":"B"}}]`, want: 1},
		{name: "under data", body: `{"data":[{"id":"r1","requester_key":"t","status":"pending","queue_position":1,"song":{"id":"s1","title":"A","artist":"B"}}]}`, want: 1},
		{name: "under data.requests", body: `{"data":{"requests":[{"id":"r1","requester_key":"t","status":"pending","queue_position":1,"song":{"id":"s1","title":"A","artist":"B"}},{"id":"r2","requester_key":"u","status":"playing","queue_position":0,"song":{"id":"s2","title":"C","artist":"D"}}]}}`, want: 2},
		{name: "under queue", body: `{"queue":[]}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, err := NormalizeRequests([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(reqs) != tt.want {
				t.Errorf("got %d requests, want %d", len(reqs), tt.want)
			}
		})
	}
}

func TestNormalizeSession(t *testing.T) {
	t.Run("nested under data.user", func(t *testing.T) {
		body := `{"data":{"user":{"user_id":"acct-7","session_token":"tok123","authenticated":true,"created_at":"2026-08-30T12:00:00Z"}}}`
		sess, err := NormalizeSession([]byte(body), "la-terraza")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sess.RequesterKey != "acct-7" {
			t.Errorf("RequesterKey = %q, want acct-7", sess.RequesterKey)
		}
		if sess.Token != "tok123" {
			t.Errorf("Token = %q, want tok123", sess.Token)
		}
		if !sess.IsAuthenticated {
			t.Error("expected authenticated session")
		}
		if sess.RestaurantSlug != "la-terraza" {
			t.Errorf("RestaurantSlug = %q, fallback slug not applied", sess.RestaurantSlug)
		}
	})

	t.Run("flat guest shape", func(t *testing.T) {
		body := `{"restaurant_slug":"la-terraza","table_id":"table-4","token":"tok456","is_authenticated":false,"issued_at":"2026-08-30T12:00:00Z"}`
		sess, err := NormalizeSession([]byte(body), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sess.RequesterKey != "table-4" {
			t.Errorf("RequesterKey = %q, want table-4", sess.RequesterKey)
		}
		if sess.IsAuthenticated {
			t.Error("guest session should not be authenticated")
		}
		want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		if !sess.IssuedAt.Equal(want) {
			t.Errorf("IssuedAt = %v, want %v", sess.IssuedAt, want)
		}
	})

	t.Run("missing identity", func(t *testing.T) {
		if _, err := NormalizeSession([]byte(`{"data":{}}`), "la-terraza"); !errors.Is(err, shared.ErrBadResponse) {
			t.Errorf("expected ErrBadResponse, got %v", err)
		}
	})
}

func TestNormalizeFavorites(t *testing.T) {
	body := `{"data":{"favorites":[{"user_id":"acct-7","date_added":"2026-08-29T10:00:00Z","song":{"id":"s1","title":"Oye Como Va","artist":"Santana"}},{"requester_key":"acct-7","created_at":"2026-08-30T10:00:00Z","song_id":"s2","title":"Smooth","artist":"Santana"}]}}`

	favs, err := NormalizeFavorites([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(favs) != 2 {
		t.Fatalf("got %d favorites, want 2", len(favs))
	}
	for i, f := range favs {
		if f.RequesterKey != "acct-7" {
			t.Errorf("favorite %d RequesterKey = %q, want acct-7", i, f.RequesterKey)
		}
		if f.DateAdded.IsZero() {
			t.Errorf("favorite %d has zero DateAdded", i)
		}
	}
	if favs[1].Song.ID != "s2" {
		t.Errorf("flat song shape not normalized: %+v", favs[1].Song)
	}
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "quota code", status: 409, body: `{"error":{"code":"quota_exceeded","message":"limit reached"}}`, want: shared.ErrQuotaExceeded},
		{name: "duplicate flat code", status: 409, body: `{"code":"duplicate_request"}`, want: shared.ErrDuplicateRequest},
		{name: "not pending", status: 409, body: `{"code":"not_pending"}`, want: shared.ErrNotPending},
		{name: "unauthorized", status: 401, body: `{}`, want: shared.ErrSessionInvalid},
		{name: "missing", status: 404, body: `{}`, want: shared.ErrRequestNotFound},
		{name: "server error", status: 502, body: `oops`, want: shared.ErrUnavailable},
		{name: "other", status: 400, body: `{"message":"bad song ref"}`, want: shared.ErrBackendRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := normalizeError(tt.status, []byte(tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("normalizeError(%d) = %v, want %v", tt.status, err, tt.want)
			}
		})
	}
}

func TestWireSongOriginDefaults(t *testing.T) {
	song := wireSong{SongID: "s1", Title: "A", Artist: "B"}.toModel()
	if song.Origin != models.OriginCatalog {
		t.Errorf("Origin = %q, want catalog default", song.Origin)
	}

	song = wireSong{ID: "s2", Title: "C", Artist: "D", Origin: "provider"}.toModel()
	if song.Origin != models.OriginProvider {
		t.Errorf("Origin = %q, want provider", song.Origin)
	}
}
