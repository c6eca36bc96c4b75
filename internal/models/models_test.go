package models

import (
	"testing"
	"time"
)

func TestParseRequestStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RequestStatus
		wantErr bool
	}{
		{name: "pending", input: "pending", want: StatusPending},
		{name: "playing", input: "playing", want: StatusPlaying},
		{name: "completed", input: "completed", want: StatusCompleted},
		{name: "cancelled", input: "cancelled", want: StatusCancelled},
		{name: "unknown", input: "queued", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequestStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRequestStatus(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequestStatus(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRequestStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRequestStatus_ActiveAndTerminal(t *testing.T) {
	tests := []struct {
		status   RequestStatus
		active   bool
		terminal bool
	}{
		{StatusPending, true, false},
		{StatusPlaying, true, false},
		{StatusCompleted, false, true},
		{StatusCancelled, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Active(); got != tt.active {
				t.Errorf("Active() = %v, want %v", got, tt.active)
			}
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestRequest_Validate(t *testing.T) {
	valid := Request{
		ID:             "req-1",
		RestaurantSlug: "la-terraza",
		RequesterKey:   "table-4",
		Song:           Song{ID: "song-1", Title: "Oye Como Va", Artist: "Santana", Origin: OriginCatalog},
		Status:         StatusPending,
		QueuePosition:  1,
		RequestedAt:    time.Now(),
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request failed validation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"missing id", func(r *Request) { r.ID = "" }},
		{"missing requester", func(r *Request) { r.RequesterKey = "" }},
		{"missing song id", func(r *Request) { r.Song.ID = "" }},
		{"missing song title", func(r *Request) { r.Song.Title = "" }},
		{"bad status", func(r *Request) { r.Status = "paused" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestUserSession_Validate(t *testing.T) {
	sess := UserSession{RestaurantSlug: "la-terraza", RequesterKey: "table-4", IssuedAt: time.Now()}
	if err := sess.Validate(); err != nil {
		t.Fatalf("valid session failed validation: %v", err)
	}

	sess.RequesterKey = ""
	if err := sess.Validate(); err == nil {
		t.Error("expected error for missing requester key")
	}

	sess = UserSession{RequesterKey: "table-4"}
	if err := sess.Validate(); err == nil {
		t.Error("expected error for missing restaurant slug")
	}
}
