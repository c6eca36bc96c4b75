package queue

import "testing"

func TestCanRequest(t *testing.T) {
	tests := []struct {
		name        string
		activeCount int
		max         int
		want        bool
	}{
		{"no outstanding requests", 0, 2, true},
		{"one slot left", 1, 2, true},
		{"at the limit", 2, 2, false},
		{"over the limit", 3, 2, false},
		{"zero limit blocks everything", 0, 0, false},
		{"negative limit blocks everything", 0, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanRequest(tt.activeCount, tt.max); got != tt.want {
				t.Errorf("CanRequest(%d, %d) = %v, want %v", tt.activeCount, tt.max, got, tt.want)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name        string
		activeCount int
		max         int
		want        int
	}{
		{"full headroom", 0, 2, 2},
		{"one used", 1, 2, 1},
		{"exhausted", 2, 2, 0},
		{"never negative", 5, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remaining(tt.activeCount, tt.max); got != tt.want {
				t.Errorf("Remaining(%d, %d) = %d, want %d", tt.activeCount, tt.max, got, tt.want)
			}
		})
	}
}
