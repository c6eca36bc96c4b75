package ui

import (
	"time"

	"github.com/rockolahq/rockola/internal/models"
)

// queueRefreshedMsg carries a freshly synced projection into the model.
type queueRefreshedMsg struct {
	requests []models.Request
	err      error
}

// actionDoneMsg reports the outcome of an operator mutation.
type actionDoneMsg struct {
	label string
	err   error
}

// syncTickMsg fires on the poll cadence.
type syncTickMsg time.Time
