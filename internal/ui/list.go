package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/rockolahq/rockola/internal/formatter"
	"github.com/rockolahq/rockola/internal/models"
)

var _ list.Item = requestItem{}

// requestItem wraps [models.Request] to implement [list.Item].
type requestItem struct {
	request models.Request
}

func (i requestItem) FilterValue() string { return i.request.Song.Title }

func (i requestItem) Title() string {
	if i.request.Status == models.StatusPlaying {
		return fmt.Sprintf("▶  %s - %s", i.request.Song.Artist, i.request.Song.Title)
	}
	return fmt.Sprintf("%2d. %s - %s", i.request.QueuePosition, i.request.Song.Artist, i.request.Song.Title)
}

func (i requestItem) Description() string {
	desc := fmt.Sprintf("%s • %s", formatter.StatusLabel(i.request.Status), i.request.RequesterKey)
	if i.request.Song.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.request.Song.Album)
	}
	return desc
}
