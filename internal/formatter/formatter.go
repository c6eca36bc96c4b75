// package formatter renders queue and favorite data for display and export (CSV, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/shared"
)

// FormatWait renders an estimated wait for display. Estimates are
// approximate, hence the tilde; zero means the song is playing or next up.
func FormatWait(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("~%dm", minutes)
	}
	return fmt.Sprintf("~%dm%02ds", minutes, seconds)
}

// StatusLabel renders a request status for display.
func StatusLabel(status models.RequestStatus) string {
	switch status {
	case models.StatusPlaying:
		return "▶ playing"
	case models.StatusPending:
		return "queued"
	case models.StatusCompleted:
		return "played"
	case models.StatusCancelled:
		return "cancelled"
	default:
		return string(status)
	}
}

// QueueToCSV converts a request list to CSV with columns: Position, Status, Title, Artist, Requester, RequestedAt
func QueueToCSV(requests []models.Request) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Status", "Title", "Artist", "Requester", "RequestedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, req := range requests {
		record := []string{
			strconv.Itoa(req.QueuePosition),
			string(req.Status),
			req.Song.Title,
			req.Song.Artist,
			req.RequesterKey,
			req.RequestedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// QueueToText renders the queue as plain text. estimate converts a queue
// position into a wait; nil suppresses the wait column.
func QueueToText(restaurantName string, requests []models.Request, estimate func(int) time.Duration) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Queue: %s\n", restaurantName))
	buf.WriteString(fmt.Sprintf("Requests: %d\n\n", len(requests)))

	if len(requests) == 0 {
		buf.WriteString("The queue is empty.\n")
		return buf.Bytes()
	}

	for _, req := range requests {
		switch req.Status {
		case models.StatusPlaying:
			buf.WriteString(fmt.Sprintf("   %s  %s - %s\n", StatusLabel(req.Status), req.Song.Artist, req.Song.Title))
		case models.StatusPending:
			line := fmt.Sprintf("%2d. %s - %s (%s)", req.QueuePosition, req.Song.Artist, req.Song.Title, req.RequesterKey)
			if estimate != nil {
				line += fmt.Sprintf(" [%s]", FormatWait(estimate(req.QueuePosition)))
			}
			buf.WriteString(line + "\n")
		}
	}

	return buf.Bytes()
}

// FavoritesToText renders a favorite set as plain text.
func FavoritesToText(favorites []models.Favorite) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Favorites: %d\n\n", len(favorites)))
	for i, fav := range favorites {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, fav.Song.Artist, fav.Song.Title))
	}

	return buf.Bytes()
}

// FavoritesToCSV converts a favorite set to CSV with columns: Title, Artist, Album, DateAdded
func FavoritesToCSV(favorites []models.Favorite) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Artist", "Album", "DateAdded"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, fav := range favorites {
		record := []string{
			fav.Song.Title,
			fav.Song.Artist,
			fav.Song.Album,
			fav.DateAdded.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToJSON generates an indented JSON representation of any payload.
func ToJSON(v any) ([]byte, error) {
	return shared.MarshalJSON(v, true)
}
