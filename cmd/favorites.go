package main

import (
	"context"

	"github.com/rockolahq/rockola/internal/formatter"
	"github.com/rockolahq/rockola/internal/models"
	"github.com/urfave/cli/v3"
)

// FavoritesToggle favorites or unfavorites a song for the current session.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")
	song := models.Song{
		ID:     cmd.String("song-id"),
		Title:  cmd.String("title"),
		Artist: cmd.String("artist"),
		Origin: models.OriginCatalog,
	}

	sess, err := r.resolveSession(ctx, slug, "")
	if err != nil {
		return err
	}

	favorited, err := r.favoritesStore().Toggle(ctx, *sess, song)
	if err != nil {
		return err
	}

	if favorited {
		return r.writePlain("♥ Added to favorites: %s - %s\n", song.Artist, song.Title)
	}
	return r.writePlain("♡ Removed from favorites: %s - %s\n", song.Artist, song.Title)
}

// FavoritesList prints the requester's favorite set.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")

	sess, err := r.resolveSession(ctx, slug, "")
	if err != nil {
		return err
	}

	set, err := r.favoritesStore().Refresh(ctx, *sess)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(set, true)
	case cmd.Bool("csv"):
		data, err := formatter.FavoritesToCSV(set)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return r.writePlain("%s", formatter.FavoritesToText(set))
	}
}
