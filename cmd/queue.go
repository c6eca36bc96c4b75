package main

import (
	"context"
	"fmt"

	"github.com/rockolahq/rockola/internal/formatter"
	"github.com/rockolahq/rockola/internal/shared"
	"github.com/urfave/cli/v3"
)

// QueueShow prints the full restaurant queue.
func (r *Runner) QueueShow(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")

	restaurant, err := r.backend.RestaurantBySlug(ctx, slug)
	if err != nil {
		return err
	}

	engine, _, err := r.syncedEngine(ctx, slug, "", true)
	if err != nil {
		return err
	}
	snapshot := engine.Snapshot()

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(snapshot, true)
	case cmd.Bool("csv"):
		data, err := formatter.QueueToCSV(snapshot)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		out := formatter.QueueToText(restaurant.Name, snapshot, engine.EstimatedWait)
		return r.writePlain("%s", out)
	}
}

// QueueAdvance completes the playing request and promotes the next one.
func (r *Runner) QueueAdvance(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")

	engine, _, err := r.syncedEngine(ctx, slug, "", true)
	if err != nil {
		return err
	}

	promoted, err := engine.Advance(ctx)
	if err != nil {
		return err
	}
	if promoted == nil {
		return r.writePlain("Queue drained; nothing left to play.\n")
	}

	return r.writePlain("▶ Now playing: %s - %s (requested by %s)\n",
		promoted.Song.Artist, promoted.Song.Title, promoted.RequesterKey)
}

// QueueTop moves one pending request to position 1.
func (r *Runner) QueueTop(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")
	requestID := cmd.StringArg("id")
	if requestID == "" {
		return fmt.Errorf("%w: request id", shared.ErrMissingArgument)
	}

	engine, _, err := r.syncedEngine(ctx, slug, "", true)
	if err != nil {
		return err
	}

	if err := engine.MoveToTop(ctx, requestID); err != nil {
		return err
	}
	return r.writePlain("✓ Request moved to the top of the queue\n")
}
