package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rockolahq/rockola/internal/formatter"
	"github.com/rockolahq/rockola/internal/models"
	"github.com/rockolahq/rockola/internal/queue"
	"github.com/rockolahq/rockola/internal/shared"
	"github.com/urfave/cli/v3"
)

// RequestAdd submits a song request for the current session.
func (r *Runner) RequestAdd(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")
	song := models.Song{
		ID:     cmd.String("song-id"),
		Title:  cmd.String("title"),
		Artist: cmd.String("artist"),
		Album:  cmd.String("album"),
		Origin: models.OriginCatalog,
	}

	sess, err := r.resolveSession(ctx, slug, "")
	if err != nil {
		return err
	}

	engine, _, err := r.syncedEngine(ctx, slug, sess.RequesterKey, false)
	if err != nil {
		return err
	}

	result, err := engine.Submit(ctx, *sess, song)
	if err != nil {
		if errors.Is(err, shared.ErrUnknownOutcome) {
			return fmt.Errorf("the request may or may not have landed; check 'rockola request list' in a moment: %w", err)
		}
		return err
	}

	switch result.Outcome {
	case queue.SubmitAccepted:
		r.cacheSong(slug, song)

		if cmd.Bool("json") {
			return r.writeJSON(result.Request, true)
		}
		wait := engine.EstimatedWait(result.Request.QueuePosition)
		r.writePlain("✓ Request accepted: %s - %s\n", song.Artist, song.Title)
		r.writePlain("Position: %d (%s)\n", result.Request.QueuePosition, formatter.FormatWait(wait))
		r.writePlain("Requests remaining: %d\n", result.Remaining)
		return nil

	case queue.SubmitQuotaExceeded:
		return fmt.Errorf("%w: you already have the maximum number of requests in the queue; cancel one or wait for a song to play", shared.ErrQuotaExceeded)

	case queue.SubmitDuplicate:
		return fmt.Errorf("%w: you already requested this song", shared.ErrDuplicateRequest)

	default:
		return fmt.Errorf("unexpected submit outcome: %v", result.Outcome)
	}
}

// RequestCancel cancels one of the requester's pending requests.
func (r *Runner) RequestCancel(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")
	requestID := cmd.StringArg("id")
	if requestID == "" {
		return fmt.Errorf("%w: request id", shared.ErrMissingArgument)
	}

	sess, err := r.resolveSession(ctx, slug, "")
	if err != nil {
		return err
	}

	engine, _, err := r.syncedEngine(ctx, slug, sess.RequesterKey, false)
	if err != nil {
		return err
	}

	if err := engine.Cancel(ctx, requestID, sess.RequesterKey); err != nil {
		if errors.Is(err, shared.ErrNotPending) {
			return fmt.Errorf("%w: only queued requests can be cancelled", shared.ErrNotPending)
		}
		return err
	}

	return r.writePlain("✓ Request cancelled\n")
}

// RequestList shows the requester's requests with positions and waits.
func (r *Runner) RequestList(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")

	sess, err := r.resolveSession(ctx, slug, "")
	if err != nil {
		return err
	}

	engine, _, err := r.syncedEngine(ctx, slug, sess.RequesterKey, false)
	if err != nil {
		return err
	}

	snapshot := engine.Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(snapshot, true)
	}

	if len(snapshot) == 0 {
		return r.writePlain("No requests yet. Request one with 'rockola request add'\n")
	}

	for _, req := range snapshot {
		switch req.Status {
		case models.StatusPending:
			wait := engine.EstimatedWait(req.QueuePosition)
			r.writePlain("%2d. %s - %s [%s]  id=%s\n",
				req.QueuePosition, req.Song.Artist, req.Song.Title, formatter.FormatWait(wait), req.ID)
		default:
			r.writePlain("    %s - %s (%s)\n", req.Song.Artist, req.Song.Title, formatter.StatusLabel(req.Status))
		}
	}
	r.writePlainln("Requests remaining: %d", engine.RemainingFor(sess.RequesterKey))
	return nil
}

// RequestPosition shows the live position of one request.
func (r *Runner) RequestPosition(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")
	requestID := cmd.StringArg("id")
	if requestID == "" {
		return fmt.Errorf("%w: request id", shared.ErrMissingArgument)
	}

	sess, err := r.resolveSession(ctx, slug, "")
	if err != nil {
		return err
	}

	engine, _, err := r.syncedEngine(ctx, slug, sess.RequesterKey, false)
	if err != nil {
		return err
	}

	position, err := engine.PositionOf(requestID)
	if err != nil {
		return err
	}
	if position == 0 {
		return r.writePlain("This request is not waiting in the queue.\n")
	}

	wait := engine.EstimatedWait(position)
	return r.writePlain("Position %d of %d (%s)\n", position, len(engine.Pending()), formatter.FormatWait(wait))
}
