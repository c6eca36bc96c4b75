package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rockolahq/rockola/internal/repositories"
	"github.com/rockolahq/rockola/internal/shared"
	"github.com/urfave/cli/v3"
)

// SessionStart resolves a session for the restaurant scope, reusing a stored
// one when its scope matches.
func (r *Runner) SessionStart(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")
	user := cmd.String("user")

	restaurant, err := r.backend.RestaurantBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrRestaurantNotFound) {
			return fmt.Errorf("%w: no restaurant with slug %q", shared.ErrRestaurantNotFound, slug)
		}
		return err
	}

	sess, err := r.resolveSession(ctx, slug, user)
	if err != nil {
		return err
	}

	r.writePlain("✓ Session active at %s\n", restaurant.Name)
	r.writePlain("Requester: %s\n", sess.RequesterKey)
	if sess.IsAuthenticated {
		r.writePlain("Account: signed in\n")
	} else {
		r.writePlain("Account: guest (favorites last for this visit only)\n")
	}
	return nil
}

// SessionStatus shows the stored session for a restaurant scope.
func (r *Runner) SessionStatus(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")

	db, err := r.database()
	if err != nil {
		return err
	}

	sess, err := repositories.NewSessionRepository(db).Get(slug)
	if err != nil {
		if errors.Is(err, shared.ErrNoSession) {
			r.writePlain("No session for %s. Run 'rockola session start -R %s'\n", slug, slug)
			return nil
		}
		return err
	}

	r.writePlain("Restaurant: %s\n", sess.RestaurantSlug)
	r.writePlain("Requester:  %s\n", sess.RequesterKey)
	r.writePlain("Signed in:  %v\n", sess.IsAuthenticated)
	r.writePlain("Issued at:  %s\n", sess.IssuedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// SessionEnd discards the session for a restaurant scope.
func (r *Runner) SessionEnd(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("restaurant")

	mgr, err := r.sessionManager()
	if err != nil {
		return err
	}
	if err := mgr.Invalidate(slug); err != nil {
		return err
	}

	// Cached catalog songs are scoped to the visit too.
	if db, err := r.database(); err == nil {
		if err := repositories.NewSongCacheRepository(db).Purge(slug); err != nil {
			r.logger.Warn("failed to purge song cache", "error", err)
		}
	}

	return r.writePlain("✓ Session for %s discarded\n", slug)
}
