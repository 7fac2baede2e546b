package mods

import (
	"context"
	"log/slog"

	"github.com/leighmacdonald/drgwatch/internal/metrics"
)

// Updater backfills mod metadata for every mod seen in a lobby but not yet
// resolved against mod.io.
type Updater struct {
	client *ModioClient
	repo   *Repository
}

func NewUpdater(client *ModioClient, repo *Repository) *Updater {
	return &Updater{client: client, repo: repo}
}

func (u *Updater) Update(ctx context.Context) error {
	if errBackfill := u.repo.BackfillSeenMods(ctx); errBackfill != nil {
		return errBackfill
	}

	modIDs, errIDs := u.repo.UnresolvedModIDs(ctx)
	if errIDs != nil {
		return errIDs
	}

	if len(modIDs) == 0 {
		slog.Debug("No unresolved mods")

		return nil
	}

	resolved, errResolved := u.client.ModsByID(ctx, modIDs)
	if errResolved != nil {
		return errResolved
	}

	for _, mod := range resolved {
		if errSave := u.repo.SaveResolved(ctx, mod); errSave != nil {
			return errSave
		}
	}

	metrics.ModsResolved.Add(float64(len(resolved)))
	slog.Info("Resolved mod metadata", slog.Int("unresolved", len(modIDs)),
		slog.Int("resolved", len(resolved)))

	return nil
}
