package lobby

import (
	"context"
	"log/slog"
	"time"

	"github.com/leighmacdonald/drgwatch/internal/metrics"
)

// Poller fetches the current public lobby list and records one snapshot per
// lobby. Runs are independent, a scheduler invokes one per polling interval.
type Poller struct {
	client *MatchmakingClient
	repo   *Repository
}

func NewPoller(client *MatchmakingClient, repo *Repository) *Poller {
	return &Poller{client: client, repo: repo}
}

func (p *Poller) Poll(ctx context.Context, captureTime time.Time) error {
	snapshots, errFetch := p.client.FetchAll(ctx, captureTime)
	if errFetch != nil {
		return errFetch
	}

	if errSave := p.repo.SaveSnapshots(ctx, snapshots); errSave != nil {
		return errSave
	}

	metrics.LobbiesPolled.Add(float64(len(snapshots)))
	slog.Info("Saved lobby snapshots", slog.Int("count", len(snapshots)),
		slog.Time("capture_time", captureTime))

	return nil
}
