package cmd

import (
	"log/slog"
	"time"

	"github.com/leighmacdonald/drgwatch/internal/lobby"
	"github.com/leighmacdonald/drgwatch/pkg/log"
	"github.com/spf13/cobra"
)

func pollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Fetch the current public lobby list and record snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := NewApp(ctx)
			if errApp != nil {
				return errApp
			}
			defer app.Close()

			poller := lobby.NewPoller(lobby.NewMatchmakingClient(), lobby.NewRepository(app.database))

			if errPoll := poller.Poll(ctx, time.Now()); errPoll != nil {
				slog.Error("Failed to poll lobbies", log.ErrAttr(errPoll))

				return errPoll
			}

			return nil
		},
	}
}
