package cmd

import (
	"log/slog"

	"github.com/leighmacdonald/drgwatch/internal/mods"
	"github.com/leighmacdonald/drgwatch/pkg/log"
	"github.com/spf13/cobra"
)

func modsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mods",
		Short: "Resolve metadata for mods seen in lobbies against mod.io",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := NewApp(ctx)
			if errApp != nil {
				return errApp
			}
			defer app.Close()

			updater := mods.NewUpdater(mods.NewModioClient(app.conf.ModioKey), mods.NewRepository(app.database))

			if errUpdate := updater.Update(ctx); errUpdate != nil {
				slog.Error("Failed to update mods", log.ErrAttr(errUpdate))

				return errUpdate
			}

			return nil
		},
	}
}
