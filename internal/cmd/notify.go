package cmd

import (
	"log/slog"

	"github.com/leighmacdonald/drgwatch/internal/notification"
	"github.com/leighmacdonald/drgwatch/internal/steam"
	"github.com/leighmacdonald/drgwatch/pkg/log"
	"github.com/spf13/cobra"
)

func notifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Reconcile discord notifications with the live lobby set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := NewApp(ctx)
			if errApp != nil {
				return errApp
			}
			defer app.Close()

			engine := notification.NewEngine(
				notification.NewRepository(app.database),
				notification.NewWebhookClient(app.conf.DiscordWebhookURL),
				steam.NewClient(app.conf.SteamKey),
				app.conf)

			if errSync := engine.Sync(ctx); errSync != nil {
				slog.Error("Failed to sync notifications", log.ErrAttr(errSync))

				return errSync
			}

			return nil
		},
	}
}
