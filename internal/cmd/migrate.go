package cmd

import (
	"log/slog"

	"github.com/leighmacdonald/drgwatch/internal/config"
	"github.com/leighmacdonald/drgwatch/internal/database"
	"github.com/leighmacdonald/drgwatch/pkg/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			conf, errConfig := config.Read(cfgFile)
			if errConfig != nil {
				return errConfig
			}

			dbConn := database.New(conf.DatabaseDSN, true, false)
			if errConnect := dbConn.Connect(ctx); errConnect != nil {
				slog.Error("Failed to migrate database", log.ErrAttr(errConnect))

				return errConnect
			}

			defer log.Closer(dbConn)

			slog.Info("Database migration succeeded")

			return nil
		},
	}
}
