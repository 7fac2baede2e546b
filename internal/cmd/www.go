package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leighmacdonald/drgwatch/internal/lobby"
	"github.com/leighmacdonald/drgwatch/internal/web"
	"github.com/leighmacdonald/drgwatch/pkg/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = time.Second * 10

func wwwCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "www",
		Short: "Serve the read only web view of recent lobbies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, errApp := NewApp(ctx)
			if errApp != nil {
				return errApp
			}
			defer app.Close()

			router, errRouter := web.CreateRouter(app.conf, lobby.NewRepository(app.database))
			if errRouter != nil {
				return errRouter
			}

			httpServer := &http.Server{
				Addr:              app.conf.Addr(),
				Handler:           router,
				ReadHeaderTimeout: time.Second * 5,
			}

			go func() {
				<-ctx.Done()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if errShutdown := httpServer.Shutdown(shutdownCtx); errShutdown != nil {
					slog.Error("Error shutting down http server", log.ErrAttr(errShutdown))
				}
			}()

			slog.Info("Starting web server", slog.String("listen", app.conf.Addr()))

			if errServe := httpServer.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
				return errServe
			}

			return nil
		},
	}
}
