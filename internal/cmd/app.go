package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/leighmacdonald/drgwatch/internal/config"
	"github.com/leighmacdonald/drgwatch/internal/database"
	"github.com/leighmacdonald/drgwatch/pkg/log"
)

// App holds the shared dependencies every subcommand needs: config, logging
// and the database pool.
type App struct {
	conf      config.Config
	database  database.Database
	logCloser func()
}

// NewApp loads the config, installs the default logger and connects the
// database pool.
func NewApp(ctx context.Context) (*App, error) {
	conf, errConfig := config.Read(cfgFile)
	if errConfig != nil {
		return nil, errConfig
	}

	useSentry := false

	if conf.SentryDSN != "" {
		if errSentry := sentry.Init(sentry.ClientOptions{
			Dsn:     conf.SentryDSN,
			Release: BuildVersion,
		}); errSentry != nil {
			slog.Error("Failed to initialize sentry", log.ErrAttr(errSentry))
		} else {
			useSentry = true
		}
	}

	closer := log.MustCreate(ctx, conf.LogFile, log.Level(conf.LogLevel), useSentry)

	app := &App{conf: conf, logCloser: closer}

	dbConn := database.New(conf.DatabaseDSN, conf.DatabaseAutoMigrate, conf.DatabaseLogQueries)
	if errConnect := dbConn.Connect(ctx); errConnect != nil {
		slog.Error("Cannot initialize database", log.ErrAttr(errConnect))
		app.Close()

		return nil, errConnect
	}

	app.database = dbConn

	return app, nil
}

func (app *App) Close() {
	if app.database != nil {
		if errClose := app.database.Close(); errClose != nil {
			slog.Error("Failed to close database", log.ErrAttr(errClose))
		}
	}

	sentry.Flush(time.Second * 2)

	if app.logCloser != nil {
		app.logCloser()
	}
}
